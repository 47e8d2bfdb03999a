package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host           string        `yaml:"host" env:"SERVER_HOST"`
		Port           int           `yaml:"port" env:"SERVER_PORT"`
		Env            string        `yaml:"env" env:"SERVER_ENV"`
		RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT"`
		AllowedOrigins []string      `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" envSeparator:","`
	} `yaml:"server"`

	Database struct {
		Driver          string        `yaml:"driver" env:"DATABASE_DRIVER"` // postgres | mysql
		DSN             string        `yaml:"url" env:"DATABASE_URL"`
		MaxOpenConns    int           `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
		MaxIdleConns    int           `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
		AutoMigrate     bool          `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE"`
	} `yaml:"database"`

	Email EmailConfig `yaml:"email"`

	JWT struct {
		Secret string        `yaml:"secret" env:"JWT_SECRET"`
		TTL    time.Duration `yaml:"ttl" env:"JWT_TTL"`

		// IssuerKey - общий секрет фронтенда для POST /jwt (заголовок X-Issuer-Key)
		IssuerKey string `yaml:"issuer_key" env:"JWT_ISSUER_KEY"`
	} `yaml:"jwt"`

	Payment struct {
		StripeSecretKey string `yaml:"stripe_secret_key" env:"STRIPE_SECRET_KEY"`
		Currency        string `yaml:"currency" env:"PAYMENT_CURRENCY"`
	} `yaml:"payment"`

	Ledger LedgerConfig `yaml:"ledger"`

	Workers struct {
		TempPurchaseTTL      time.Duration `yaml:"temp_purchase_ttl" env:"WORKERS_TEMP_PURCHASE_TTL"`
		TempPurchaseInterval time.Duration `yaml:"temp_purchase_interval" env:"WORKERS_TEMP_PURCHASE_INTERVAL"`
	} `yaml:"workers"`

	FirstAdminEmail string `yaml:"first_admin_email" env:"FIRST_ADMIN_EMAIL"`
}

type EmailConfig struct {
	Enabled      bool   `yaml:"enabled" env:"EMAIL_ENABLED"`
	SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUsername string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	FromEmail    string `yaml:"from_email" env:"EMAIL_FROM"`
	FromName     string `yaml:"from_name" env:"EMAIL_FROM_NAME"`
}

type LedgerConfig struct {
	CoinsPerDollar         int64 `yaml:"coins_per_dollar" env:"LEDGER_COINS_PER_DOLLAR"`
	PurchaseCoinsPerDollar int64 `yaml:"purchase_coins_per_dollar" env:"LEDGER_PURCHASE_COINS_PER_DOLLAR"`
	MinWithdrawCoins       int64 `yaml:"min_withdraw_coins" env:"LEDGER_MIN_WITHDRAW_COINS"`
	WorkerSignupBonus      int64 `yaml:"worker_signup_bonus" env:"LEDGER_WORKER_SIGNUP_BONUS"`
	CreatorSignupBonus     int64 `yaml:"creator_signup_bonus" env:"LEDGER_CREATOR_SIGNUP_BONUS"`
}

var AppConfig *Config

// Load читает YAML (если файл есть), затем накладывает переменные окружения
// и заполняет значения по умолчанию.
func Load() (*Config, error) {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if err := readYAML(configPath, &cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Файл не обязателен: в контейнере все приходит из окружения
			return nil
		}
		return fmt.Errorf("open config file %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 10 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = time.Hour
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "usd"
	}
	if c.Ledger.CoinsPerDollar == 0 {
		c.Ledger.CoinsPerDollar = 20
	}
	if c.Ledger.PurchaseCoinsPerDollar == 0 {
		c.Ledger.PurchaseCoinsPerDollar = 10
	}
	if c.Ledger.MinWithdrawCoins == 0 {
		c.Ledger.MinWithdrawCoins = 200
	}
	if c.Ledger.WorkerSignupBonus == 0 {
		c.Ledger.WorkerSignupBonus = 10
	}
	if c.Ledger.CreatorSignupBonus == 0 {
		c.Ledger.CreatorSignupBonus = 50
	}
	if c.Workers.TempPurchaseTTL == 0 {
		c.Workers.TempPurchaseTTL = 24 * time.Hour
	}
	if c.Workers.TempPurchaseInterval == 0 {
		c.Workers.TempPurchaseInterval = time.Hour
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
}

// Validate проверяет обязательные ключи
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.url (DATABASE_URL) is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}
	if c.Server.Env == "production" && c.JWT.IssuerKey == "" {
		return errors.New("jwt.issuer_key (JWT_ISSUER_KEY) is required in production")
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Email.Enabled && c.Email.SMTPHost == "" {
		return errors.New("email.smtp_host is required when email is enabled")
	}
	return nil
}

// LoadConfig заполняет глобальный AppConfig
func LoadConfig() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func GetConfig() *Config {
	return AppConfig
}

// Defaults возвращает конфиг только со значениями по умолчанию (для тестов и утилит)
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
