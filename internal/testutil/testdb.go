package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"picoworker_backend/internal/auth"
	"picoworker_backend/internal/config"
	"picoworker_backend/internal/models"
	"picoworker_backend/internal/services/payment"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB открывает отдельную in-memory sqlite базу с полной схемой.
// Одно соединение: sqlite не любит параллельных писателей, транзакции идут по очереди.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Не удалось открыть тестовую БД: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Не удалось получить *sql.DB из GORM: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Не удалось выполнить AutoMigrate: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

const TestIssuerKey = "test_issuer_key"

// TestConfig - конфиг по умолчанию с тестовым секретом и маленьким порогом вывода
func TestConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Server.Env = "test"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.JWT.Secret = "test_secret_key_for_picoworker"
	cfg.JWT.IssuerKey = TestIssuerKey
	cfg.Ledger.MinWithdrawCoins = 10
	return cfg
}

// Caller - claims для роли без выдачи токена
func Caller(email string, role models.UserRole) *auth.Claims {
	return auth.NewClaims(email, role)
}

// FakeGateway запоминает вызовы и возвращает Err, если он задан
type FakeGateway struct {
	mu    sync.Mutex
	Err   error
	Calls []int64
}

func (g *FakeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, amountMinor)
	if g.Err != nil {
		return nil, g.Err
	}
	return &payment.Intent{
		ID:           fmt.Sprintf("pi_test_%d", len(g.Calls)),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", len(g.Calls)),
	}, nil
}

// FakePusher собирает realtime-уведомления по email
type FakePusher struct {
	mu   sync.Mutex
	sent map[string][]interface{}
}

func NewFakePusher() *FakePusher {
	return &FakePusher{sent: map[string][]interface{}{}}
}

func (p *FakePusher) SendToUser(email string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent[email] = append(p.sent[email], payload)
}

func (p *FakePusher) Count(email string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent[email])
}
