package email

import (
	"fmt"

	"picoworker_backend/internal/config"

	"gopkg.in/gomail.v2"
)

// GomailProvider отправляет письма через SMTP с помощью gomail
type GomailProvider struct {
	cfg      config.EmailConfig
	renderer *TemplateRenderer
	dialer   *gomail.Dialer
}

// NewGomailProvider создает провайдер из секции email конфига
func NewGomailProvider(cfg config.EmailConfig, renderer *TemplateRenderer) *GomailProvider {
	return &GomailProvider{
		cfg:      cfg,
		renderer: renderer,
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (p *GomailProvider) Send(email *Email) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	return p.dialer.DialAndSend(p.buildMessage(email))
}

func (p *GomailProvider) SendTemplate(to []string, subject string, templateName string, data TemplateData) error {
	if p.renderer == nil {
		return fmt.Errorf("template renderer is not configured")
	}

	htmlBody, err := p.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.Send(&Email{To: to, Subject: subject, HTMLBody: htmlBody})
}

func (p *GomailProvider) Validate() error {
	if p.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if p.cfg.SMTPPort <= 0 || p.cfg.SMTPPort > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", p.cfg.SMTPPort)
	}
	if p.cfg.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

func (p *GomailProvider) buildMessage(email *Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.cfg.FromEmail, p.cfg.FromName)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		m.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			m.AddAlternative("text/plain", email.Body)
		}
	} else {
		m.SetBody("text/plain", email.Body)
	}
	return m
}
