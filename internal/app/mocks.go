package app

import (
	"sync"

	"picoworker_backend/internal/email"
	"picoworker_backend/internal/logger"
)

// MockEmailProvider используется для тестов и локальной разработки:
// письма не отправляются, а запоминаются и пишутся в debug-лог.
type MockEmailProvider struct {
	mu   sync.Mutex
	Sent []email.Email
}

func (m *MockEmailProvider) Send(msg *email.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, *msg)
	logger.Debug("Email suppressed", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (m *MockEmailProvider) SendTemplate(to []string, subject string, templateName string, data email.TemplateData) error {
	return m.Send(&email.Email{To: to, Subject: subject, Body: templateName})
}

func (m *MockEmailProvider) Validate() error { return nil }

// Count возвращает число "отправленных" писем
func (m *MockEmailProvider) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
