package email

// Provider определяет интерфейс для отправки email
type Provider interface {
	// Send отправляет одно сообщение
	Send(email *Email) error

	// SendTemplate рендерит шаблон и отправляет его
	SendTemplate(to []string, subject string, templateName string, data TemplateData) error

	// Validate проверяет конфигурацию провайдера
	Validate() error
}
