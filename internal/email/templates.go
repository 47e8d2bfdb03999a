package email

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
)

const TemplateNotification = "notification"

var builtinTemplates = map[string]string{
	TemplateNotification: `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.Title}}</h2>
  <p>{{.Message}}</p>
  {{if .ActionURL}}<p><a href="{{.ActionURL}}">Open PicoWorker</a></p>{{end}}
</body>
</html>`,
}

// TemplateRenderer хранит разобранные html-шаблоны писем
type TemplateRenderer struct {
	mutex     sync.RWMutex
	templates map[string]*template.Template
}

// NewTemplateRenderer загружает встроенные шаблоны
func NewTemplateRenderer() (*TemplateRenderer, error) {
	r := &TemplateRenderer{templates: make(map[string]*template.Template)}
	for name, body := range builtinTemplates {
		if err := r.AddTemplate(name, body); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *TemplateRenderer) AddTemplate(name, body string) error {
	tpl, err := template.New(name).Parse(body)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.templates[name] = tpl
	return nil
}

func (r *TemplateRenderer) Render(name string, data TemplateData) (string, error) {
	r.mutex.RLock()
	tpl, ok := r.templates[name]
	r.mutex.RUnlock()
	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
