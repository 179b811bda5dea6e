package mailer

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"text/template"
)

const (
	FromName                     = "Curate"
	maxRetries                   = 3
	FeedbackNotificationTemplate = "feedback_notification.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, toName, toEmail string, data any) (int, error)
}

// render executes the "subject", "plainBody" and "htmlBody" blocks of a
// template. Only the HTML block is escaped.
func render(templateFile string, data any) (subject, plain, html string, err error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", "", err
	}
	subject = buf.String()

	buf.Reset()
	if err := tmpl.ExecuteTemplate(&buf, "plainBody", data); err != nil {
		return "", "", "", err
	}
	plain = buf.String()

	htmlTmpl, err := htmltemplate.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", "", err
	}
	buf.Reset()
	if err := htmlTmpl.ExecuteTemplate(&buf, "htmlBody", data); err != nil {
		return "", "", "", err
	}
	html = buf.String()

	return subject, plain, html, nil
}
