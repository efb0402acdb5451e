package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const baseTemplate = `{{define "email"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
<h2>{{.Heading}}</h2>
{{if .Subheading}}<p style="color: #52606d;">{{.Subheading}}</p>{{end}}
{{template "content" .}}
</body>
</html>{{end}}`

var contentTemplates = map[string]string{
	"lead_message.html": `{{define "content"}}{{range .Paragraphs}}<p>{{.}}</p>{{end}}{{end}}`,
	"lead_alert.html": `{{define "content"}}<table cellpadding="4">
<tr><td><strong>Lead</strong></td><td>{{.LeadName}} ({{.LeadID}})</td></tr>
<tr><td><strong>Score</strong></td><td>{{.Score}}</td></tr>
<tr><td><strong>Urgency</strong></td><td>{{.Urgency}}</td></tr>
<tr><td><strong>Intent</strong></td><td>{{.Intent}}</td></tr>
<tr><td><strong>Next action</strong></td><td>{{.NextAction}}</td></tr>
</table>
<ul>{{range .Reasons}}<li>{{.}}</li>{{end}}</ul>{{end}}`,
}

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type leadMessageEmailData struct {
	baseEmailData
	Paragraphs []string
}

type leadAlertEmailData struct {
	baseEmailData
	LeadAlert
}

func renderEmailTemplate(name string, data any) (string, error) {
	content, ok := contentTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %s", name)
	}
	tmpl, err := template.New("base.html").Parse(baseTemplate)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}
	if _, err := tmpl.New(name).Parse(content); err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// paragraphs splits plain text on blank lines.
func paragraphs(text string) []string {
	parts := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
