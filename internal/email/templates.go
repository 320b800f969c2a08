package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type reviewFlagEmailData struct {
	baseEmailData
	ApplicationID string
	Status        string
	ConfidencePct string
	ModelVersion  string
}

type decisionDigestEmailData struct {
	baseEmailData
	WindowStart      string
	WindowEnd        string
	Total            int64
	Approved         int64
	Rejected         int64
	AvgConfidencePct string
	FlaggedCount     int64
}

// renderEmailTemplate parses the base layout together with the named content
// template and executes the combined "email" template.
func renderEmailTemplate(name string, data any) (string, error) {
	tmpl, err := template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
