package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

//go:embed *.tmpl
var FS embed.FS

// subjects per template name.
var subjects = map[string]string{
	"team_invite":  "You have been invited to join {{.TeamName}}",
	"team_created": "Your team {{.TeamName}} is ready",
}

// Render produces subject, text body and HTML body for a named template.
// The HTML variant lives in <name>.html.tmpl, the text fallback in
// <name>.txt.tmpl.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	subjTpl, ok := subjects[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}

	subject, err = renderText("subject", subjTpl, data)
	if err != nil {
		return "", "", "", err
	}

	tb, err := FS.ReadFile(name + ".txt.tmpl")
	if err != nil {
		return "", "", "", err
	}
	text, err = renderText(name+".txt", string(tb), data)
	if err != nil {
		return "", "", "", err
	}

	hb, err := FS.ReadFile(name + ".html.tmpl")
	if err != nil {
		return "", "", "", err
	}
	ht, err := htmpl.New(name + ".html").Parse(string(hb))
	if err != nil {
		return "", "", "", err
	}
	var buf bytes.Buffer
	if err := ht.Execute(&buf, data); err != nil {
		return "", "", "", err
	}
	return subject, text, buf.String(), nil
}

func renderText(name, tpl string, data map[string]any) (string, error) {
	t, err := texttpl.New(name).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
