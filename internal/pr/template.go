package pr

import (
	"bytes"
	"strings"
	"text/template"
)

// DefaultMessageTemplate is used when no message-template option is set.
// Slack renders <url|text> as a link.
const DefaultMessageTemplate = `:white_check_mark: {{.Team}} acted on <{{.URL}}|{{.Repo}}#{{.Number}}{{if .Title}} {{.Title}}{{end}}>{{if .Actors}} ({{join .Actors ", "}}){{end}}`

// TemplateData contains all data available to message templates
type TemplateData struct {
	// Team is the team identifier that was checked
	Team string
	// Label is the label applied to the request
	Label string
	// Actors are the team members who reviewed or commented, sorted
	Actors []string
	// Number is the pull request or issue number
	Number int
	// Title is the request title
	Title string
	// URL is the request's web URL
	URL string
	// Repo is "owner/name"
	Repo string
	// Author is the request author's login
	Author string
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// ParseTemplate compiles a message template, exposing the join helper.
func ParseTemplate(tmplStr string) (*template.Template, error) {
	return template.New("message").Funcs(templateFuncs).Parse(tmplStr)
}

// RenderTemplate renders a message template with the given data
func RenderTemplate(tmplStr string, data TemplateData) (string, error) {
	tmpl, err := ParseTemplate(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// NormalizeLogin strips a leading @ from a handle.
func NormalizeLogin(login string) Identity {
	return Identity(strings.TrimPrefix(strings.TrimSpace(login), "@"))
}
