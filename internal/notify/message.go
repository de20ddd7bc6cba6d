package notify

import (
	"bytes"
	"text/template"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/Iron-Ham/teamlabel/internal/util"
)

// MaxMessageLength is Slack's limit on the text of a single message.
const MaxMessageLength = 40000

// MessageBuilder renders notification bodies from a message template.
type MessageBuilder struct {
	tmpl *template.Template
	team string
}

// NewMessageBuilder compiles tmplStr. An empty template selects
// pr.DefaultMessageTemplate.
func NewMessageBuilder(tmplStr, team string) (*MessageBuilder, error) {
	if tmplStr == "" {
		tmplStr = pr.DefaultMessageTemplate
	}
	tmpl, err := pr.ParseTemplate(tmplStr)
	if err != nil {
		return nil, errors.NewValidationError("invalid message template").
			WithField("message-template").WithCause(err)
	}
	return &MessageBuilder{tmpl: tmpl, team: team}, nil
}

// Build renders the body announcing that actors from the team acted on req.
func (b *MessageBuilder) Build(req pr.RequestContext, label string, actors []string) (string, error) {
	data := pr.TemplateData{
		Team:   b.team,
		Label:  label,
		Actors: actors,
		Number: req.Number,
		Title:  req.Title,
		URL:    req.URL,
		Repo:   req.Repo.String(),
		Author: string(req.Author),
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "rendering message")
	}
	return util.TruncateRunes(buf.String(), MaxMessageLength), nil
}

// Jobs builds one job per channel carrying the same body.
func Jobs(channels []string, body string) []pr.NotificationJob {
	jobs := make([]pr.NotificationJob, len(channels))
	for i, channel := range channels {
		jobs[i] = pr.NotificationJob{Channel: channel, Body: body}
	}
	return jobs
}
