// Package slack posts notification messages through the Slack Web API.
package slack

import (
	"context"
	"net/http"
	"strings"

	sl "github.com/slack-go/slack"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/provider"
)

// Messenger implements notify.Messenger with chat.postMessage.
type Messenger struct {
	api *sl.Client
}

// Option configures a Messenger.
type Option func(*[]sl.Option)

// WithAPIURL overrides the Web API base URL, e.g. for a proxy or a test
// server. An empty value keeps https://slack.com/api/.
func WithAPIURL(u string) Option {
	return func(opts *[]sl.Option) {
		if u == "" {
			return
		}
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		*opts = append(*opts, sl.OptionAPIURL(u))
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(opts *[]sl.Option) {
		*opts = append(*opts, sl.OptionHTTPClient(c))
	}
}

// NewMessenger creates a Messenger authenticated with a bot token.
func NewMessenger(token string, opts ...Option) *Messenger {
	var slackOpts []sl.Option
	for _, opt := range opts {
		opt(&slackOpts)
	}
	return &Messenger{api: sl.New(token, slackOpts...)}
}

// PostMessage posts body to channel. Links in the body are not unfurled.
func (m *Messenger) PostMessage(ctx context.Context, channel, body string) error {
	_, _, err := m.api.PostMessageContext(ctx, channel,
		sl.MsgOptionText(body, false),
		sl.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify attaches an HTTP status to transport-level failures so they are
// reported as retryable. API errors such as channel_not_found pass through.
func classify(err error) error {
	var rateLimited *sl.RateLimitedError
	if errors.As(err, &rateLimited) {
		return &provider.StatusError{Status: http.StatusTooManyRequests, Err: err}
	}
	var status sl.StatusCodeError
	if errors.As(err, &status) {
		return &provider.StatusError{Status: status.Code, Err: err}
	}
	return err
}
