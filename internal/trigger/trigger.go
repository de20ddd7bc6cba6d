// Package trigger turns the webhook payload of the triggering event into a
// pr.RequestContext.
package trigger

import (
	"fmt"
	"os"
	"slices"

	gh "github.com/google/go-github/v66/github"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

var (
	// ErrUnsupportedEvent is returned for events that do not concern a pull
	// request or an issue.
	ErrUnsupportedEvent = errors.New("unsupported event")
	// ErrNoRequest is returned when a supported event carries no request
	// number.
	ErrNoRequest = errors.New("event carries no pull request or issue")
)

// SupportedEvents lists the event names Load accepts.
func SupportedEvents() []string {
	return []string{
		"pull_request",
		"pull_request_target",
		"pull_request_review",
		"pull_request_review_comment",
		"issue_comment",
		"issues",
	}
}

// Source locates the triggering event.
type Source struct {
	// Path is the payload file, GITHUB_EVENT_PATH on the Actions runner
	Path string
	// Name is the event name, GITHUB_EVENT_NAME on the Actions runner
	Name string
	// Repository is "owner/name", used when the payload has no repository
	Repository string
}

// Load reads and decodes the payload at s.Path.
func (s Source) Load() (pr.RequestContext, error) {
	if !slices.Contains(SupportedEvents(), s.Name) {
		return pr.RequestContext{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, s.Name)
	}
	if s.Path == "" {
		return pr.RequestContext{}, errors.NewValidationError("event path is not set").WithField("event-path")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return pr.RequestContext{}, fmt.Errorf("reading event payload: %w", err)
	}
	return Parse(s.Name, data, s.Repository)
}

// Parse decodes payload as an event of the given name. repository is the
// fallback "owner/name" for payloads without a repository object.
func Parse(name string, payload []byte, repository string) (pr.RequestContext, error) {
	if !slices.Contains(SupportedEvents(), name) {
		return pr.RequestContext{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, name)
	}

	ev, err := gh.ParseWebHook(name, payload)
	if err != nil {
		return pr.RequestContext{}, fmt.Errorf("decoding %s payload: %w", name, err)
	}

	var req pr.RequestContext
	var repo *gh.Repository
	switch e := ev.(type) {
	case *gh.PullRequestEvent:
		req, repo = fromPullRequest(e.GetPullRequest()), e.GetRepo()
	case *gh.PullRequestTargetEvent:
		req, repo = fromPullRequest(e.GetPullRequest()), e.GetRepo()
	case *gh.PullRequestReviewEvent:
		req, repo = fromPullRequest(e.GetPullRequest()), e.GetRepo()
	case *gh.PullRequestReviewCommentEvent:
		req, repo = fromPullRequest(e.GetPullRequest()), e.GetRepo()
	case *gh.IssueCommentEvent:
		req, repo = fromIssue(e.GetIssue()), e.GetRepo()
	case *gh.IssuesEvent:
		req, repo = fromIssue(e.GetIssue()), e.GetRepo()
	default:
		return pr.RequestContext{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, name)
	}

	if req.Number == 0 {
		return pr.RequestContext{}, fmt.Errorf("%w in %s payload", ErrNoRequest, name)
	}
	req.EventName = name

	req.Repo, err = repoOf(repo, repository)
	if err != nil {
		return pr.RequestContext{}, err
	}
	return req, nil
}

func fromPullRequest(p *gh.PullRequest) pr.RequestContext {
	if p == nil {
		return pr.RequestContext{}
	}
	return pr.RequestContext{
		Number: p.GetNumber(),
		Author: pr.Identity(p.GetUser().GetLogin()),
		Labels: labelsOf(p.Labels),
		URL:    p.GetHTMLURL(),
		Title:  p.GetTitle(),
		Kind:   pr.KindPullRequest,
	}
}

// fromIssue handles plain issues and the issue view GitHub sends for
// comments on pull requests.
func fromIssue(i *gh.Issue) pr.RequestContext {
	if i == nil {
		return pr.RequestContext{}
	}
	kind := pr.KindIssue
	if i.IsPullRequest() {
		kind = pr.KindPullRequest
	}
	return pr.RequestContext{
		Number: i.GetNumber(),
		Author: pr.Identity(i.GetUser().GetLogin()),
		Labels: labelsOf(i.Labels),
		URL:    i.GetHTMLURL(),
		Title:  i.GetTitle(),
		Kind:   kind,
	}
}

func labelsOf(labels []*gh.Label) []pr.Label {
	out := make([]pr.Label, 0, len(labels))
	for _, l := range labels {
		if name := l.GetName(); name != "" {
			out = append(out, pr.Label{Name: name})
		}
	}
	return out
}

func repoOf(repo *gh.Repository, fallback string) (pr.Repo, error) {
	if owner, name := repo.GetOwner().GetLogin(), repo.GetName(); owner != "" && name != "" {
		return pr.Repo{Owner: owner, Name: name}, nil
	}
	if full := repo.GetFullName(); full != "" {
		return pr.ParseRepo(full)
	}
	if fallback == "" {
		return pr.Repo{}, errors.NewValidationError("event has no repository and none is configured").WithField("repository")
	}
	return pr.ParseRepo(fallback)
}
