// Package github adapts the GitHub REST API to the roster, activity and
// labeling interfaces of the pipeline.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/Iron-Ham/teamlabel/internal/provider"
	"github.com/Iron-Ham/teamlabel/internal/review"
	"github.com/Iron-Ham/teamlabel/internal/team"
)

// Client talks to one GitHub (or GitHub Enterprise Server) instance with a
// single token. Reads and labeling use separate Clients so the two
// credentials never mix.
type Client struct {
	api     *gh.Client
	perPage int
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at a GHES API root such as
// https://ghe.example.com/api/v3. An empty value keeps api.github.com.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if raw == "" {
			return nil
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid api url %q: %w", raw, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.api.BaseURL = u
		return nil
	}
}

// WithPerPage overrides the page size for list calls.
func WithPerPage(n int) Option {
	return func(c *Client) error {
		if n > 0 {
			c.perPage = n
		}
		return nil
	}
}

// NewClient creates a Client authenticated with token.
func NewClient(token string, opts ...Option) (*Client, error) {
	c := &Client{
		api:     gh.NewClient(nil).WithAuthToken(token),
		perPage: provider.DefaultPerPage,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ListTeamMembers implements team.Directory. Every page is read.
func (c *Client) ListTeamMembers(ctx context.Context, id team.ID) ([]pr.Identity, error) {
	opts := &gh.TeamListTeamMembersOptions{ListOptions: gh.ListOptions{PerPage: c.perPage}}

	var members []pr.Identity
	for {
		users, resp, err := c.api.Teams.ListTeamMembersBySlug(ctx, id.Org, id.Slug, opts)
		if err != nil {
			return nil, provider.NewStatusError(responseOf(resp), err)
		}
		for _, u := range users {
			members = append(members, pr.Identity(u.GetLogin()))
		}
		if resp.NextPage == 0 {
			return members, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListReviews implements review.Activity. Issues have no reviews.
func (c *Client) ListReviews(ctx context.Context, req pr.RequestContext) ([]review.Entry, error) {
	if req.Kind == pr.KindIssue {
		return nil, nil
	}
	opts := &gh.ListOptions{PerPage: c.perPage}

	var entries []review.Entry
	for {
		reviews, resp, err := c.api.PullRequests.ListReviews(ctx, req.Repo.Owner, req.Repo.Name, req.Number, opts)
		if err != nil {
			return nil, provider.NewStatusError(responseOf(resp), err)
		}
		for _, r := range reviews {
			entries = append(entries, review.Entry{Actor: pr.Identity(r.GetUser().GetLogin())})
		}
		if resp.NextPage == 0 {
			return entries, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListComments implements review.Activity. These are the conversation
// comments shared by issues and pull requests.
func (c *Client) ListComments(ctx context.Context, req pr.RequestContext) ([]review.Entry, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: c.perPage}}

	var entries []review.Entry
	for {
		comments, resp, err := c.api.Issues.ListComments(ctx, req.Repo.Owner, req.Repo.Name, req.Number, opts)
		if err != nil {
			return nil, provider.NewStatusError(responseOf(resp), err)
		}
		for _, cm := range comments {
			entries = append(entries, review.Entry{Actor: pr.Identity(cm.GetUser().GetLogin())})
		}
		if resp.NextPage == 0 {
			return entries, nil
		}
		opts.Page = resp.NextPage
	}
}

// AddLabel implements label.Labeler. The endpoint is additive, so labels
// already on the request are left alone.
func (c *Client) AddLabel(ctx context.Context, req pr.RequestContext, name string) error {
	_, resp, err := c.api.Issues.AddLabelsToIssue(ctx, req.Repo.Owner, req.Repo.Name, req.Number, []string{name})
	if err != nil {
		return provider.NewStatusError(responseOf(resp), err)
	}
	return nil
}

func responseOf(resp *gh.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}
