// Package gitlab adapts the GitLab REST API to the roster, activity and
// labeling interfaces of the pipeline. A team is a group (or subgroup)
// and a request is a merge request or an issue of a project.
package gitlab

import (
	"context"
	"net/http"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/Iron-Ham/teamlabel/internal/provider"
	"github.com/Iron-Ham/teamlabel/internal/review"
	"github.com/Iron-Ham/teamlabel/internal/team"
)

// Client talks to one GitLab instance with a single token.
type Client struct {
	api *gl.Client
}

type options struct {
	baseURL  string
	retryMax int
	setRetry bool
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at a self-managed instance. An empty value
// keeps gitlab.com.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithRetryMax bounds the client's retries of 429 and 5xx responses.
func WithRetryMax(n int) Option {
	return func(o *options) {
		o.retryMax = n
		o.setRetry = true
	}
}

// NewClient creates a Client authenticated with token.
func NewClient(token string, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []gl.ClientOptionFunc
	if o.baseURL != "" {
		clientOpts = append(clientOpts, gl.WithBaseURL(o.baseURL))
	}
	if o.setRetry {
		clientOpts = append(clientOpts, gl.WithCustomRetryMax(o.retryMax))
	}

	api, err := gl.NewClient(token, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

// ListTeamMembers implements team.Directory. The team ID is read as the
// group path "org/slug".
func (c *Client) ListTeamMembers(ctx context.Context, id team.ID) ([]pr.Identity, error) {
	opts := &gl.ListGroupMembersOptions{
		ListOptions: gl.ListOptions{Page: 1, PerPage: provider.DefaultPerPage},
	}

	var members []pr.Identity
	for {
		page, resp, err := c.api.Groups.ListGroupMembers(id.String(), opts, gl.WithContext(ctx))
		if err != nil {
			return nil, provider.NewStatusError(responseOf(resp), err)
		}
		for _, m := range page {
			members = append(members, pr.Identity(m.Username))
		}
		if resp.NextPage == 0 {
			return members, nil
		}
		opts.Page = resp.NextPage
	}
}

// GetMergeRequest reads merge request iid of repo. It implements
// trigger.MergeRequestGetter for GitLab merge request pipelines.
func (c *Client) GetMergeRequest(ctx context.Context, repo pr.Repo, iid int) (pr.RequestContext, error) {
	mr, resp, err := c.api.MergeRequests.GetMergeRequest(repo.String(), int64(iid), nil, gl.WithContext(ctx))
	if err != nil {
		return pr.RequestContext{}, provider.NewStatusError(responseOf(resp), err)
	}

	req := pr.RequestContext{
		Number: int(mr.IID),
		Labels: make([]pr.Label, 0, len(mr.Labels)),
		URL:    mr.WebURL,
		Title:  mr.Title,
		Repo:   repo,
		Kind:   pr.KindPullRequest,
	}
	if mr.Author != nil {
		req.Author = pr.Identity(mr.Author.Username)
	}
	for _, name := range mr.Labels {
		if name != "" {
			req.Labels = append(req.Labels, pr.Label{Name: name})
		}
	}
	return req, nil
}

// ListReviews implements review.Activity. On GitLab the approvers of a
// merge request stand in for its reviewers. Issues have none.
func (c *Client) ListReviews(ctx context.Context, req pr.RequestContext) ([]review.Entry, error) {
	if req.Kind == pr.KindIssue {
		return nil, nil
	}

	approvals, resp, err := c.api.MergeRequests.GetMergeRequestApprovals(
		req.Repo.String(),
		int64(req.Number),
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, provider.NewStatusError(responseOf(resp), err)
	}

	var entries []review.Entry
	for _, a := range approvals.ApprovedBy {
		if a == nil || a.User == nil {
			continue
		}
		entries = append(entries, review.Entry{Actor: pr.Identity(a.User.Username)})
	}
	return entries, nil
}

// ListComments implements review.Activity. System notes ("added 1 commit",
// label changes) are not authored activity and are dropped.
func (c *Client) ListComments(ctx context.Context, req pr.RequestContext) ([]review.Entry, error) {
	list := gl.ListOptions{Page: 1, PerPage: provider.DefaultPerPage}

	var entries []review.Entry
	for {
		notes, resp, err := c.listNotes(ctx, req, list)
		if err != nil {
			return nil, provider.NewStatusError(responseOf(resp), err)
		}
		for _, n := range notes {
			if n == nil || n.System {
				continue
			}
			entries = append(entries, review.Entry{Actor: pr.Identity(n.Author.Username)})
		}
		if resp.NextPage == 0 {
			return entries, nil
		}
		list.Page = resp.NextPage
	}
}

func (c *Client) listNotes(ctx context.Context, req pr.RequestContext, list gl.ListOptions) ([]*gl.Note, *gl.Response, error) {
	if req.Kind == pr.KindIssue {
		return c.api.Notes.ListIssueNotes(req.Repo.String(), int64(req.Number),
			&gl.ListIssueNotesOptions{ListOptions: list}, gl.WithContext(ctx))
	}
	return c.api.Notes.ListMergeRequestNotes(req.Repo.String(), int64(req.Number),
		&gl.ListMergeRequestNotesOptions{ListOptions: list}, gl.WithContext(ctx))
}

// AddLabel implements label.Labeler using the additive add_labels field,
// so labels already on the request are kept.
func (c *Client) AddLabel(ctx context.Context, req pr.RequestContext, name string) error {
	labels := gl.LabelOptions{name}

	var resp *gl.Response
	var err error
	if req.Kind == pr.KindIssue {
		_, resp, err = c.api.Issues.UpdateIssue(req.Repo.String(), int64(req.Number),
			&gl.UpdateIssueOptions{AddLabels: &labels}, gl.WithContext(ctx))
	} else {
		_, resp, err = c.api.MergeRequests.UpdateMergeRequest(req.Repo.String(), int64(req.Number),
			&gl.UpdateMergeRequestOptions{AddLabels: &labels}, gl.WithContext(ctx))
	}
	if err != nil {
		return provider.NewStatusError(responseOf(resp), err)
	}
	return nil
}

func responseOf(resp *gl.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}
