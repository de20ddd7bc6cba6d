package trigger

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// MergeRequestEvent is the CI_PIPELINE_SOURCE of a GitLab merge request
// pipeline. It names the event when the pipeline source is not configured.
const MergeRequestEvent = "merge_request_event"

// MergeRequestGetter reads a merge request from the GitLab API.
type MergeRequestGetter interface {
	GetMergeRequest(ctx context.Context, repo pr.Repo, iid int) (pr.RequestContext, error)
}

// GitLabSource locates the merge request of a GitLab CI pipeline. GitLab
// keeps no event payload on disk, so the request is read from the API.
// Labels come from the API as well, since CI_MERGE_REQUEST_LABELS is fixed
// when the pipeline is created and goes stale on a retried job.
type GitLabSource struct {
	// Project is the project path, CI_PROJECT_PATH in GitLab CI
	Project string
	// IID is the merge request IID, CI_MERGE_REQUEST_IID in GitLab CI
	IID int
	// Pipeline is the pipeline source, CI_PIPELINE_SOURCE in GitLab CI
	Pipeline string
}

// Load fetches the merge request through getter. A pipeline without a merge
// request (a branch or tag pipeline) yields ErrNoRequest.
func (s GitLabSource) Load(ctx context.Context, getter MergeRequestGetter) (pr.RequestContext, error) {
	if s.IID <= 0 {
		return pr.RequestContext{}, fmt.Errorf("%w in %s pipeline", ErrNoRequest, s.eventName())
	}
	if s.Project == "" {
		return pr.RequestContext{}, errors.NewValidationError("project path is not set").WithField("repository")
	}
	repo, err := pr.ParseRepo(s.Project)
	if err != nil {
		return pr.RequestContext{}, err
	}

	req, err := getter.GetMergeRequest(ctx, repo, s.IID)
	if err != nil {
		return pr.RequestContext{}, fmt.Errorf("reading merge request !%d: %w", s.IID, err)
	}
	if req.Number == 0 {
		return pr.RequestContext{}, fmt.Errorf("%w in %s pipeline", ErrNoRequest, s.eventName())
	}
	req.EventName = s.eventName()
	return req, nil
}

func (s GitLabSource) eventName() string {
	if s.Pipeline == "" {
		return MergeRequestEvent
	}
	return s.Pipeline
}
