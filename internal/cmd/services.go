package cmd

import (
	"fmt"

	"github.com/Iron-Ham/teamlabel/internal/config"
	"github.com/Iron-Ham/teamlabel/internal/label"
	"github.com/Iron-Ham/teamlabel/internal/notify"
	"github.com/Iron-Ham/teamlabel/internal/provider/github"
	"github.com/Iron-Ham/teamlabel/internal/provider/gitlab"
	"github.com/Iron-Ham/teamlabel/internal/provider/slack"
	"github.com/Iron-Ham/teamlabel/internal/review"
	"github.com/Iron-Ham/teamlabel/internal/team"
)

// services are the external collaborators of a run. Reads use the access
// token and labeling uses the repo token; the two are never swapped.
type services struct {
	directory team.Directory
	activity  review.Activity
	// labeler is nil when the label stage is skipped
	labeler label.Labeler
	// messenger is nil when the notify stage is skipped
	messenger notify.Messenger
}

type hostClient interface {
	team.Directory
	review.Activity
	label.Labeler
}

func newServices(cfg *config.Config, stages config.Stages) (services, error) {
	var svc services

	reader, err := newHostClient(cfg, cfg.AccessToken)
	if err != nil {
		return svc, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}
	svc.directory = reader
	svc.activity = reader

	if stages.Label.Enabled {
		writer, err := newHostClient(cfg, cfg.RepoToken)
		if err != nil {
			return svc, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
		}
		svc.labeler = writer
	}

	if stages.Notify.Enabled {
		svc.messenger = slack.NewMessenger(cfg.SlackBearerToken, slack.WithAPIURL(cfg.SlackAPIURL))
	}
	return svc, nil
}

func newHostClient(cfg *config.Config, token string) (hostClient, error) {
	switch cfg.Provider {
	case config.ProviderGitLab:
		return gitlab.NewClient(token, gitlab.WithBaseURL(cfg.APIURL))
	default:
		return github.NewClient(token, github.WithBaseURL(cfg.APIURL))
	}
}
