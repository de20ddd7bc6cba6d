package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/event"
	"github.com/Iron-Ham/teamlabel/internal/label"
	"github.com/Iron-Ham/teamlabel/internal/mocks"
	"github.com/Iron-Ham/teamlabel/internal/notify"
	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/Iron-Ham/teamlabel/internal/review"
	"github.com/Iron-Ham/teamlabel/internal/team"
)

type collaborators struct {
	directory *mocks.MockDirectory
	activity  *mocks.MockActivity
	labeler   *mocks.MockLabeler
	messenger *mocks.MockMessenger
}

func newCollaborators(t *testing.T) collaborators {
	ctrl := gomock.NewController(t)
	return collaborators{
		directory: mocks.NewMockDirectory(ctrl),
		activity:  mocks.NewMockActivity(ctrl),
		labeler:   mocks.NewMockLabeler(ctrl),
		messenger: mocks.NewMockMessenger(ctrl),
	}
}

func (c collaborators) config(t *testing.T, channelMap any) RunnerConfig {
	messages, err := notify.NewMessageBuilder("", "acme/reviewers")
	require.NoError(t, err)
	return RunnerConfig{
		Roster:       team.NewResolver(c.directory, team.WithDefaultOrg("acme")),
		Participants: review.NewAggregator(c.activity),
		Applier:      label.NewApplier(c.labeler),
		Dispatcher:   notify.NewDispatcher(c.messenger),
		Messages:     messages,
		Team:         "reviewers",
		Label:        "team-reviewed",
		ChannelMap:   channelMap,
	}
}

func entries(ids ...pr.Identity) []review.Entry {
	out := make([]review.Entry, len(ids))
	for i, id := range ids {
		out[i] = review.Entry{Actor: id}
	}
	return out
}

func request(author pr.Identity, labels ...string) pr.RequestContext {
	req := pr.RequestContext{
		Number: 42,
		Author: author,
		URL:    "https://github.com/acme/app/pull/42",
		Title:  "Add retries",
		Repo:   pr.Repo{Owner: "acme", Name: "app"},
		Kind:   pr.KindPullRequest,
	}
	for _, l := range labels {
		req.Labels = append(req.Labels, pr.Label{Name: l})
	}
	return req
}

var reviewersID = team.ID{Org: "acme", Slug: "reviewers"}

func TestNewRunner_Validation(t *testing.T) {
	c := newCollaborators(t)
	full := c.config(t, nil)

	tests := []struct {
		name    string
		mutate  func(*RunnerConfig)
		wantErr string
	}{
		{"missing roster", func(cfg *RunnerConfig) { cfg.Roster = nil }, "Roster is required"},
		{"missing participants", func(cfg *RunnerConfig) { cfg.Participants = nil }, "Participants is required"},
		{"dispatcher without messages", func(cfg *RunnerConfig) { cfg.Messages = nil }, "Messages is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mutate(&cfg)
			_, err := NewRunner(cfg)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// roster {alice,bob}, reviewers {carol}, comments {bob}, author dave.
func TestRun_TeamMemberCommented(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)
	pull := request("dave", "urgent")

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), reviewersID).
		Return([]pr.Identity{"alice", "bob"}, nil).Times(1)
	c.activity.EXPECT().ListReviews(gomock.Any(), pull).Return(entries("carol"), nil).Times(1)
	c.activity.EXPECT().ListComments(gomock.Any(), pull).Return(entries("bob"), nil).Times(1)
	c.labeler.EXPECT().AddLabel(gomock.Any(), pull, "team-reviewed").Return(nil).Times(1)
	c.messenger.EXPECT().PostMessage(gomock.Any(), "C123", gomock.Any()).
		Do(func(_ context.Context, _ string, body string) {
			req.Contains(body, "acme/app#42")
			req.Contains(body, "(bob)")
		}).Return(nil).Times(1)

	runner, err := NewRunner(c.config(t, `{"urgent":"C123","bug":"C456"}`), WithRunID("run-1"))
	req.NoError(err)

	out, err := runner.Run(context.Background(), pull)
	req.NoError(err)
	req.Equal([]string{"bob", "carol"}, out.Participants.Strings())
	req.True(out.Participated)
	req.Equal([]string{"bob"}, out.Actors)
	req.NotNil(out.Label)
	req.False(out.Label.AlreadyPresent)
	req.Equal([]string{"C123"}, out.Channels)
	req.NotNil(out.Report)
	req.Equal([]string{"C123"}, out.Report.Succeeded)
	req.Equal("run-1", out.RunID)
}

// roster {alice}, comments {alice}, author alice.
func TestRun_OnlyAuthorActed(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)
	pull := request("alice", "urgent")

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), reviewersID).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), pull).Return(nil, nil)
	c.activity.EXPECT().ListComments(gomock.Any(), pull).Return(entries("alice"), nil)
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	c.messenger.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	runner, err := NewRunner(c.config(t, `{"urgent":"C123"}`))
	req.NoError(err)

	out, err := runner.Run(context.Background(), pull)
	req.NoError(err)
	req.Equal(0, out.Participants.Len())
	req.False(out.Participated)
	req.Nil(out.Label)
	req.Equal([]string{"C123"}, out.Channels, "channels are resolved even without a decision")
	req.False(out.Notified())
}

func TestRun_NoMappedChannel(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)
	pull := request("dave", "bug")

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), "team-reviewed").Return(nil)
	c.messenger.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	runner, err := NewRunner(c.config(t, `{"urgent":"C123"}`))
	req.NoError(err)

	out, err := runner.Run(context.Background(), pull)
	req.NoError(err)
	req.True(out.Participated)
	req.Empty(out.Channels)
	req.False(out.Notified(), "dispatcher must not be invoked without channels")
}

func TestRun_AppliedLabelSelectsChannel(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)
	pull := request("dave")

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), "team-reviewed").Return(nil)
	c.messenger.EXPECT().PostMessage(gomock.Any(), "C-team", gomock.Any()).Return(nil)

	runner, err := NewRunner(c.config(t, map[string]any{"team-reviewed": "C-team"}))
	req.NoError(err)

	out, err := runner.Run(context.Background(), pull)
	req.NoError(err)
	req.Equal([]string{"C-team"}, out.Channels)
}

func TestRun_LabelAlreadyPresent(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)
	pull := request("dave", "team-reviewed")

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	runner, err := NewRunner(c.config(t, ""))
	req.NoError(err)

	out, err := runner.Run(context.Background(), pull)
	req.NoError(err)
	req.NotNil(out.Label)
	req.True(out.Label.AlreadyPresent)
}

func TestRun_PartialNotificationFailure(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)
	pull := request("dave", "urgent", "bug")

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	c.messenger.EXPECT().PostMessage(gomock.Any(), "C1", gomock.Any()).Return(fmt.Errorf("channel_not_found"))
	c.messenger.EXPECT().PostMessage(gomock.Any(), "C2", gomock.Any()).Return(nil)

	runner, err := NewRunner(c.config(t, `{"urgent":"C1","bug":"C2"}`))
	req.NoError(err)

	out, err := runner.Run(context.Background(), pull)
	req.NoError(err, "notification failures must not fail the run")
	req.NotNil(out.Report)
	req.Equal([]string{"C2"}, out.Report.Succeeded)
	req.Len(out.Report.Failed, 1)
	req.ErrorIs(out.Report.Failed["C1"], errors.ErrNotifyFailed)
}

func TestRun_RosterFailureIsFatal(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("404 Not Found"))
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	runner, err := NewRunner(c.config(t, nil))
	req.NoError(err)

	_, err = runner.Run(context.Background(), request("dave"))
	req.ErrorIs(err, errors.ErrRosterUnavailable)
	req.True(errors.IsFatal(err))
}

func TestRun_ActivityFailureIsFatal(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil).AnyTimes()
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("502 Bad Gateway"))
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	runner, err := NewRunner(c.config(t, nil))
	req.NoError(err)

	_, err = runner.Run(context.Background(), request("dave"))
	req.ErrorIs(err, errors.ErrActivityUnavailable)
}

func TestRun_LabelFailureIsFatal(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("403 Forbidden"))
	c.messenger.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	runner, err := NewRunner(c.config(t, `{"team-reviewed":"C1"}`))
	req.NoError(err)

	_, err = runner.Run(context.Background(), request("dave"))
	req.ErrorIs(err, errors.ErrLabelApplyFailed)
}

func TestRun_MalformedChannelMap(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		wantErr bool
	}{
		{name: "degrades by default", strict: false, wantErr: false},
		{name: "fails when strict", strict: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			c := newCollaborators(t)

			c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
			c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
			c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)
			c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
			c.messenger.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			cfg := c.config(t, `{"urgent": 5}`)
			cfg.StrictChannelMap = tt.strict
			runner, err := NewRunner(cfg)
			req.NoError(err)

			out, err := runner.Run(context.Background(), request("dave", "urgent"))
			req.ErrorIs(out.ChannelMapErr, errors.ErrChannelMapInvalid)
			req.NotNil(out.Label, "labeling completes before the channel map is judged")
			if tt.wantErr {
				req.ErrorIs(err, errors.ErrChannelMapInvalid)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestRun_DryRun(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	c.messenger.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	cfg := c.config(t, `{"team-reviewed":"C1"}`)
	cfg.Applier = label.NewApplier(c.labeler, label.WithDryRun(true))
	cfg.DryRun = true
	runner, err := NewRunner(cfg)
	req.NoError(err)

	out, err := runner.Run(context.Background(), request("dave"))
	req.NoError(err)
	req.True(out.Label.DryRun)
	req.Equal([]string{"C1"}, out.Channels)
	req.False(out.Notified())
}

func TestRun_StagesSkipped(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)

	cfg := c.config(t, `{"urgent":"C1"}`)
	cfg.Applier = nil
	cfg.Dispatcher = nil
	runner, err := NewRunner(cfg)
	req.NoError(err)

	out, err := runner.Run(context.Background(), request("dave", "urgent"))
	req.NoError(err)
	req.True(out.Participated)
	req.Nil(out.Label)
	req.Equal([]string{"C1"}, out.Channels)
	req.False(out.Notified())
}

func TestRun_PublishesLifecycle(t *testing.T) {
	req := require.New(t)
	c := newCollaborators(t)

	c.directory.EXPECT().ListTeamMembers(gomock.Any(), gomock.Any()).Return([]pr.Identity{"alice"}, nil)
	c.activity.EXPECT().ListReviews(gomock.Any(), gomock.Any()).Return(entries("alice"), nil)
	c.activity.EXPECT().ListComments(gomock.Any(), gomock.Any()).Return(nil, nil)
	c.labeler.EXPECT().AddLabel(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	c.messenger.EXPECT().PostMessage(gomock.Any(), "C1", gomock.Any()).Return(nil)

	bus := event.NewBus()
	var mu sync.Mutex
	seen := make(map[string]int)
	bus.SubscribeAll(func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen[e.EventType()]++
	})

	cfg := c.config(t, `{"team-reviewed":"C1"}`)
	cfg.Dispatcher = notify.NewDispatcher(c.messenger, notify.WithBus(bus))
	runner, err := NewRunner(cfg, WithBus(bus), WithRunID("run-7"))
	req.NoError(err)

	_, err = runner.Run(context.Background(), request("dave"))
	req.NoError(err)

	for _, typ := range []string{
		event.TypeRunStarted,
		event.TypeRosterResolved,
		event.TypeParticipantsAggregated,
		event.TypeDecisionMade,
		event.TypeLabelApplied,
		event.TypeChannelsResolved,
		event.TypeNotificationSent,
		event.TypeRunCompleted,
	} {
		req.Equal(1, seen[typ], "event %s", typ)
	}
}
