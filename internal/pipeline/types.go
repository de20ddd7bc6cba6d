package pipeline

import (
	"time"

	"github.com/Iron-Ham/teamlabel/internal/event"
	"github.com/Iron-Ham/teamlabel/internal/label"
	"github.com/Iron-Ham/teamlabel/internal/logging"
	"github.com/Iron-Ham/teamlabel/internal/notify"
	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/Iron-Ham/teamlabel/internal/review"
	"github.com/Iron-Ham/teamlabel/internal/team"
	"go.opentelemetry.io/otel/trace"
)

// RunnerConfig holds the collaborators and settings of a Runner. Roster and
// Participants are required. A nil Applier skips the label stage and a nil
// Dispatcher skips sending.
type RunnerConfig struct {
	Roster       *team.Resolver
	Participants *review.Aggregator
	Applier      *label.Applier
	Dispatcher   *notify.Dispatcher
	Messages     *notify.MessageBuilder

	Team  string // Team identifier passed to the roster resolver
	Label string // Label applied on a positive decision

	// ChannelMap is the raw label to channel table, parsed on every run
	ChannelMap any
	// GlobChannels enables glob keys in the channel map
	GlobChannels bool
	// StrictChannelMap fails the run, after labeling, when the map is malformed
	StrictChannelMap bool
	// DryRun resolves channels but never sends
	DryRun bool
}

// Outcome is everything a run decided and did.
type Outcome struct {
	RunID        string
	Request      pr.RequestContext
	Roster       pr.IdentitySet
	Participants pr.IdentitySet
	Participated bool
	// Actors are the team members who reviewed or commented, sorted
	Actors []string

	// Label is nil when the label stage did not run
	Label *label.Result
	// Channels are the channels resolved from the labels after labeling
	Channels []string
	// ChannelMapErr is set when the channel map could not be parsed
	ChannelMapErr error
	// Report is nil when no notification was dispatched
	Report *notify.Report

	Duration time.Duration
}

// Notified reports whether a dispatch happened.
func (o Outcome) Notified() bool {
	return o.Report != nil
}

// runnerConfig holds optional settings for the Runner.
type runnerConfig struct {
	runID  string
	bus    *event.Bus
	logger *logging.Logger
	tracer trace.Tracer
}
