// Package summary records a run from its lifecycle events and renders it
// for the console and for the job summary page of a workflow run.
package summary

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Iron-Ham/teamlabel/internal/event"
)

// Run is everything the summary shows about one run. Fields stay at their
// zero value for stages that never reported.
type Run struct {
	RunID     string
	Repo      string
	Number    int
	EventName string

	Skipped map[string][]string

	Team         string
	RosterSize   int
	Participants int
	Decided      bool
	Participated bool
	Actors       []string

	Label         string
	LabelPresent  bool
	LabelDryRun   bool
	Channels      []string
	ChannelMapErr error
	Sent          []string
	Failed        map[string]error
	Completed     bool
	Err           error
	Duration      time.Duration
}

// Recorder builds a Run from bus events. It is safe for concurrent use;
// notification events arrive from the dispatcher's workers.
type Recorder struct {
	mu  sync.Mutex
	run Run
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{run: Run{
		Skipped: make(map[string][]string),
		Failed:  make(map[string]error),
	}}
}

// Attach subscribes the recorder to every event on bus and returns a
// function that removes the subscription.
func (r *Recorder) Attach(bus *event.Bus) func() {
	id := bus.SubscribeAll(r.Record)
	return func() { bus.Unsubscribe(id) }
}

// Record folds one event into the run.
func (r *Recorder) Record(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev := e.(type) {
	case event.RunStartedEvent:
		r.run.RunID = ev.RunID
		r.run.Repo = ev.Repo
		r.run.Number = ev.Number
		r.run.EventName = ev.EventName
	case event.StageSkippedEvent:
		r.run.Skipped[ev.Stage] = ev.Missing
	case event.RosterResolvedEvent:
		r.run.Team = ev.Team
		r.run.RosterSize = ev.Size
	case event.ParticipantsAggregatedEvent:
		r.run.Participants = ev.Count
	case event.DecisionMadeEvent:
		r.run.Decided = true
		r.run.Participated = ev.Participated
		r.run.Actors = ev.Actors
	case event.LabelAppliedEvent:
		r.run.Label = ev.Label
		r.run.LabelPresent = ev.AlreadyPresent
		r.run.LabelDryRun = ev.DryRun
	case event.ChannelsResolvedEvent:
		r.run.Channels = ev.Channels
		r.run.ChannelMapErr = ev.MapErr
	case event.NotificationSentEvent:
		r.run.Sent = append(r.run.Sent, ev.Channel)
	case event.NotificationFailedEvent:
		r.run.Failed[ev.Channel] = ev.Err
	case event.RunCompletedEvent:
		r.run.Completed = true
		r.run.Err = ev.Err
		r.run.Duration = ev.Duration
	}
}

// Run returns a snapshot of the recorded run.
func (r *Recorder) Run() Run {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.run
	out.Skipped = maps.Clone(r.run.Skipped)
	out.Failed = maps.Clone(r.run.Failed)
	out.Actors = slices.Clone(r.run.Actors)
	out.Channels = slices.Clone(r.run.Channels)
	out.Sent = slices.Sorted(slices.Values(r.run.Sent))
	return out
}
