package event

import (
	"time"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "run.started", "label.applied")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event types
const (
	TypeRunStarted             = "run.started"
	TypeStageSkipped           = "stage.skipped"
	TypeRosterResolved         = "roster.resolved"
	TypeParticipantsAggregated = "participants.aggregated"
	TypeDecisionMade           = "decision.made"
	TypeLabelApplied           = "label.applied"
	TypeChannelsResolved       = "channels.resolved"
	TypeNotificationSent       = "notification.sent"
	TypeNotificationFailed     = "notification.failed"
	TypeRunCompleted           = "run.completed"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Run Lifecycle Events
// -----------------------------------------------------------------------------

// RunStartedEvent is emitted once the triggering request is known.
type RunStartedEvent struct {
	baseEvent
	RunID     string
	Repo      string
	Number    int
	EventName string
}

// NewRunStartedEvent creates a RunStartedEvent.
func NewRunStartedEvent(runID, repo string, number int, eventName string) RunStartedEvent {
	return RunStartedEvent{
		baseEvent: newBaseEvent(TypeRunStarted),
		RunID:     runID,
		Repo:      repo,
		Number:    number,
		EventName: eventName,
	}
}

// StageSkippedEvent is emitted when a stage lacks its inputs.
type StageSkippedEvent struct {
	baseEvent
	Stage   string
	Missing []string
}

// NewStageSkippedEvent creates a StageSkippedEvent.
func NewStageSkippedEvent(stage string, missing []string) StageSkippedEvent {
	return StageSkippedEvent{
		baseEvent: newBaseEvent(TypeStageSkipped),
		Stage:     stage,
		Missing:   missing,
	}
}

// RunCompletedEvent is emitted when the run finishes, successfully or not.
type RunCompletedEvent struct {
	baseEvent
	RunID    string
	Success  bool
	Err      error
	Duration time.Duration
}

// NewRunCompletedEvent creates a RunCompletedEvent.
func NewRunCompletedEvent(runID string, err error, duration time.Duration) RunCompletedEvent {
	return RunCompletedEvent{
		baseEvent: newBaseEvent(TypeRunCompleted),
		RunID:     runID,
		Success:   err == nil,
		Err:       err,
		Duration:  duration,
	}
}

// -----------------------------------------------------------------------------
// Decision Events
// -----------------------------------------------------------------------------

// RosterResolvedEvent is emitted after the team roster is fetched.
type RosterResolvedEvent struct {
	baseEvent
	Team string
	Size int
}

// NewRosterResolvedEvent creates a RosterResolvedEvent.
func NewRosterResolvedEvent(team string, size int) RosterResolvedEvent {
	return RosterResolvedEvent{
		baseEvent: newBaseEvent(TypeRosterResolved),
		Team:      team,
		Size:      size,
	}
}

// ParticipantsAggregatedEvent is emitted after reviewers and commenters are merged.
type ParticipantsAggregatedEvent struct {
	baseEvent
	Count int
}

// NewParticipantsAggregatedEvent creates a ParticipantsAggregatedEvent.
func NewParticipantsAggregatedEvent(count int) ParticipantsAggregatedEvent {
	return ParticipantsAggregatedEvent{
		baseEvent: newBaseEvent(TypeParticipantsAggregated),
		Count:     count,
	}
}

// DecisionMadeEvent carries the team-participation decision.
type DecisionMadeEvent struct {
	baseEvent
	Participated bool
	// Actors are the team members who acted, sorted
	Actors []string
}

// NewDecisionMadeEvent creates a DecisionMadeEvent.
func NewDecisionMadeEvent(participated bool, actors []string) DecisionMadeEvent {
	return DecisionMadeEvent{
		baseEvent:    newBaseEvent(TypeDecisionMade),
		Participated: participated,
		Actors:       actors,
	}
}

// -----------------------------------------------------------------------------
// Action Events
// -----------------------------------------------------------------------------

// LabelAppliedEvent is emitted after the label step, including when the
// label was already present and no call was made.
type LabelAppliedEvent struct {
	baseEvent
	Label          string
	AlreadyPresent bool
	DryRun         bool
}

// NewLabelAppliedEvent creates a LabelAppliedEvent.
func NewLabelAppliedEvent(label string, alreadyPresent, dryRun bool) LabelAppliedEvent {
	return LabelAppliedEvent{
		baseEvent:      newBaseEvent(TypeLabelApplied),
		Label:          label,
		AlreadyPresent: alreadyPresent,
		DryRun:         dryRun,
	}
}

// ChannelsResolvedEvent is emitted after the channel map is matched
// against the request labels.
type ChannelsResolvedEvent struct {
	baseEvent
	Channels []string
	// MapErr is set when the channel map could not be parsed
	MapErr error
}

// NewChannelsResolvedEvent creates a ChannelsResolvedEvent.
func NewChannelsResolvedEvent(channels []string, mapErr error) ChannelsResolvedEvent {
	return ChannelsResolvedEvent{
		baseEvent: newBaseEvent(TypeChannelsResolved),
		Channels:  channels,
		MapErr:    mapErr,
	}
}

// NotificationSentEvent is emitted for each channel that accepted the message.
type NotificationSentEvent struct {
	baseEvent
	Channel string
}

// NewNotificationSentEvent creates a NotificationSentEvent.
func NewNotificationSentEvent(channel string) NotificationSentEvent {
	return NotificationSentEvent{
		baseEvent: newBaseEvent(TypeNotificationSent),
		Channel:   channel,
	}
}

// NotificationFailedEvent is emitted for each channel whose send failed.
type NotificationFailedEvent struct {
	baseEvent
	Channel string
	Err     error
}

// NewNotificationFailedEvent creates a NotificationFailedEvent.
func NewNotificationFailedEvent(channel string, err error) NotificationFailedEvent {
	return NotificationFailedEvent{
		baseEvent: newBaseEvent(TypeNotificationFailed),
		Channel:   channel,
		Err:       err,
	}
}
