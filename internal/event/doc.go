// Package event provides a synchronous pub-sub bus for run lifecycle events.
//
// The pipeline publishes an event at each stage boundary. Observers such as
// the step summary recorder and the debug logger subscribe to the bus, so
// the pipeline never calls them directly.
//
// # Event Types
//
// Run lifecycle:
//   - [RunStartedEvent]: the triggering request is known
//   - [StageSkippedEvent]: a stage was skipped for missing inputs
//   - [RunCompletedEvent]: the run finished
//
// Decision:
//   - [RosterResolvedEvent], [ParticipantsAggregatedEvent], [DecisionMadeEvent]
//
// Actions:
//   - [LabelAppliedEvent], [ChannelsResolvedEvent]
//   - [NotificationSentEvent], [NotificationFailedEvent]
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers run synchronously on the
// publishing goroutine, and notification events are published from
// dispatcher workers, so handlers must guard their own state.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeLabelApplied, func(e event.Event) {
//	    applied := e.(event.LabelAppliedEvent)
//	    fmt.Println("labeled", applied.Label)
//	})
//	bus.Publish(event.NewLabelAppliedEvent("team-reviewed", false, false))
package event
