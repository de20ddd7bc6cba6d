// Package pipeline runs one teamlabel decision for one request.
//
// A run has a fixed shape:
//
//	roster ─┐
//	        ├─ decide ─ label ─ channels ─ dispatch
//	activity┘
//
// The roster and the participant set are fetched concurrently and joined
// at a single barrier. [Decide] is pure. The label is applied at most once
// and only on a positive decision. Channels are resolved on every run, so
// the outcome always shows where a notification would go, but messages are
// only sent on a positive decision.
//
// Each stage publishes an [event] on the bus and runs inside its own trace
// span. Roster, activity and label failures end the run; a malformed channel
// map degrades it; notification failures are only reported.
package pipeline
