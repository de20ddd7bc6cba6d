//go:generate go run go.uber.org/mock/mockgen -source=dispatcher.go -destination=../mocks/mock_messenger.go -package=mocks

package notify

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/event"
	"github.com/Iron-Ham/teamlabel/internal/logging"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// Messenger posts a message to one channel.
type Messenger interface {
	PostMessage(ctx context.Context, channel, body string) error
}

// Report is the outcome of a fan-out. Every dispatched channel appears in
// exactly one of Succeeded or Failed.
type Report struct {
	Succeeded []string
	Failed    map[string]error
}

// OK reports whether every channel succeeded.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// Channels returns every dispatched channel, sorted.
func (r Report) Channels() []string {
	all := slices.Concat(r.Succeeded, slices.Collect(maps.Keys(r.Failed)))
	slices.Sort(all)
	return all
}

// FailedChannels returns the failed channels, sorted.
func (r Report) FailedChannels() []string {
	return slices.Sorted(maps.Keys(r.Failed))
}

// Dispatcher sends notification jobs concurrently.
type Dispatcher struct {
	messenger   Messenger
	concurrency int
	timeout     time.Duration
	bus         *event.Bus
	logger      *logging.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithConcurrency bounds in-flight sends. Zero or negative is unbounded.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.concurrency = n
	}
}

// WithTimeout bounds each send. Zero leaves only the caller's deadline.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithBus publishes a notification event per channel.
func WithBus(bus *event.Bus) DispatcherOption {
	return func(d *Dispatcher) {
		d.bus = bus
	}
}

// WithLogger sets the logger for the Dispatcher.
func WithLogger(logger *logging.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher sending through messenger.
func NewDispatcher(messenger Messenger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{messenger: messenger}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.NopLogger()
	}
	return d
}

type outcome struct {
	channel string
	err     error
}

// Dispatch sends every job and returns once all of them have settled. A
// failing or panicking send is recorded against its channel only.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs []pr.NotificationJob) Report {
	p := pool.NewWithResults[outcome]()
	if d.concurrency > 0 {
		p = p.WithMaxGoroutines(d.concurrency)
	}

	for _, job := range jobs {
		p.Go(func() outcome {
			return outcome{channel: job.Channel, err: d.send(ctx, job)}
		})
	}

	report := Report{Failed: make(map[string]error)}
	for _, o := range p.Wait() {
		if o.err != nil {
			report.Failed[o.channel] = o.err
			continue
		}
		report.Succeeded = append(report.Succeeded, o.channel)
	}
	slices.Sort(report.Succeeded)
	return report
}

func (d *Dispatcher) send(ctx context.Context, job pr.NotificationJob) error {
	logger := d.logger.With("channel", job.Channel)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var sendErr error
	var pc panics.Catcher
	pc.Try(func() {
		sendErr = d.messenger.PostMessage(ctx, job.Channel, job.Body)
	})

	err := sendErr
	if recovered := pc.Recovered(); recovered != nil {
		err = fmt.Errorf("send panicked: %w", recovered.AsError())
	} else if err != nil && d.timeout > 0 && ctx.Err() == context.DeadlineExceeded {
		err = errors.NewTimeoutError("post message", d.timeout).WithCause(err)
	}

	if err != nil {
		notifyErr := errors.NewNotifyError("posting message", err).WithChannel(job.Channel)
		logger.Warn("notification failed", "error", notifyErr.Error())
		d.bus.Publish(event.NewNotificationFailedEvent(job.Channel, notifyErr))
		return notifyErr
	}

	logger.Info("notification sent")
	d.bus.Publish(event.NewNotificationSentEvent(job.Channel))
	return nil
}
