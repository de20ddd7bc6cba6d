package notify

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/event"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// fakeMessenger answers per channel: an error, a panic, or a delay.
type fakeMessenger struct {
	mu       sync.Mutex
	sent     map[string]string
	failures map[string]error
	panics   map[string]bool
	delay    time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		sent:     make(map[string]string),
		failures: make(map[string]error),
		panics:   make(map[string]bool),
	}
}

func (f *fakeMessenger) PostMessage(ctx context.Context, channel, body string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.panics[channel] {
		panic("messenger exploded")
	}
	if err := f.failures[channel]; err != nil {
		return err
	}

	f.mu.Lock()
	f.sent[channel] = body
	f.mu.Unlock()
	return nil
}

func TestDispatch_PartialFailure(t *testing.T) {
	m := newFakeMessenger()
	m.failures["C1"] = fmt.Errorf("channel_not_found")

	report := NewDispatcher(m).Dispatch(context.Background(), Jobs([]string{"C1", "C2"}, "hello"))

	if !slices.Equal(report.Succeeded, []string{"C2"}) {
		t.Errorf("Succeeded = %v, want [C2]", report.Succeeded)
	}
	if len(report.Failed) != 1 || report.Failed["C1"] == nil {
		t.Fatalf("Failed = %v, want C1 only", report.Failed)
	}
	if report.OK() {
		t.Error("OK() should be false with a failed channel")
	}
	if !errors.Is(report.Failed["C1"], errors.ErrNotifyFailed) {
		t.Errorf("failure should match ErrNotifyFailed, got %v", report.Failed["C1"])
	}
	if errors.IsFatal(report.Failed["C1"]) {
		t.Error("notification errors must not be fatal")
	}
	if m.sent["C2"] != "hello" {
		t.Errorf("C2 body = %q", m.sent["C2"])
	}
	if !slices.Equal(report.Channels(), []string{"C1", "C2"}) {
		t.Errorf("Channels() = %v", report.Channels())
	}
}

func TestDispatch_PanicIsolated(t *testing.T) {
	m := newFakeMessenger()
	m.panics["C1"] = true

	report := NewDispatcher(m).Dispatch(context.Background(), Jobs([]string{"C1", "C2", "C3"}, "hi"))

	if !slices.Equal(report.Succeeded, []string{"C2", "C3"}) {
		t.Errorf("Succeeded = %v, want [C2 C3]", report.Succeeded)
	}
	var notifyErr *errors.NotifyError
	if !errors.As(report.Failed["C1"], &notifyErr) || notifyErr.Channel != "C1" {
		t.Errorf("C1 failure = %v, want NotifyError for C1", report.Failed["C1"])
	}
}

func TestDispatch_NoJobs(t *testing.T) {
	report := NewDispatcher(newFakeMessenger()).Dispatch(context.Background(), nil)
	if !report.OK() || len(report.Succeeded) != 0 {
		t.Errorf("empty dispatch report = %+v", report)
	}
}

func TestDispatch_Concurrency(t *testing.T) {
	m := newFakeMessenger()
	m.delay = 20 * time.Millisecond

	channels := []string{"C1", "C2", "C3", "C4", "C5", "C6"}
	report := NewDispatcher(m, WithConcurrency(2)).Dispatch(context.Background(), Jobs(channels, "x"))

	if len(report.Succeeded) != len(channels) {
		t.Fatalf("Succeeded = %v", report.Succeeded)
	}
	if got := m.maxInFlight.Load(); got > 2 {
		t.Errorf("max in-flight sends = %d, want <= 2", got)
	}
}

func TestDispatch_Timeout(t *testing.T) {
	m := newFakeMessenger()
	m.delay = time.Second

	report := NewDispatcher(m, WithTimeout(10*time.Millisecond)).
		Dispatch(context.Background(), Jobs([]string{"C1"}, "slow"))

	err := report.Failed["C1"]
	if err == nil {
		t.Fatal("slow send should fail")
	}
	if !errors.Is(err, errors.ErrTimeout) {
		t.Errorf("error should match ErrTimeout, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("timeouts should be retryable")
	}
}

func TestDispatch_PublishesEvents(t *testing.T) {
	m := newFakeMessenger()
	m.failures["C1"] = fmt.Errorf("not_in_channel")

	bus := event.NewBus()
	var mu sync.Mutex
	var sent, failed []string
	bus.Subscribe(event.TypeNotificationSent, func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, e.(event.NotificationSentEvent).Channel)
	})
	bus.Subscribe(event.TypeNotificationFailed, func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, e.(event.NotificationFailedEvent).Channel)
	})

	NewDispatcher(m, WithBus(bus)).Dispatch(context.Background(), []pr.NotificationJob{
		{Channel: "C1", Body: "a"},
		{Channel: "C2", Body: "b"},
	})

	if !slices.Equal(sent, []string{"C2"}) || !slices.Equal(failed, []string{"C1"}) {
		t.Errorf("sent = %v, failed = %v", sent, failed)
	}
}
