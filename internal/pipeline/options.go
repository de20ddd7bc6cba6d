package pipeline

import (
	"github.com/Iron-Ham/teamlabel/internal/event"
	"github.com/Iron-Ham/teamlabel/internal/logging"
	"go.opentelemetry.io/otel/trace"
)

// RunnerOption configures a Runner.
type RunnerOption func(*runnerConfig)

// WithRunID tags the outcome and lifecycle events with id.
func WithRunID(id string) RunnerOption {
	return func(c *runnerConfig) {
		c.runID = id
	}
}

// WithBus publishes lifecycle events to bus.
func WithBus(bus *event.Bus) RunnerOption {
	return func(c *runnerConfig) {
		c.bus = bus
	}
}

// WithLogger sets the logger for the Runner.
func WithLogger(logger *logging.Logger) RunnerOption {
	return func(c *runnerConfig) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for stage spans.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(c *runnerConfig) {
		c.tracer = tracer
	}
}
