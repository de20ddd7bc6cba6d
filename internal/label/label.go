//go:generate go run go.uber.org/mock/mockgen -source=label.go -destination=../mocks/mock_labeler.go -package=mocks

// Package label attaches the team label to a request.
package label

import (
	"context"
	"strings"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/logging"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// Labeler adds a label on the hosting service.
type Labeler interface {
	AddLabel(ctx context.Context, req pr.RequestContext, name string) error
}

// Result describes what Apply did.
type Result struct {
	Label string
	// AlreadyPresent is true when the label was attached before the run and
	// no service call was made
	AlreadyPresent bool
	// DryRun is true when the call was skipped by configuration
	DryRun bool
}

// Applier applies a label at most once.
type Applier struct {
	labeler Labeler
	dryRun  bool
	logger  *logging.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithDryRun skips the service call and reports what would have happened.
func WithDryRun(dryRun bool) Option {
	return func(a *Applier) {
		a.dryRun = dryRun
	}
}

// WithLogger sets the logger for the Applier.
func WithLogger(logger *logging.Logger) Option {
	return func(a *Applier) {
		a.logger = logger
	}
}

// NewApplier creates an Applier backed by labeler.
func NewApplier(labeler Labeler, opts ...Option) *Applier {
	a := &Applier{labeler: labeler}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NopLogger()
	}
	return a
}

// Apply attaches name to req. A label that is already attached is a
// successful no-op. Service failures are a *errors.LabelError.
func (a *Applier) Apply(ctx context.Context, req pr.RequestContext, name string) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, errors.NewLabelError("label name is empty", errors.ErrInvalidInput).
			WithRequest(req.Number)
	}

	result := Result{Label: name}
	if req.HasLabel(name) {
		result.AlreadyPresent = true
		a.logger.Info("label already present", "label", name)
		return result, nil
	}

	if a.dryRun {
		result.DryRun = true
		a.logger.Info("dry run: label not applied", "label", name)
		return result, nil
	}

	if err := a.labeler.AddLabel(ctx, req, name); err != nil {
		return result, errors.NewLabelError("adding label", err).
			WithRequest(req.Number).WithLabel(name)
	}

	a.logger.Info("label applied", "label", name)
	return result, nil
}
