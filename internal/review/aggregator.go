//go:generate go run go.uber.org/mock/mockgen -source=aggregator.go -destination=../mocks/mock_activity.go -package=mocks

package review

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/logging"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// Activity sources, used in ActivityError.Source.
const (
	SourceReviews  = "reviews"
	SourceComments = "comments"
)

// Entry is one review or comment. Only the actor matters for aggregation.
type Entry struct {
	Actor pr.Identity
}

// Activity lists the reviews and comments on a request. Implementations
// return every page. ListReviews returns nil for issues.
type Activity interface {
	ListReviews(ctx context.Context, req pr.RequestContext) ([]Entry, error)
	ListComments(ctx context.Context, req pr.RequestContext) ([]Entry, error)
}

// Aggregator builds the participant set of a request.
type Aggregator struct {
	activity   Activity
	ignoreBots bool
	logger     *logging.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithIgnoreBots drops "[bot]" accounts from the participant set.
func WithIgnoreBots(ignore bool) Option {
	return func(a *Aggregator) {
		a.ignoreBots = ignore
	}
}

// WithLogger sets the logger for the Aggregator.
func WithLogger(logger *logging.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an Aggregator reading from activity.
func NewAggregator(activity Activity, opts ...Option) *Aggregator {
	a := &Aggregator{activity: activity}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NopLogger()
	}
	return a
}

// Aggregate returns the distinct actors across reviews and comments with
// exclude removed. The result does not depend on the order entries are
// returned in. A failure of either source is a *errors.ActivityError and
// cancels the other fetch.
func (a *Aggregator) Aggregate(ctx context.Context, req pr.RequestContext, exclude pr.Identity) (pr.IdentitySet, error) {
	var reviews, comments []Entry

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		reviews, err = a.activity.ListReviews(ctx, req)
		if err != nil {
			return errors.NewActivityError("listing reviews", err).
				WithRequest(req.Number).WithSource(SourceReviews)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		comments, err = a.activity.ListComments(ctx, req)
		if err != nil {
			return errors.NewActivityError("listing comments", err).
				WithRequest(req.Number).WithSource(SourceComments)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	actors := lo.Uniq(append(actorsOf(reviews), actorsOf(comments)...))
	actors = lo.Filter(actors, func(id pr.Identity, _ int) bool {
		if id == "" || id == exclude {
			return false
		}
		return !(a.ignoreBots && IsBot(id))
	})

	participants := pr.NewIdentitySet(actors...)
	a.logger.Debug("participants aggregated",
		"reviews", len(reviews),
		"comments", len(comments),
		"participants", participants.Len(),
	)
	return participants, nil
}

func actorsOf(entries []Entry) []pr.Identity {
	return lo.Map(entries, func(e Entry, _ int) pr.Identity {
		return e.Actor
	})
}

// IsBot reports whether id is an app or bot account.
func IsBot(id pr.Identity) bool {
	return strings.HasSuffix(string(id), "[bot]")
}
