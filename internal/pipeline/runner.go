package pipeline

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/event"
	"github.com/Iron-Ham/teamlabel/internal/logging"
	"github.com/Iron-Ham/teamlabel/internal/notify"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// Runner executes the decision pipeline for a single request.
type Runner struct {
	cfg  RunnerConfig
	opts runnerConfig
}

// NewRunner creates a Runner with the given configuration and options.
func NewRunner(cfg RunnerConfig, opts ...RunnerOption) (*Runner, error) {
	if cfg.Roster == nil {
		return nil, errors.New("pipeline: Roster is required")
	}
	if cfg.Participants == nil {
		return nil, errors.New("pipeline: Participants is required")
	}
	if cfg.Dispatcher != nil && cfg.Messages == nil {
		return nil, errors.New("pipeline: Messages is required with a Dispatcher")
	}

	rc := runnerConfig{}
	for _, opt := range opts {
		opt(&rc)
	}
	if rc.logger == nil {
		rc.logger = logging.NopLogger()
	}
	if rc.tracer == nil {
		rc.tracer = noop.NewTracerProvider().Tracer("")
	}

	return &Runner{cfg: cfg, opts: rc}, nil
}

// Run decides whether the team acted on req and performs the label and
// notification side effects. The returned error is non-nil only for fatal
// failures, or for a malformed channel map under StrictChannelMap; the
// outcome is populated as far as the run got either way.
func (r *Runner) Run(ctx context.Context, req pr.RequestContext) (out Outcome, err error) {
	start := time.Now()
	out = Outcome{RunID: r.opts.runID, Request: req}
	logger := r.opts.logger

	ctx, span := r.opts.tracer.Start(ctx, "teamlabel.run", trace.WithAttributes(
		attribute.String("teamlabel.run_id", r.opts.runID),
		attribute.String("teamlabel.repo", req.Repo.String()),
		attribute.Int("teamlabel.request", req.Number),
		attribute.String("teamlabel.team", r.cfg.Team),
	))
	defer func() {
		out.Duration = time.Since(start)
		endSpan(span, err)
		r.publish(event.NewRunCompletedEvent(r.opts.runID, err, out.Duration))
	}()

	r.publish(event.NewRunStartedEvent(r.opts.runID, req.Repo.String(), req.Number, req.EventName))

	out.Roster, out.Participants, err = r.gather(ctx, req)
	if err != nil {
		logger.Ctx(ctx).Error("run failed", "error", err.Error())
		return out, err
	}

	out.Participated = Decide(out.Roster, out.Participants)
	out.Actors = Actors(out.Roster, out.Participants)
	span.SetAttributes(attribute.Bool("teamlabel.participated", out.Participated))
	r.publish(event.NewDecisionMadeEvent(out.Participated, out.Actors))
	logger.Ctx(ctx).Info("decision made",
		"participated", out.Participated,
		"actors", out.Actors,
		"roster", out.Roster.Len(),
		"participants", out.Participants.Len(),
	)

	labeled := req
	if out.Participated {
		labeled, err = r.applyLabel(ctx, req, &out)
		if err != nil {
			logger.Ctx(ctx).Error("run failed", "error", err.Error())
			return out, err
		}
	}

	out.Channels, out.ChannelMapErr = r.resolveChannels(ctx, labeled)

	if out.Participated && len(out.Channels) > 0 {
		out.Report = r.dispatch(ctx, labeled, out)
	}

	if out.ChannelMapErr != nil && r.cfg.StrictChannelMap {
		err = out.ChannelMapErr
		logger.Ctx(ctx).Error("run failed", "error", err.Error(), "strict_channel_map", true)
		return out, err
	}
	return out, nil
}

// gather resolves the roster and the participant set concurrently. The
// first failure cancels the other branch.
func (r *Runner) gather(ctx context.Context, req pr.RequestContext) (pr.IdentitySet, pr.IdentitySet, error) {
	var roster, participants pr.IdentitySet

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		ctx, span := r.opts.tracer.Start(ctx, "teamlabel.roster")
		var err error
		defer func() { endSpan(span, err) }()

		roster, err = r.cfg.Roster.Resolve(ctx, r.cfg.Team)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("teamlabel.roster.size", roster.Len()))
		r.publish(event.NewRosterResolvedEvent(r.cfg.Team, roster.Len()))
		return nil
	})
	p.Go(func(ctx context.Context) error {
		ctx, span := r.opts.tracer.Start(ctx, "teamlabel.participants")
		var err error
		defer func() { endSpan(span, err) }()

		participants, err = r.cfg.Participants.Aggregate(ctx, req, req.Author)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("teamlabel.participants.count", participants.Len()))
		r.publish(event.NewParticipantsAggregatedEvent(participants.Len()))
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, nil, err
	}
	return roster, participants, nil
}

// applyLabel runs the label stage and returns the request as seen after
// labeling.
func (r *Runner) applyLabel(ctx context.Context, req pr.RequestContext, out *Outcome) (pr.RequestContext, error) {
	logger := r.opts.logger.WithStage("label").Ctx(ctx)
	if r.cfg.Applier == nil || r.cfg.Label == "" {
		logger.Info("label stage skipped")
		return req, nil
	}

	ctx, span := r.opts.tracer.Start(ctx, "teamlabel.label",
		trace.WithAttributes(attribute.String("teamlabel.label", r.cfg.Label)))
	res, err := r.cfg.Applier.Apply(ctx, req, r.cfg.Label)
	endSpan(span, err)
	if err != nil {
		return req, err
	}

	out.Label = &res
	r.publish(event.NewLabelAppliedEvent(res.Label, res.AlreadyPresent, res.DryRun))
	return req.WithLabel(res.Label), nil
}

func (r *Runner) resolveChannels(ctx context.Context, req pr.RequestContext) ([]string, error) {
	logger := r.opts.logger.WithStage("channels").Ctx(ctx)

	m, err := notify.ParseChannelMap(r.cfg.ChannelMap)
	if err != nil {
		logger.Warn("channel map invalid, no channels resolved", "error", err.Error())
		r.publish(event.NewChannelsResolvedEvent(nil, err))
		return nil, err
	}

	var opts []notify.ResolveOption
	if r.cfg.GlobChannels {
		opts = append(opts, notify.WithGlob())
	}
	channels := notify.ResolveChannels(m, req.Labels, opts...)
	logger.Debug("channels resolved", "labels", req.LabelNames(), "channels", channels)
	r.publish(event.NewChannelsResolvedEvent(channels, nil))
	return channels, nil
}

func (r *Runner) dispatch(ctx context.Context, req pr.RequestContext, out Outcome) *notify.Report {
	logger := r.opts.logger.WithStage("notify").Ctx(ctx)
	if r.cfg.Dispatcher == nil {
		logger.Info("notify stage skipped", "channels", out.Channels)
		return nil
	}
	if r.cfg.DryRun {
		logger.Info("dry run: notifications not sent", "channels", out.Channels)
		return nil
	}

	ctx, span := r.opts.tracer.Start(ctx, "teamlabel.notify",
		trace.WithAttributes(attribute.StringSlice("teamlabel.channels", out.Channels)))
	defer span.End()

	body, err := r.cfg.Messages.Build(req, r.cfg.Label, out.Actors)
	if err != nil {
		// Nothing can be sent; every channel is reported as failed.
		report := notify.Report{Failed: make(map[string]error, len(out.Channels))}
		for _, channel := range out.Channels {
			notifyErr := errors.NewNotifyError("building message", err).WithChannel(channel)
			report.Failed[channel] = notifyErr
			r.publish(event.NewNotificationFailedEvent(channel, notifyErr))
		}
		logger.Warn("message could not be built", "error", err.Error())
		span.SetStatus(codes.Error, "message build failed")
		return &report
	}

	report := r.cfg.Dispatcher.Dispatch(ctx, notify.Jobs(out.Channels, body))
	if !report.OK() {
		span.SetStatus(codes.Error, "notification failures")
		logger.Warn("some notifications failed",
			"succeeded", report.Succeeded,
			"failed", report.FailedChannels(),
		)
	}
	return &report
}

func (r *Runner) publish(e event.Event) {
	r.opts.bus.Publish(e)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
