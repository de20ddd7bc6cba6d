package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/teamlabel/internal/config"
	"github.com/Iron-Ham/teamlabel/internal/event"
	"github.com/Iron-Ham/teamlabel/internal/label"
	"github.com/Iron-Ham/teamlabel/internal/logging"
	"github.com/Iron-Ham/teamlabel/internal/notify"
	"github.com/Iron-Ham/teamlabel/internal/pipeline"
	"github.com/Iron-Ham/teamlabel/internal/pr"
	"github.com/Iron-Ham/teamlabel/internal/provider/gitlab"
	"github.com/Iron-Ham/teamlabel/internal/review"
	"github.com/Iron-Ham/teamlabel/internal/summary"
	"github.com/Iron-Ham/teamlabel/internal/team"
	"github.com/Iron-Ham/teamlabel/internal/telemetry"
	"github.com/Iron-Ham/teamlabel/internal/trigger"
)

// serviceName identifies the tool in telemetry.
const serviceName = "teamlabel"

// shutdownTimeout bounds the final telemetry flush.
const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Decide, label and notify for the triggering event",
		Long: `Run reads the triggering event, resolves the team roster and the
request's participants, and labels the request if any team member has
acted. Channels mapped to the request's labels are then notified.

A stage whose options are missing is skipped with a log line. Only roster,
activity and label failures fail the run; notification failures are
reported in the summary.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	runID := uuid.NewString()
	logger = logger.WithRun(runID)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.OTelEndpoint,
		Headers:        cfg.OTelHeaders,
		ServiceName:    serviceName,
		ServiceVersion: Version,
	})
	if err != nil {
		logger.Warn("telemetry disabled", "error", err.Error())
	}
	if tel != nil {
		logger = logger.WithOTel(serviceName)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err.Error())
			}
		}()
	}

	bus := event.NewBus(event.WithPanicHandler(func(eventType string, recovered any) {
		logger.Error("event handler panicked", "event_type", eventType, "panic", fmt.Sprint(recovered))
	}))
	recorder := summary.NewRecorder()
	detach := recorder.Attach(bus)
	defer detach()
	defer report(cmd, cfg, recorder, logger)

	req, err := loadRequest(ctx, cfg)
	if errors.Is(err, trigger.ErrUnsupportedEvent) || errors.Is(err, trigger.ErrNoRequest) {
		logger.Info("nothing to do for this event", "event", cfg.EventName, "reason", err.Error())
		bus.Publish(event.NewRunCompletedEvent(runID, nil, 0))
		return nil
	}
	if err != nil {
		return err
	}
	logger = logger.WithRequest(req.Repo.String(), req.Number)

	stages := cfg.Stages()
	for _, stage := range []config.StageStatus{stages.Decide, stages.Label, stages.Notify} {
		if !stage.Enabled {
			logger.Info("stage skipped: missing options", "stage", stage.Name, "missing", stage.Missing)
			bus.Publish(event.NewStageSkippedEvent(stage.Name, stage.Missing))
		}
	}
	if !stages.Decide.Enabled {
		bus.Publish(event.NewRunStartedEvent(runID, req.Repo.String(), req.Number, req.EventName))
		bus.Publish(event.NewRunCompletedEvent(runID, nil, 0))
		return nil
	}

	svc, err := newServices(cfg, stages)
	if err != nil {
		return err
	}
	runner, err := newRunner(cfg, svc, req, runID, bus, logger)
	if err != nil {
		return err
	}

	outcome, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}
	logger.Info("run complete",
		"participated", outcome.Participated,
		"notified", outcome.Notified(),
		"duration_ms", outcome.Duration.Milliseconds(),
	)
	return nil
}

// loadRequest reads the triggering request: from the event payload on
// GitHub, from the merge request API on GitLab.
func loadRequest(ctx context.Context, cfg *config.Config) (pr.RequestContext, error) {
	if cfg.Provider != config.ProviderGitLab {
		return trigger.Source{
			Path:       cfg.EventPath,
			Name:       cfg.EventName,
			Repository: cfg.Repository,
		}.Load()
	}

	client, err := gitlab.NewClient(cfg.AccessToken, gitlab.WithBaseURL(cfg.APIURL))
	if err != nil {
		return pr.RequestContext{}, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}
	return trigger.GitLabSource{
		Project:  cfg.Repository,
		IID:      cfg.MergeRequestIID,
		Pipeline: cfg.EventName,
	}.Load(ctx, client)
}

func newRunner(
	cfg *config.Config,
	svc services,
	req pr.RequestContext,
	runID string,
	bus *event.Bus,
	logger *logging.Logger,
) (*pipeline.Runner, error) {
	rc := pipeline.RunnerConfig{
		Roster: team.NewResolver(svc.directory,
			team.WithDefaultOrg(req.Repo.Owner),
			team.WithLogger(logger.WithStage("roster")),
		),
		Participants: review.NewAggregator(svc.activity,
			review.WithIgnoreBots(cfg.IgnoreBots),
			review.WithLogger(logger.WithStage("participants")),
		),
		Team:             cfg.Team,
		Label:            cfg.Label,
		GlobChannels:     cfg.ChannelMatch == config.MatchGlob,
		StrictChannelMap: cfg.StrictChannelMap,
		DryRun:           cfg.DryRun,
	}

	if svc.labeler != nil {
		rc.Applier = label.NewApplier(svc.labeler,
			label.WithDryRun(cfg.DryRun),
			label.WithLogger(logger.WithStage("label")),
		)
	}

	// Channels are resolved whenever a map is configured, so a dry run or a
	// missing bot token still reports where notifications would go.
	rc.ChannelMap = cfg.SlackChannelList
	if svc.messenger != nil {
		messages, err := notify.NewMessageBuilder(cfg.MessageTemplate, cfg.Team)
		if err != nil {
			return nil, err
		}
		rc.Messages = messages
		rc.Dispatcher = notify.NewDispatcher(svc.messenger,
			notify.WithConcurrency(cfg.NotifyConcurrency),
			notify.WithTimeout(cfg.NotifyTimeout),
			notify.WithBus(bus),
			notify.WithLogger(logger.WithStage("notify")),
		)
	}

	return pipeline.NewRunner(rc,
		pipeline.WithRunID(runID),
		pipeline.WithBus(bus),
		pipeline.WithLogger(logger),
		pipeline.WithTracer(telemetry.Tracer()),
	)
}

// report prints the run summary and appends it to the step summary file.
func report(cmd *cobra.Command, cfg *config.Config, recorder *summary.Recorder, logger *logging.Logger) {
	run := recorder.Run()
	summary.WriteConsole(cmd.OutOrStdout(), run)
	if err := summary.AppendStepSummary(cfg.StepSummary, run); err != nil {
		logger.Warn("step summary not written", "error", err.Error())
	}
}
