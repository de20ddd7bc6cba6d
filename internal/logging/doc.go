// Package logging provides structured logging for teamlabel runs.
//
// This package wraps Go's log/slog to provide JSON-formatted logs. A CI job
// is short-lived, so every entry carries the run ID and, once the trigger is
// decoded, the repository and request number, which makes the job log
// filterable after the fact.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger = logger.WithRun(runID).WithRequest("acme/app", 42)
//	logger.WithStage("label").Info("label applied", "label", "team-reviewed")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"label applied","run_id":"...","repo":"acme/app","request":42,"stage":"label","label":"team-reviewed"}
//
// # Thread Safety
//
// [Logger] is safe for concurrent use. Child loggers created via With*
// methods share the underlying handler.
package logging
