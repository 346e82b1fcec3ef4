// Package logging provides structured debug logging for devstrap runs.
//
// It wraps Go's log/slog to write JSON lines to a size-rotated file kept
// outside the generated project, so a destructive re-scaffold never removes
// the log of the run that performed it.
//
// Child loggers carry persistent attributes:
//
//	log := logger.WithStep("install")
//	log.Info("command finished", "exit_code", 0)
//
//	plog := logger.WithProcess("backend")
//	plog.Debug("stdout> listening on :5000")
//
// All types are safe for concurrent use. Child loggers created via With*
// share the parent's writer; only the root logger should be closed.
package logging
