// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// Loggers are log/slog loggers tagged with a module attribute. Each record is routed to:
//   - stdout (text or json) when a terminal, pipe, or file is connected
//   - the systemd journal when journald is available
//   - an in-memory ring buffer that backs GET /api/logs/stream
//
// # Usage
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"supervisor": "debug",
//			"http":       "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("supervisor").With("process_id", id)
//	logger.Info("Process started", "pid", pid)
//
// Child script output is logged on the "script" module at debug level, so
//
//	[logging]
//	script = "debug"
//
// mirrors every line a pipeline script prints into the journal.
//
// # Viewing Logs
//
//	journalctl -t autofx -f
//	journalctl -t autofx MODULE=supervisor
//	journalctl -t autofx PROCESS_ID=profile_generator_1
package logging
