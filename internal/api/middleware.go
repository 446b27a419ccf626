package api

import (
	"log/slog"
	"time"

	"github.com/autofx/autofx/internal/logging"
	"github.com/danielgtaylor/huma/v2"
)

// quietPaths are polled often and logged at debug level when they succeed.
var quietPaths = map[string]bool{
	"/api/health":    true,
	"/api/processes": true,
}

// HTTPLoggingMiddleware logs each request once it completes. The level
// follows the status code. Event streams are logged when the viewer disconnects.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("http")

	method := ctx.Method()
	path := ctx.URL().Path

	logAttrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if query := ctx.URL().RawQuery; query != "" {
		logAttrs = append(logAttrs, slog.String("query", query))
	}
	if userAgent := ctx.Header("User-Agent"); userAgent != "" {
		logAttrs = append(logAttrs, slog.String("user_agent", userAgent))
	}

	next(ctx)

	status := ctx.Status()
	logAttrs = append(logAttrs,
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	case method == "OPTIONS" || quietPaths[path]:
		level = slog.LevelDebug
	}
	logger.LogAttrs(ctx.Context(), level, "HTTP request completed", logAttrs...)
}
