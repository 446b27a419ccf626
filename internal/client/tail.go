package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/autofx/autofx/internal/version"
	"github.com/tmaxmax/go-sse"
)

// TailOptions configures Tail.
type TailOptions struct {
	// BaseURL of the autofx server, e.g. http://localhost:8090.
	BaseURL  string
	Username string
	Password string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Tail follows the server's event stream into d until ctx is cancelled or,
// when d filters on a process id, until that process closes. Reaching the
// filtered close returns nil.
func Tail(ctx context.Context, opts TailOptions, d *Dispatcher) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(opts.BaseURL, "/")+"/api/events", http.NoBody)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if opts.Username != "" {
		req.SetBasicAuth(opts.Username, opts.Password)
	}

	client := &sse.Client{HTTPClient: httpClient}
	conn := client.NewConnection(req)
	conn.SubscribeToAll(func(event sse.Event) {
		msg, decodeErr := Decode(event.Type, []byte(event.Data))
		if decodeErr != nil {
			logger.Debug("Skipping event", "type", event.Type, "error", decodeErr)
			return
		}
		d.Handle(msg)
	})

	go func() {
		select {
		case <-d.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	err = conn.Connect()
	select {
	case <-d.Done():
		return nil
	default:
	}
	if errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	return err
}
