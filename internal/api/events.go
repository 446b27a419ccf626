package api

import (
	"context"
	"net/http"

	"github.com/autofx/autofx/internal/events"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
)

// viewerEventTypes maps SSE event names to payload types. The name equals
// the payload's "type" field.
var viewerEventTypes = map[string]any{
	events.KindStdout:       events.StdoutEvent{},
	events.KindStderr:       events.StderrEvent{},
	events.KindProgress:     events.ProgressEvent{},
	events.KindClose:        events.CloseEvent{},
	events.KindInfo:         events.InfoEvent{},
	events.KindOutputFolder: events.OutputFolderEvent{},
}

func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Process Output Stream",
		Description: "Output, progress and lifecycle messages of every process. The first message is a connection greeting.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, viewerEventTypes, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		session := s.options.Hub.Connect()
		defer s.options.Hub.Disconnect(session)

		for {
			select {
			case <-ctx.Done():
				return
			case <-session.Done():
				return
			case msg := <-session.Messages():
				if err := send.Data(msg); err != nil {
					return
				}
			}
		}
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "process-states-stream",
		Method:      http.MethodGet,
		Path:        "/api/processes/stream",
		Summary:     "Process State Stream",
		Description: "Lifecycle transitions of every process",
		Tags:        []string{"processes"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"state": events.ProcessStateEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		unsubscribe := events.SubscribeToChannel[events.ProcessStateEvent](s.options.Bus, eventCh)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
