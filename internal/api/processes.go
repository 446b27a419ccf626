package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/autofx/autofx/internal/api/models"
	"github.com/autofx/autofx/internal/process"
	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerProcessRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "execute-script",
		Method:      http.MethodPost,
		Path:        "/api/execute",
		Summary:     "Execute Script",
		Description: "Start a script in the background. Output arrives on the event stream tagged with the process id.",
		Tags:        []string{"processes"},
		Errors:      []int{400, 401, 404, 409, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.ExecuteRequest) (*models.ExecuteResponse, error) {
		id, err := s.options.Supervisor.Start(input.Body.Script, input.Body.Input, input.Body.ProcessID)
		if err != nil {
			return nil, s.mapProcessError(err)
		}
		return &models.ExecuteResponse{
			Body: models.ExecuteData{
				Success:   true,
				Message:   "Script started",
				ProcessID: id,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-process",
		Method:      http.MethodPost,
		Path:        "/api/stop",
		Summary:     "Stop Process",
		Description: "Ask a running process to exit. It is killed if it does not exit within the grace period.",
		Tags:        []string{"processes"},
		Errors:      []int{400, 401, 404},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.StopRequest) (*models.SuccessResponse, error) {
		if err := s.options.Supervisor.Stop(input.Body.ProcessID); err != nil {
			return nil, s.mapProcessError(err)
		}
		return &models.SuccessResponse{
			Body: models.SuccessData{Success: true, Message: "Process stopped"},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "send-input",
		Method:      http.MethodPost,
		Path:        "/api/send-input",
		Summary:     "Send Input",
		Description: "Write a line to the standard input of a running process",
		Tags:        []string{"processes"},
		Errors:      []int{400, 401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.SendInputRequest) (*models.SuccessResponse, error) {
		if err := s.options.Supervisor.SendInput(ctx, input.Body.ProcessID, input.Body.Input); err != nil {
			return nil, s.mapProcessError(err)
		}
		return &models.SuccessResponse{
			Body: models.SuccessData{Success: true},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-processes",
		Method:      http.MethodGet,
		Path:        "/api/processes",
		Summary:     "List Processes",
		Description: "Get every registered process",
		Tags:        []string{"processes"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ProcessListResponse, error) {
		infos := s.options.Supervisor.List()
		list := make([]models.ProcessData, len(infos))
		for i, info := range infos {
			list[i] = models.ProcessData{
				ProcessID: info.ID,
				Script:    info.Script,
				State:     string(info.State),
				PID:       info.PID,
				StartedAt: info.StartedAt,
			}
		}
		return &models.ProcessListResponse{
			Body: models.ProcessListData{Processes: list, Count: len(list)},
		}, nil
	})
}

// mapProcessError converts supervisor errors to HTTP problems.
func (s *Server) mapProcessError(err error) error {
	var procErr *process.Error
	if errors.As(err, &procErr) {
		switch procErr.Code {
		case process.CodeNotFound, process.CodeScriptNotFound:
			return huma.Error404NotFound(procErr.Message, err)
		case process.CodeExists:
			return huma.Error409Conflict(procErr.Message, err)
		case process.CodeInvalidParams:
			return huma.Error400BadRequest(procErr.Message, err)
		case process.CodeClosed:
			return huma.Error503ServiceUnavailable(procErr.Message, err)
		case process.CodeInputFailed:
			return huma.Error500InternalServerError(procErr.Message, err)
		}
	}
	s.logger.Error("Unexpected process error", "error", err)
	return huma.Error500InternalServerError("internal server error", err)
}
