package api

import (
	"context"
	"net/http"

	"github.com/autofx/autofx/internal/api/models"
	"github.com/autofx/autofx/internal/metrics"
	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerScriptRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-scripts",
		Method:      http.MethodGet,
		Path:        "/api/scripts",
		Summary:     "List Scripts",
		Description: "Get the script catalog with run time statistics",
		Tags:        []string{"scripts"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ScriptListResponse, error) {
		catalog := s.options.Catalog.List()
		list := make([]models.ScriptData, len(catalog))
		for i, script := range catalog {
			list[i] = models.ScriptData{
				Name:        script.Name,
				Description: script.Description,
				File:        script.File,
				Input:       string(script.Input),
			}
			if stats := metrics.GetDurationStats(script.Name); stats != nil {
				list[i].Durations = &models.DurationData{
					Runs: stats.Runs,
					P50:  stats.P50,
					P90:  stats.P90,
					P99:  stats.P99,
				}
			}
		}
		return &models.ScriptListResponse{
			Body: models.ScriptListData{Scripts: list, Count: len(list)},
		}, nil
	})
}
