package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/autofx/autofx/internal/api/models"
	"github.com/autofx/autofx/internal/workspace"
	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerWorkspaceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-profiles",
		Method:      http.MethodGet,
		Path:        "/api/profiles",
		Summary:     "List Profiles",
		Description: "Get the browser profiles scripts have created",
		Tags:        []string{"workspace"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ProfileListResponse, error) {
		profiles, err := s.options.Workspace.Profiles()
		if err != nil {
			return nil, s.mapWorkspaceError(err)
		}
		return &models.ProfileListResponse{
			Body: models.ProfileListData{Success: true, Profiles: profiles},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-profile",
		Method:      http.MethodDelete,
		Path:        "/api/profiles/{name}",
		Summary:     "Delete Profile",
		Description: "Delete a browser profile and all of its data",
		Tags:        []string{"workspace"},
		Errors:      []int{400, 401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		Name string `path:"name" example:"alice" doc:"Profile name"`
	}) (*models.SuccessResponse, error) {
		if err := s.options.Workspace.DeleteProfile(input.Name); err != nil {
			return nil, s.mapWorkspaceError(err)
		}
		return &models.SuccessResponse{
			Body: models.SuccessData{Success: true, Message: `Profile "` + input.Name + `" deleted successfully`},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "open-folder",
		Method:      http.MethodPost,
		Path:        "/api/open-folder",
		Summary:     "Open Folder",
		Description: "Open an output folder in the desktop file manager of the host",
		Tags:        []string{"workspace"},
		Errors:      []int{400, 401, 404, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.OpenFolderRequest) (*models.OpenFolderResponse, error) {
		path, err := s.options.Workspace.OpenFolder(ctx, input.Body.FolderPath)
		if err != nil {
			return nil, s.mapWorkspaceError(err)
		}
		return &models.OpenFolderResponse{
			Body: models.OpenFolderData{Success: true, Message: "Folder opened", Path: path},
		}, nil
	})
}

func (s *Server) mapWorkspaceError(err error) error {
	switch {
	case errors.Is(err, workspace.ErrInvalidName):
		return huma.Error400BadRequest(err.Error(), err)
	case errors.Is(err, workspace.ErrProfileNotFound):
		return huma.Error404NotFound("Profile not found", err)
	case errors.Is(err, workspace.ErrFolderNotFound):
		return huma.Error404NotFound("Folder not found", err)
	default:
		s.logger.Error("Workspace operation failed", "error", err)
		return huma.Error500InternalServerError(err.Error(), err)
	}
}
