package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/autofx/autofx/internal/api/models"
	"github.com/autofx/autofx/internal/events"
	"github.com/autofx/autofx/internal/logging"
	"github.com/autofx/autofx/internal/process"
	"github.com/autofx/autofx/internal/scripts"
	"github.com/autofx/autofx/internal/version"
	"github.com/autofx/autofx/ui"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

// Supervisor is the process registry the API drives.
type Supervisor interface {
	Start(script, input, id string) (string, error)
	Stop(id string) error
	SendInput(ctx context.Context, id, text string) error
	List() []process.Info
}

// Catalog lists runnable scripts.
type Catalog interface {
	List() []scripts.Script
}

// Workspace manages profiles and output folders.
type Workspace interface {
	Profiles() ([]string, error)
	DeleteProfile(name string) error
	OpenFolder(ctx context.Context, path string) (string, error)
}

// Options holds the server's collaborators.
type Options struct {
	Supervisor Supervisor
	Hub        *events.Hub
	Bus        *events.Bus
	Catalog    Catalog
	Workspace  Workspace

	// Basic auth is enforced when both are set.
	AuthUsername string
	AuthPassword string

	// PrometheusHandler serves /metrics when set.
	PrometheusHandler http.Handler
}

// Server is the HTTP API on top of the supervisor.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
}

// NewServer creates the API server and registers every route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("autofx API", version.Version)
	config.Info.Description = "Run content pipeline scripts and follow their output live"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:     api,
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	if frontendHandler, err := ui.Handler(); err == nil {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.NotFound(w, r)
				return
			}
			frontendHandler.ServeHTTP(w, r)
		})
	}

	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting autofx API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop closes the listener and every open connection, event streams included.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"system"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		viewers := 0
		if s.options.Hub != nil {
			viewers = s.options.Hub.Count()
		}
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:    "ok",
				Message:   "API is healthy",
				Processes: len(s.options.Supervisor.List()),
				Viewers:   viewers,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerProcessRoutes()
	s.registerScriptRoutes()
	s.registerWorkspaceRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
}

// withAuth returns the security requirement for basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}

// basicAuthMiddleware checks credentials from the Authorization header, or
// from the auth query parameter for EventSource clients that cannot set headers.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	expected := []byte(username + ":" + password)

	reject := func(ctx huma.Context, msg string, errs ...error) {
		ctx.SetHeader("WWW-Authenticate", `Basic realm="autofx"`)
		huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg, errs...)
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		var encoded string
		if authHeader := ctx.Header("Authorization"); authHeader != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(authHeader, prefix) {
				reject(ctx, "Invalid authentication type")
				return
			}
			encoded = authHeader[len(prefix):]
		} else {
			encoded = ctx.Query("auth")
		}

		if encoded == "" {
			reject(ctx, "Authentication required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			reject(ctx, "Invalid credentials format", err)
			return
		}
		if subtle.ConstantTimeCompare(decoded, expected) != 1 {
			reject(ctx, "Invalid credentials")
			return
		}

		next(ctx)
	}
}
