package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/autofx/autofx/cmd"
	"github.com/autofx/autofx/internal/api"
	"github.com/autofx/autofx/internal/config"
	"github.com/autofx/autofx/internal/events"
	"github.com/autofx/autofx/internal/logging"
	"github.com/autofx/autofx/internal/metrics"
	"github.com/autofx/autofx/internal/process"
	"github.com/autofx/autofx/internal/scripts"
	"github.com/autofx/autofx/internal/version"
	"github.com/autofx/autofx/internal/workspace"
	"github.com/danielgtaylor/huma/v2/humacli"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Script settings
	ScriptsFile   string `help:"Script catalog file" default:"scripts.toml" toml:"scripts.catalog_file" env:"SCRIPTS_CATALOG_FILE"`
	BackendDir    string `help:"Directory holding the scripts" default:"backend" toml:"scripts.backend_dir" env:"SCRIPTS_BACKEND_DIR"`
	Interpreter   string `help:"Command that runs a script" default:"venv/bin/python3" toml:"scripts.interpreter" env:"SCRIPTS_INTERPRETER"`
	WatchCatalog  bool   `help:"Reload the script catalog when it changes" default:"true" toml:"scripts.watch" env:"SCRIPTS_WATCH"`
	ProfilesDir   string `help:"Browser profile directory (default <backend>/chrome_profiles)" toml:"scripts.profiles_dir" env:"SCRIPTS_PROFILES_DIR"`
	StopGrace     string `help:"Time a stopped script gets before it is killed" default:"5s" toml:"supervisor.stop_grace" env:"SUPERVISOR_STOP_GRACE"`
	InputTimeout  string `help:"Time limit for writing one input line" default:"5s" toml:"supervisor.input_timeout" env:"SUPERVISOR_INPUT_TIMEOUT"`
	SessionBuffer int    `help:"Messages queued per viewer before dropping" default:"256" toml:"events.session_buffer" env:"EVENTS_SESSION_BUFFER"`
	ReplaySize    int    `help:"Recent messages replayed per running process to new viewers" default:"0" toml:"events.replay_size" env:"EVENTS_REPLAY_SIZE"`

	// Observability settings
	PrometheusEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"obs.prometheus_enabled" env:"OBS_PROMETHEUS_ENABLED"`

	// Auth settings, enforced when both are set
	AuthUsername string `help:"Basic auth username" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingScript     string `help:"Script output logging level" default:"info" toml:"logging.script" env:"LOGGING_SCRIPT"`
	LoggingScripts    string `help:"Script catalog logging level" default:"info" toml:"logging.scripts" env:"LOGGING_SCRIPTS"`
	LoggingEvents     string `help:"Event hub logging level" default:"info" toml:"logging.events" env:"LOGGING_EVENTS"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP       string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"supervisor": opts.LoggingSupervisor,
				"script":     opts.LoggingScript,
				"scripts":    opts.LoggingScripts,
				"events":     opts.LoggingEvents,
				"api":        opts.LoggingAPI,
				"http":       opts.LoggingHTTP,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting", "version", version.String())

		// Create event bus for in-process event handling
		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(api.LogEntryToEvent(entry))
		})

		hub := events.NewHub(eventBus, events.HubOptions{
			SessionBuffer: opts.SessionBuffer,
			ReplaySize:    opts.ReplaySize,
			Logger:        logging.GetLogger("events"),
		})

		catalog := scripts.New(scripts.Options{
			Path:        opts.ScriptsFile,
			BackendDir:  opts.BackendDir,
			Interpreter: opts.Interpreter,
			Logger:      logging.GetLogger("scripts"),
		})
		if loadErr := catalog.Load(); loadErr != nil {
			logger.Warn("No scripts available", "error", loadErr)
		}
		if opts.WatchCatalog {
			if watchErr := catalog.Watch(); watchErr != nil {
				logger.Warn("Script catalog will not be reloaded", "error", watchErr)
			}
		}

		ws := workspace.New(workspace.Options{
			BackendDir:  catalog.BackendDir(),
			ProfilesDir: opts.ProfilesDir,
			Logger:      logging.GetLogger("api"),
		})

		sup := process.NewSupervisor(process.Options{
			Resolver:     catalog,
			Broadcaster:  hub,
			StopGrace:    parseDuration(opts.StopGrace, process.DefaultStopGrace),
			InputTimeout: parseDuration(opts.InputTimeout, process.DefaultInputTimeout),
			OnStateChange: func(id, script string, oldState, newState process.State) {
				eventBus.Publish(events.ProcessStateEvent{
					ProcessID: id,
					Script:    script,
					OldState:  string(oldState),
					NewState:  string(newState),
					Timestamp: time.Now().Format(time.RFC3339),
				})
			},
			Logger:       logging.GetLogger("supervisor"),
			ScriptLogger: logging.GetLogger("script"),
		})

		apiOpts := &api.Options{
			Supervisor:   sup,
			Hub:          hub,
			Bus:          eventBus,
			Catalog:      catalog,
			Workspace:    ws,
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
		}
		if opts.PrometheusEnabled {
			apiOpts.PrometheusHandler = metrics.Handler()
		}

		server := api.NewServer(apiOpts)

		hooks.OnStart(func() {
			logger.Info("Starting HTTP server", "port", opts.Port, "scripts", len(catalog.List()))
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Stop scripts after the HTTP server stops accepting new requests
			sup.StopAll()
			hub.CloseAll()

			if closeErr := catalog.Close(); closeErr != nil {
				logger.Warn("Error stopping catalog watcher", "error", closeErr)
			}
		})
	})

	cli.Root().Use = "autofx"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateScriptsCmd())
	cli.Root().AddCommand(cmd.WithExitCode(cmd.CreateRunCmd()))
	cli.Root().AddCommand(cmd.CreateTailCmd())

	// Run the CLI
	cli.Run()
}
