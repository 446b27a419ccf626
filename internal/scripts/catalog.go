package scripts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/autofx/autofx/internal/config"
	"github.com/autofx/autofx/internal/process"
	"github.com/pelletier/go-toml/v2"
)

// InputMode controls how a start request's input becomes script arguments.
type InputMode string

const (
	// InputLines passes every non-empty input line as its own argument.
	InputLines InputMode = "lines"
	// InputSingle passes the whole input as one argument.
	InputSingle InputMode = "single"
	// InputNone ignores the input.
	InputNone InputMode = "none"
)

// Defaults used when neither the catalog nor the options say otherwise.
const (
	DefaultInterpreter = "venv/bin/python3"
	DefaultBackendDir  = "backend"
)

// singleInputScripts take their whole input as one argument when discovered
// without a catalog entry.
var singleInputScripts = map[string]bool{
	"profile_generator": true,
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// defaultEnv keeps Python output unbuffered and colored even though it is piped.
var defaultEnv = []string{"PYTHONUNBUFFERED=1", "FORCE_COLOR=1"}

// Script is one runnable entry of the catalog.
type Script struct {
	Name        string    `toml:"-" json:"name"`
	Description string    `toml:"description,omitempty" json:"description,omitempty"`
	File        string    `toml:"file,omitempty" json:"file"`
	Input       InputMode `toml:"input,omitempty" json:"input"`
	Interpreter string    `toml:"interpreter,omitempty" json:"interpreter,omitempty"`
}

// File is the on-disk layout of scripts.toml.
type File struct {
	Version     int               `toml:"version"`
	Interpreter string            `toml:"interpreter,omitempty"`
	BackendDir  string            `toml:"backend_dir,omitempty"`
	Env         map[string]string `toml:"env,omitempty"`
	Scripts     map[string]Script `toml:"scripts"`
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read script catalog: %w", err)
	}

	var f File
	if unmarshalErr := toml.Unmarshal(data, &f); unmarshalErr != nil {
		return File{}, fmt.Errorf("failed to parse script catalog: %w", unmarshalErr)
	}
	if f.Version == 0 {
		f.Version = 1
	}

	for name, s := range f.Scripts {
		if !namePattern.MatchString(name) {
			return File{}, fmt.Errorf("invalid script name %q", name)
		}
		switch s.Input {
		case "":
			s.Input = defaultInputMode(name)
		case InputLines, InputSingle, InputNone:
		default:
			return File{}, fmt.Errorf("script %s: unknown input mode %q", name, s.Input)
		}
		if s.File == "" {
			s.File = name + ".py"
		}
		if s.Interpreter != "" {
			if _, parseErr := process.ParseCommand(s.Interpreter); parseErr != nil {
				return File{}, fmt.Errorf("script %s: invalid interpreter: %w", name, parseErr)
			}
		}
		s.Name = name
		f.Scripts[name] = s
	}

	return f, nil
}

func defaultInputMode(name string) InputMode {
	if singleInputScripts[name] {
		return InputSingle
	}
	return InputLines
}

// Options configures a Catalog.
type Options struct {
	// Path of scripts.toml. A missing file falls back to discovering *.py in BackendDir.
	Path string
	// BackendDir holds the scripts. A backend_dir in the catalog file overrides it.
	BackendDir string
	// Interpreter runs every script unless the catalog overrides it.
	// It is split like a shell command, so "uv run python" works.
	Interpreter string
	// Env is appended to the child environment after the defaults.
	Env []string
	// ReloadDebounce delays reloads after a file change. Zero uses the watcher default.
	ReloadDebounce time.Duration
	Logger         *slog.Logger
}

// Catalog maps script names to launchable commands. It is safe for
// concurrent use and can be reloaded while processes start.
type Catalog struct {
	opts   Options
	logger *slog.Logger

	mu          sync.RWMutex
	scripts     map[string]Script
	interpreter []string
	backendDir  string
	env         []string
	watcher     *config.Watcher[File]
}

// New creates an empty catalog. Call Load before resolving.
func New(opts Options) *Catalog {
	if opts.BackendDir == "" {
		opts.BackendDir = DefaultBackendDir
	}
	if opts.Interpreter == "" {
		opts.Interpreter = DefaultInterpreter
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		opts:       opts,
		logger:     logger,
		scripts:    make(map[string]Script),
		backendDir: opts.BackendDir,
	}
}

// Load reads the catalog file, or discovers scripts when it does not exist.
func (c *Catalog) Load() error {
	if c.opts.Path != "" {
		f, err := LoadFile(c.opts.Path)
		if err == nil {
			return c.Apply(f)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		c.logger.Info("Script catalog not found, discovering scripts", "path", c.opts.Path, "backend_dir", c.opts.BackendDir)
	}

	discovered, err := Discover(c.opts.BackendDir)
	if err != nil {
		return err
	}
	return c.Apply(File{Version: 1, Scripts: discovered})
}

// Apply replaces the catalog contents with f.
func (c *Catalog) Apply(f File) error {
	interpreterLine := c.opts.Interpreter
	if f.Interpreter != "" {
		interpreterLine = f.Interpreter
	}
	interpreter, err := process.ParseCommand(interpreterLine)
	if err != nil {
		return fmt.Errorf("invalid interpreter %q: %w", interpreterLine, err)
	}
	if len(interpreter) == 0 {
		return fmt.Errorf("interpreter is empty")
	}

	backendDir := c.opts.BackendDir
	if f.BackendDir != "" {
		backendDir = f.BackendDir
	}

	env := append([]string{}, defaultEnv...)
	keys := make([]string, 0, len(f.Env))
	for k := range f.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+f.Env[k])
	}
	env = append(env, c.opts.Env...)

	scripts := make(map[string]Script, len(f.Scripts))
	for name, s := range f.Scripts {
		scripts[name] = s
	}

	c.mu.Lock()
	c.scripts = scripts
	c.interpreter = interpreter
	c.backendDir = backendDir
	c.env = env
	c.mu.Unlock()

	c.logger.Info("Script catalog loaded", "scripts", len(scripts), "backend_dir", backendDir, "interpreter", interpreterLine)
	return nil
}

// Discover lists every *.py file in dir as a script. Files starting with an
// underscore are skipped.
func Discover(dir string) (map[string]Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend directory: %w", err)
	}

	scripts := make(map[string]Script)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".py" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".py")
		if strings.HasPrefix(name, "_") || !namePattern.MatchString(name) {
			continue
		}
		scripts[name] = Script{
			Name:  name,
			File:  entry.Name(),
			Input: defaultInputMode(name),
		}
	}
	return scripts, nil
}

// Resolve builds the command for script with input converted to arguments.
func (c *Catalog) Resolve(script, input string) (process.Command, error) {
	if !namePattern.MatchString(script) {
		return process.Command{}, process.NewError(process.CodeInvalidParams, fmt.Sprintf("invalid script name %q", script), nil)
	}

	c.mu.RLock()
	s, ok := c.scripts[script]
	interpreter := c.interpreter
	backendDir := c.backendDir
	env := c.env
	c.mu.RUnlock()

	if !ok {
		return process.Command{}, process.NewError(process.CodeScriptNotFound, fmt.Sprintf("script %s not found", script), nil)
	}

	if s.Interpreter != "" {
		parsed, err := process.ParseCommand(s.Interpreter)
		if err != nil {
			return process.Command{}, process.NewError(process.CodeScriptNotFound, fmt.Sprintf("script %s has an invalid interpreter", script), err)
		}
		interpreter = parsed
	}

	scriptPath := s.File
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(backendDir, scriptPath)
	}

	args := make([]string, 0, len(interpreter)+4)
	args = append(args, interpreter[1:]...)
	args = append(args, "-u", scriptPath)
	args = append(args, Arguments(s.Input, input)...)

	return process.Command{
		Path: interpreter[0],
		Args: args,
		Env:  append([]string{}, env...),
	}, nil
}

// Arguments converts input to script arguments according to mode.
func Arguments(mode InputMode, input string) []string {
	if input == "" {
		return nil
	}
	switch mode {
	case InputNone:
		return nil
	case InputSingle:
		return []string{input}
	default:
		var args []string
		for _, line := range strings.Split(input, "\n") {
			if line != "" {
				args = append(args, line)
			}
		}
		return args
	}
}

// Get returns the named script.
func (c *Catalog) Get(name string) (Script, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scripts[name]
	return s, ok
}

// List returns every script sorted by name.
func (c *Catalog) List() []Script {
	c.mu.RLock()
	list := make([]Script, 0, len(c.scripts))
	for _, s := range c.scripts {
		list = append(list, s)
	}
	c.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// BackendDir returns the directory scripts are resolved against.
func (c *Catalog) BackendDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backendDir
}

// Watch reloads the catalog whenever its file changes. A file that fails to
// load leaves the previous catalog in place.
func (c *Catalog) Watch() error {
	if c.opts.Path == "" {
		return errors.New("catalog has no file to watch")
	}

	var watchOpts []config.WatcherOption[File]
	if c.opts.ReloadDebounce > 0 {
		watchOpts = append(watchOpts, config.WithDebounce[File](c.opts.ReloadDebounce))
	}
	w := config.NewConfigWatcher(c.opts.Path, LoadFile, c.logger, watchOpts...)
	w.OnReload(func(f File) {
		if err := c.Apply(f); err != nil {
			c.logger.Warn("Failed to apply reloaded script catalog", "error", err)
		}
	})
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to watch script catalog: %w", err)
	}

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	return nil
}

// Close stops watching the catalog file.
func (c *Catalog) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Stop()
}
