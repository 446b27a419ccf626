// Package workspace manages the files scripts leave behind: browser profiles
// and output folders.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// ProfilesDirName is the profiles directory inside the backend directory.
const ProfilesDirName = "chrome_profiles"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidName     = errors.New("invalid profile name")
	ErrFolderNotFound  = errors.New("folder not found")
)

// Opener shows a directory to the user.
type Opener func(ctx context.Context, path string) error

// Options configures a Workspace.
type Options struct {
	BackendDir string
	// ProfilesDir defaults to <BackendDir>/chrome_profiles.
	ProfilesDir string
	// Opener defaults to the platform file manager.
	Opener Opener
	Logger *slog.Logger
}

// Workspace lists and removes profiles and opens output folders.
type Workspace struct {
	backendDir  string
	profilesDir string
	opener      Opener
	logger      *slog.Logger
}

// New creates a Workspace.
func New(opts Options) *Workspace {
	if opts.ProfilesDir == "" {
		opts.ProfilesDir = filepath.Join(opts.BackendDir, ProfilesDirName)
	}
	if opts.Opener == nil {
		opts.Opener = OpenWithFileManager
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Workspace{
		backendDir:  opts.BackendDir,
		profilesDir: opts.ProfilesDir,
		opener:      opts.Opener,
		logger:      opts.Logger,
	}
}

// Profiles returns the profile directory names, sorted. A missing profiles
// directory means no profiles.
func (w *Workspace) Profiles() ([]string, error) {
	entries, err := os.ReadDir(w.profilesDir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	profiles := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			profiles = append(profiles, entry.Name())
		}
	}
	sort.Strings(profiles)
	return profiles, nil
}

// DeleteProfile removes a profile directory and everything in it.
func (w *Workspace) DeleteProfile(name string) error {
	if !validProfileName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(w.profilesDir, name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to stat profile: %w", err)
	}

	if removeErr := os.RemoveAll(path); removeErr != nil {
		return fmt.Errorf("failed to delete profile %s: %w", name, removeErr)
	}
	w.logger.Info("Profile deleted", "profile", name)
	return nil
}

func validProfileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// ResolveFolder returns the absolute form of path. Relative paths are taken
// relative to the backend directory, where scripts run from.
func (w *Workspace) ResolveFolder(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrFolderNotFound)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.backendDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve folder: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrFolderNotFound, abs)
	}
	return abs, nil
}

// OpenFolder opens path in the file manager and returns the resolved path.
func (w *Workspace) OpenFolder(ctx context.Context, path string) (string, error) {
	resolved, err := w.ResolveFolder(path)
	if err != nil {
		return "", err
	}
	if openErr := w.opener(ctx, resolved); openErr != nil {
		return resolved, fmt.Errorf("failed to open folder: %w", openErr)
	}
	w.logger.Debug("Folder opened", "path", resolved)
	return resolved, nil
}

// OpenWithFileManager opens path with explorer, open or xdg-open.
func OpenWithFileManager(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "explorer", path)
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", path)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", path)
	}

	err := cmd.Run()
	// explorer exits with 1 even when it opened the window.
	var exitErr *exec.ExitError
	if runtime.GOOS == "windows" && errors.As(err, &exitErr) {
		return nil
	}
	return err
}
