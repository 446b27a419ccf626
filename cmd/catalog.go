package cmd

import (
	"log/slog"

	"github.com/autofx/autofx/internal/scripts"
	"github.com/spf13/cobra"
)

// catalogFlags are shared by the commands that resolve scripts locally.
type catalogFlags struct {
	scriptsFile string
	backendDir  string
	interpreter string
}

func (f *catalogFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scriptsFile, "scripts-file", "scripts.toml", "Script catalog file")
	cmd.Flags().StringVar(&f.backendDir, "backend-dir", scripts.DefaultBackendDir, "Directory holding the scripts")
	cmd.Flags().StringVar(&f.interpreter, "interpreter", scripts.DefaultInterpreter, "Command that runs a script")
}

func (f *catalogFlags) load(logger *slog.Logger) (*scripts.Catalog, error) {
	catalog := scripts.New(scripts.Options{
		Path:        f.scriptsFile,
		BackendDir:  f.backendDir,
		Interpreter: f.interpreter,
		Logger:      logger,
	})
	if err := catalog.Load(); err != nil {
		return nil, err
	}
	return catalog, nil
}
