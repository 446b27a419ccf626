package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/autofx/autofx/internal/client"
	"github.com/autofx/autofx/internal/logging"
	"github.com/spf13/cobra"
)

// CreateTailCmd creates the tail command.
func CreateTailCmd() *cobra.Command {
	var opts client.TailOptions
	var processID string
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the output of a running server",
		Long: `Connects to the event stream of an autofx server and prints script output as it arrives. ` +
			`With --process, only that process is shown and the command exits when it finishes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			opts.Logger = logging.GetLogger("tail")

			dispatcher := client.NewDispatcher(cmd.OutOrStdout(), client.DispatcherOptions{
				ProcessID:    processID,
				Prefix:       processID == "",
				ShowProgress: showProgress,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := client.Tail(ctx, opts, dispatcher)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}

			if code, ok := dispatcher.ExitCode(processID); ok && code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "server", "http://localhost:8090", "autofx server URL")
	cmd.Flags().StringVar(&opts.Username, "user", os.Getenv("AUTOFX_AUTH_USERNAME"), "Basic auth username")
	cmd.Flags().StringVar(&opts.Password, "password", os.Getenv("AUTOFX_AUTH_PASSWORD"), "Basic auth password")
	cmd.Flags().StringVar(&processID, "process", "", "Only show this process and exit when it finishes")
	cmd.Flags().BoolVar(&showProgress, "progress", true, "Print progress updates")

	return cmd
}
