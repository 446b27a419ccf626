package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/autofx/autofx/internal/client"
	"github.com/autofx/autofx/internal/logging"
	"github.com/autofx/autofx/internal/process"
	"github.com/spf13/cobra"
)

// CreateRunCmd creates the run command.
func CreateRunCmd() *cobra.Command {
	var flags catalogFlags
	var processID string
	var stopGrace time.Duration
	var showProgress bool
	var forwardStdin bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run <script> [input...]",
		Short: "Run a script in the foreground",
		Long: `Runs one script through the same supervisor the server uses and prints its output, ` +
			`progress and output folder. Each input argument is one input line. ` +
			`Interrupting the command stops the script. The exit code is the script's.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Initialize(logging.Config{Level: logLevel, Format: "text"})
			logger := logging.GetLogger("run")

			catalog, err := flags.load(logging.GetLogger("scripts"))
			if err != nil {
				return err
			}

			script := args[0]
			input := strings.Join(args[1:], "\n")
			if processID == "" {
				processID = fmt.Sprintf("%s_%d", script, time.Now().UnixMilli())
			}

			dispatcher := client.NewDispatcher(cmd.OutOrStdout(), client.DispatcherOptions{
				ProcessID:    processID,
				ShowProgress: showProgress,
			})
			sup := process.NewSupervisor(process.Options{
				Resolver:     catalog,
				Broadcaster:  dispatcher,
				StopGrace:    stopGrace,
				Logger:       logging.GetLogger("supervisor"),
				ScriptLogger: logging.GetLogger("script"),
			})

			if _, err := sup.Start(script, input, processID); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if forwardStdin {
				go forwardInput(ctx, cmd.InOrStdin(), sup, processID)
			}

			select {
			case <-dispatcher.Done():
			case <-ctx.Done():
				logger.Info("Interrupted, stopping script", "process_id", processID)
			}
			sup.StopAll()

			code, _ := dispatcher.ExitCode(processID)
			if code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&processID, "id", "", "Process identifier (default <script>_<unix millis>)")
	cmd.Flags().DurationVar(&stopGrace, "stop-grace", process.DefaultStopGrace, "Time a stopped script gets before it is killed")
	cmd.Flags().BoolVar(&showProgress, "progress", true, "Print progress updates")
	cmd.Flags().BoolVar(&forwardStdin, "stdin", false, "Forward standard input lines to the script")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	return cmd
}

// forwardInput sends every line read from r to the script's stdin.
func forwardInput(ctx context.Context, r io.Reader, sup *process.Supervisor, id string) {
	logger := logging.GetLogger("run")
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := sup.SendInput(ctx, id, scanner.Text()); err != nil {
			logger.Warn("Failed to forward input", "error", err)
			return
		}
	}
}

// exitError carries a script's exit code out of a command.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("script exited with code %d", e.code)
}

// ExitCode returns the process exit code for err: the script's own code for
// a failed run, 1 for anything else.
func ExitCode(err error) int {
	var e exitError
	if errors.As(err, &e) {
		if e.code < 0 || e.code > 255 {
			return 1
		}
		return e.code
	}
	return 1
}

// WithExitCode makes c exit the program with the script's exit code when a
// run fails because the script did. Other errors are returned to cobra.
func WithExitCode(c *cobra.Command) *cobra.Command {
	runE := c.RunE
	c.RunE = func(cmd *cobra.Command, args []string) error {
		err := runE(cmd, args)
		var e exitError
		if errors.As(err, &e) {
			os.Exit(ExitCode(err))
		}
		return err
	}
	return c
}
