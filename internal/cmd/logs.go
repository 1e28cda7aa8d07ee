package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daemon-zero/dzman/internal/manager"
)

var logsCmd = &cobra.Command{
	Use:   "logs <name>",
	Short: "Stream an instance's container logs",
	Long: `Stream the container logs for the named instance to stdout.

The stream follows new output until interrupted with Ctrl-C.`,
	Example: `  dzman logs alpha`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := requireManager(cmd.Context())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return streamLogs(ctx, mgr, args[0], os.Stdout)
	},
}

// streamLogs follows the instance's logs until the stream ends or ctx is
// cancelled. Cancellation is the normal way to leave a log stream, so it is
// not an error.
func streamLogs(ctx context.Context, mgr *manager.Manager, name string, out io.Writer) error {
	if err := mgr.Logs(ctx, name, out); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("stream logs: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(logsCmd)
}
