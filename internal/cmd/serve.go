package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daemon-zero/dzman/internal/server"
	"github.com/daemon-zero/dzman/internal/slogger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web API server",
	Long: `Run the JSON web API exposing the same operations as the CLI.

The server keeps running until interrupted; SIGINT and SIGTERM trigger a
graceful shutdown.`,
	Example: `  # Serve on the configured address
  dzman serve

  # Serve on an explicit address
  dzman serve --listen 0.0.0.0:9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, err := cmd.Flags().GetString("listen")
		if err != nil {
			return fmt.Errorf("get listen flag: %w", err)
		}
		if listen == "" {
			if cfg := ConfigFromContext(cmd.Context()); cfg != nil {
				listen = cfg.Server.Listen
			}
		}
		if listen == "" {
			return fmt.Errorf("no listen address configured")
		}

		mgr, err := requireManager(cmd.Context())
		if err != nil {
			return err
		}

		// Server logging always includes timestamps and at least info level
		logger := slogger.New(slogger.Config{Verbosity: verbosity, Server: true})
		ctx := slogger.WithLogger(cmd.Context(), logger)

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.New(mgr, listen).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (host:port), overrides config")
}
