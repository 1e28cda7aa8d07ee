package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daemon-zero/dzman/internal/manager"
	"github.com/daemon-zero/dzman/internal/names"
	"github.com/daemon-zero/dzman/internal/slogger"
)

// maxNameAttempts bounds random name generation for unnamed ephemeral starts.
const maxNameAttempts = 10

var startCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start an instance, creating it if needed",
	Long: `Start the named instance. If no instance with that name exists, one is
created: a host port is assigned, the instance directories are materialized
and a container is launched.

Starting a running instance is a no-op. Without a name the instance "default"
is used, except with --ephemeral where a random name is generated.`,
	Example: `  # Start (or create) the default instance
  dzman start

  # Start a named instance
  dzman start alpha

  # Throwaway instance with a generated name
  dzman start --ephemeral

  # Pin a specific host port on first creation
  dzman start alpha --port 51000`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ephemeral, err := cmd.Flags().GetBool("ephemeral")
		if err != nil {
			return fmt.Errorf("get ephemeral flag: %w", err)
		}

		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return fmt.Errorf("get port flag: %w", err)
		}

		mgr, err := requireManager(cmd.Context())
		if err != nil {
			return err
		}

		name, err := resolveStartName(cmd, args, mgr, ephemeral)
		if err != nil {
			return err
		}

		inst, err := mgr.Start(cmd.Context(), name, manager.StartOptions{
			Ephemeral: ephemeral,
			Port:      port,
		})
		if err != nil {
			return fmt.Errorf("start instance: %w", err)
		}

		slogger.L(cmd.Context()).Info("instance started", "name", inst.Name, "port", inst.Port)
		fmt.Printf("%s running on port %d\n", inst.Name, inst.Port)
		return nil
	},
}

// resolveStartName picks the instance name: explicit argument, then a random
// name for unnamed ephemeral starts, then the default.
func resolveStartName(cmd *cobra.Command, args []string, mgr *manager.Manager, ephemeral bool) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if ephemeral {
		name, err := names.GenerateUnique(func(candidate string) bool {
			return mgr.Exists(cmd.Context(), candidate)
		}, maxNameAttempts)
		if err != nil {
			return "", fmt.Errorf("generate instance name: %w", err)
		}
		return name, nil
	}
	return defaultInstanceName, nil
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().BoolP("ephemeral", "e", false, "no persistent memory or knowledge; data may be purged on stop")
	startCmd.Flags().IntP("port", "p", 0, "preferred host port (0 = auto-assign)")
}
