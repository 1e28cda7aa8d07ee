package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daemon-zero/dzman/internal/slogger"
)

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop an instance's container",
	Long: `Gracefully stop the container for the named instance.

The instance stays registered and keeps its port; 'dzman start' brings it
back. Stopping an already-stopped instance is a no-op.`,
	Example: `  dzman stop alpha`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		mgr, err := requireManager(cmd.Context())
		if err != nil {
			return err
		}

		if err := mgr.Stop(cmd.Context(), name); err != nil {
			return fmt.Errorf("stop instance: %w", err)
		}

		slogger.L(cmd.Context()).Info("stopped instance", "name", name)
		fmt.Printf("%s stopped\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
