package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daemon-zero/dzman/internal/manager"
	"github.com/daemon-zero/dzman/internal/slogger"
)

var restartCmd = &cobra.Command{
	Use:   "restart [name]",
	Short: "Restart an instance",
	Long: `Stop the named instance and start it again. An instance that does not
exist yet is simply created and started, so restart is safe to use as a
bring-up command. Without a name the instance "default" is used.`,
	Example: `  # Restart the default instance
  dzman restart

  # Restart a named instance
  dzman restart alpha`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return fmt.Errorf("get port flag: %w", err)
		}

		mgr, err := requireManager(cmd.Context())
		if err != nil {
			return err
		}

		name := defaultInstanceName
		if len(args) > 0 {
			name = args[0]
		}

		inst, err := mgr.Restart(cmd.Context(), name, manager.StartOptions{Port: port})
		if err != nil {
			return fmt.Errorf("restart instance: %w", err)
		}

		slogger.L(cmd.Context()).Info("instance restarted", "name", inst.Name, "port", inst.Port)
		fmt.Printf("%s running on port %d\n", inst.Name, inst.Port)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restartCmd)

	restartCmd.Flags().IntP("port", "p", 0, "preferred host port if the instance is created (0 = auto-assign)")
}
