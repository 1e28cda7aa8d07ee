package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an instance entirely",
	Long: `Delete an instance: stop its container if running, remove the container
and drop the registry entry.

The instance's data directories survive unless --data is given.

WARNING: with --data this deletes the instance's workspace, memory and
knowledge permanently.`,
	Example: `  # Delete with confirmation prompt
  dzman delete alpha

  # Delete including all data, no prompt
  dzman delete alpha --data --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		purgeData, err := cmd.Flags().GetBool("data")
		if err != nil {
			return fmt.Errorf("get data flag: %w", err)
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return fmt.Errorf("get force flag: %w", err)
		}

		mgr, err := requireManager(cmd.Context())
		if err != nil {
			return err
		}

		inst, err := mgr.Get(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("get instance: %w", err)
		}

		// Confirm removal unless --force
		if !force {
			fmt.Printf("This will delete instance %s (port %d).\n", inst.Name, inst.Port)
			if purgeData {
				fmt.Println("All instance data including workspace and memory will be deleted.")
			}
			fmt.Print("Are you sure? [y/N] ")

			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}

			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Canceled")
				return nil
			}
		}

		if err := mgr.Delete(cmd.Context(), name, purgeData); err != nil {
			return fmt.Errorf("delete instance: %w", err)
		}

		fmt.Printf("Deleted instance %s\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().Bool("data", false, "also delete the instance's data directories")
	deleteCmd.Flags().BoolP("force", "f", false, "skip confirmation prompt")
}
