package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daemon-zero/dzman/internal/container"
	"github.com/daemon-zero/dzman/internal/slogger"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List instances",
	Long: `List all registered instances with their current status and port.

Status is queried live from the container engine; an instance whose container
has gone missing shows as absent. Containers carrying the instance name prefix
without a registry entry are reported separately as orphaned.`,
	Example: `  # List all instances
  dzman list`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := requireManager(cmd.Context())
		if err != nil {
			return err
		}

		instances, err := mgr.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list instances: %w", err)
		}

		if len(instances) == 0 {
			fmt.Println("No instances found")
		} else {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			if _, err := fmt.Fprintln(w, "NAME\tSTATUS\tPORT\tEPHEMERAL\tCREATED"); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			for _, inst := range instances {
				ephemeral := ""
				if inst.Ephemeral {
					ephemeral = "yes"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					inst.Name, inst.Status, inst.Port, ephemeral,
					inst.CreatedAt.Format("2006-01-02 15:04"),
				); err != nil {
					return fmt.Errorf("write instance: %w", err)
				}
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flush output: %w", err)
			}
		}

		// Orphans are informational; engine trouble here must not fail the
		// listing that already printed.
		orphans, err := mgr.Orphans(cmd.Context())
		if err != nil {
			slogger.L(cmd.Context()).Warn("orphan sweep failed", "error", err)
			return nil
		}
		printOrphans(os.Stdout, orphans)

		return nil
	},
}

// printOrphans lists containers that carry the instance name prefix but have
// no registry entry, typically left behind by a corrupted or deleted registry.
func printOrphans(out io.Writer, orphans []container.Container) {
	if len(orphans) == 0 {
		return
	}
	fmt.Fprintf(out, "\nOrphaned containers (no registry entry):\n")
	for _, c := range orphans {
		fmt.Fprintf(out, "  %s\t%s\n", c.Name, c.Status)
	}
	fmt.Fprintf(out, "Remove them with the container engine directly.\n")
}

func init() {
	rootCmd.AddCommand(listCmd)
}
