package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/adp-scheduler/pkg/core/services"
)

// NormalizeCmd creates the normalize command
func NormalizeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Print a roster with every day resolved to calendar labels",
		Long: `Resolve a roster's short labels, class schedules and weekend backfill, and
print the result as a roster file. The output can be edited and passed back with --roster.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterPath, _ := cmd.Flags().GetString("roster")
			fromSheet, _ := cmd.Flags().GetBool("sheet")
			out, _ := cmd.Flags().GetString("out")

			source, err := rosterSource(app, rosterPath, fromSheet)
			if err != nil {
				return err
			}

			data, err := services.NormalizeRoster(app.Ctx, rosterPath, source, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			if out == "" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write roster: %w", err)
			}
			fmt.Printf("✅ Normalized roster written to %s\n", out)
			return nil
		},
	}

	addRosterFlags(cmd)
	cmd.Flags().String("out", "", "Write to this file instead of stdout")

	return cmd
}
