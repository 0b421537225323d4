package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/pkg/core/services"
	"github.com/jakechorley/adp-scheduler/pkg/core/verifier"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

// ListRunsCmd creates the listRuns command
func ListRunsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listRuns",
		Short: "List stored scheduling runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := app.RequireDatabase()
			if err != nil {
				return err
			}

			runs, err := services.ListRuns(app.Ctx, database, app.Logger)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}

			fmt.Printf("\nFound %d runs:\n\n", len(runs))
			fmt.Printf("%s%s  %s  %s  %s  %s  %s  %s%s\n", colorBold,
				pad("Run ID", 36), pad("Week", 10), pad("Created", 16), pad("Outcome", 10),
				pad("Shortfall", 9), pad("Conflicts", 9), "Published", colorReset)
			fmt.Println(separator(36, 10, 16, 10, 9, 9, 10))

			for _, run := range runs {
				conflicts := colored(colorGreen, "0", 9)
				if run.Conflicts > 0 {
					conflicts = colored(colorRed, fmt.Sprint(run.Conflicts), 9)
				}
				published := colorDim + "no" + colorReset
				if run.Published != nil {
					published = run.Published.Local().Format(weekFormat)
				}
				fmt.Printf("%s  %s  %s  %s  %s  %s  %s\n",
					pad(run.ID, 36),
					pad(run.WeekStart.Format(weekFormat), 10),
					pad(run.CreatedAt.Local().Format("2006-01-02 15:04"), 16),
					colored(outcomeColor(parseOutcome(run.Outcome)), run.Outcome, 10),
					pad(fmt.Sprint(run.Shortfall), 9),
					conflicts,
					published)
			}
			fmt.Println()

			return nil
		},
	}
}

// ShowRunCmd creates the showRun command
func ShowRunCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "showRun",
		Short: "Show a stored run (defaults to the latest)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run")

			database, err := app.RequireDatabase()
			if err != nil {
				return err
			}

			record, err := services.ShowRun(app.Ctx, database, app.Logger, runID)
			if err != nil {
				return err
			}

			run := record.Run
			outcome := parseOutcome(run.Outcome)
			fmt.Printf("\n📋 Run %s\n\n", run.ID)
			fmt.Printf("Week:       %s\n", run.WeekStart.Format(weekFormat))
			fmt.Printf("Created:    %s\n", run.CreatedAt.Local().Format(time.RFC1123))
			fmt.Printf("Roster:     %s (%d people)\n", run.Source, len(record.People))
			fmt.Printf("Outcome:    %s%s%s\n", outcomeColor(outcome), run.Outcome, colorReset)
			fmt.Printf("Objective:  %d\n", run.Objective)
			fmt.Printf("Shortfall:  %d\n", run.Shortfall)
			fmt.Printf("Fairness:   %d\n", run.Fairness)
			fmt.Printf("Search:     %d nodes in %dms\n", run.Nodes, run.WallTimeMS)
			if run.Published != nil {
				fmt.Printf("Published:  %s\n", run.Published.Local().Format(time.RFC1123))
			}
			fmt.Println()

			if outcome.HasSchedule() {
				printSlotTable(slotRowsFromRecord(record))
				printLoadTable(loadRowsFromRecord(record))
			}
			printConflicts(conflictRowsFromRecord(record.Conflicts))

			return nil
		},
	}

	cmd.Flags().String("run", "", "Run ID (defaults to the latest run)")

	return cmd
}

// VerifyCmd creates the verify command
func VerifyCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-check a stored run against availability and anti-fatigue rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run")
			save, _ := cmd.Flags().GetBool("save")

			database, err := app.RequireDatabase()
			if err != nil {
				return err
			}

			app.Logger.Debug("verify command", zap.String("run_id", runID), zap.Bool("save", save))

			result, err := services.VerifyRun(app.Ctx, database, app.Logger, runID, save)
			if err != nil {
				return err
			}

			fmt.Printf("\n🔍 Verified run %s (week of %s)\n\n", result.Run.ID, result.Run.WeekStart.Format(weekFormat))
			if len(result.Conflicts) == 0 {
				fmt.Printf("%s✅ No conflicts%s\n\n", colorGreen, colorReset)
			} else {
				printConflicts(conflictRowsFromVerifier(result.Conflicts))
			}

			if result.Changed && !save {
				fmt.Println("⚠️  Stored conflicts differ from this check. Use --save to update them.")
			} else if result.Changed {
				fmt.Println("✅ Stored conflicts have been updated.")
			}

			return nil
		},
	}

	cmd.Flags().String("run", "", "Run ID (defaults to the latest run)")
	cmd.Flags().Bool("save", false, "Replace the stored conflicts with this check's result")

	return cmd
}

type conflictRow struct {
	Person      string
	Slot        string
	Check       string
	Description string
}

func conflictRowsFromVerifier(conflicts []verifier.Conflict) []conflictRow {
	rows := make([]conflictRow, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, conflictRow{Person: c.Person, Slot: c.Slot.String(), Check: c.Check, Description: c.Description})
	}
	return rows
}

func conflictRowsFromRecord(conflicts []db.Conflict) []conflictRow {
	rows := make([]conflictRow, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, conflictRow{Person: c.Person, Slot: c.Slot, Check: c.CheckName, Description: c.Description})
	}
	return rows
}

func printConflicts(rows []conflictRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Printf("%s⚠️  Conflicts (%d):%s\n", colorRed, len(rows), colorReset)
	for _, row := range rows {
		fmt.Printf("  • %s - %s [%s]: %s\n", row.Slot, row.Person, row.Check, row.Description)
	}
	fmt.Println()
}
