package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/adp-scheduler/pkg/core/services"
)

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a stored run to Google Sheets",
		Long:  "Publish a stored run to the schedule spreadsheet. If no --run is given, publishes the latest run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run")

			app.Logger.Debug("publish command", zap.String("run_id", runID))

			database, err := app.RequireDatabase()
			if err != nil {
				return err
			}
			client, err := app.Sheets()
			if err != nil {
				return err
			}

			published, err := services.PublishSchedule(app.Ctx, database, client, app.Cfg, app.Logger, runID)
			if err != nil {
				return fmt.Errorf("failed to publish schedule: %w", err)
			}

			fmt.Printf("\n✅ Schedule Published Successfully\n\n")
			fmt.Printf("Week:      %s\n", published.WeekStart.Format(weekFormat))
			fmt.Printf("Run ID:    %s\n", published.RunID)
			fmt.Printf("Sheet ID:  %s\n", app.Cfg.Sheets.ScheduleSheetID)
			fmt.Printf("Tab:       %s\n\n", sheetsclient.TabTitle(published.WeekStart))

			shortSlots := 0
			for _, slot := range published.Slots {
				if slot.Shortfall > 0 {
					shortSlots++
				}
			}
			fmt.Printf("Slots:     %d (%d short)\n", len(published.Slots), shortSlots)
			fmt.Printf("People:    %d\n\n", len(published.Loads))

			return nil
		},
	}

	cmd.Flags().String("run", "", "Run ID (defaults to the latest run)")

	return cmd
}
