package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/adp-scheduler/pkg/core/model"
	"github.com/jakechorley/adp-scheduler/pkg/core/services"
)

// AvailableCmd creates the available command
func AvailableCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List who is free for one shift on one day",
		Long: `Resolve the roster and list everyone available for a shift label on a day.
The slot may be a full calendar label such as 08:00-11:00 or a short form such as 8-11.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterPath, _ := cmd.Flags().GetString("roster")
			fromSheet, _ := cmd.Flags().GetBool("sheet")
			dayValue, _ := cmd.Flags().GetString("day")
			slot, _ := cmd.Flags().GetString("slot")

			day, err := model.ParseDay(dayValue)
			if err != nil {
				return err
			}

			source, err := rosterSource(app, rosterPath, fromSheet)
			if err != nil {
				return err
			}

			result, err := services.AvailablePeople(app.Ctx, rosterPath, source, app.Cfg, app.Logger, day, slot)
			if err != nil {
				return err
			}

			fmt.Print(formatAvailable(result))
			return nil
		},
	}

	addRosterFlags(cmd)
	cmd.Flags().String("day", "", "Day of the week (e.g. monday or mon)")
	cmd.Flags().String("slot", "", "Shift label (e.g. 08:00-11:00 or 8-11)")
	cmd.MarkFlagRequired("day")
	cmd.MarkFlagRequired("slot")

	return cmd
}

// formatAvailable prints one line per available person, drivers marked
func formatAvailable(result *services.AvailableResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %s%s: %d available, %d can drive\n",
		colorBold, result.Day, result.Label, colorReset, len(result.People), result.Drivers())
	for _, person := range result.People {
		if person.CanDrive {
			fmt.Fprintf(&b, "  %s %s(driver)%s\n", person.Name, colorDim, colorReset)
			continue
		}
		fmt.Fprintf(&b, "  %s\n", person.Name)
	}
	return b.String()
}
