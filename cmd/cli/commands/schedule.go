package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/adp-scheduler/pkg/core/services"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

// ScheduleCmd creates the schedule command
func ScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Build the schedule for one week",
		Long: `Resolve the roster's availability, solve the week and store the run.
Without --week the week after today is scheduled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterPath, _ := cmd.Flags().GetString("roster")
			fromSheet, _ := cmd.Flags().GetBool("sheet")
			weekValue, _ := cmd.Flags().GetString("week")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			budget, _ := cmd.Flags().GetDuration("budget")

			week, err := parseWeek(weekValue, time.Now())
			if err != nil {
				return err
			}

			app.Logger.Debug("schedule command",
				zap.String("roster", rosterPath),
				zap.Bool("sheet", fromSheet),
				zap.Time("week", week),
				zap.Bool("dry_run", dryRun))

			r, err := loadRoster(app, rosterPath, fromSheet)
			if err != nil {
				return err
			}

			result, err := services.GenerateSchedule(
				app.Ctx,
				app.Database,
				app.Solver,
				r,
				app.Cfg,
				app.Logger,
				week,
				services.ScheduleOptions{DryRun: dryRun, TimeBudget: budget},
			)
			if err != nil {
				return fmt.Errorf("scheduling failed: %w", err)
			}

			printSchedule(result, len(r.People))

			if dryRun {
				fmt.Println("💡 This was a dry run. Use without --dry-run to save the schedule.")
			} else {
				fmt.Printf("✅ Run %s has been saved to the database.\n", result.RunID)
			}
			return nil
		},
	}

	addRosterFlags(cmd)
	cmd.Flags().String("week", "", "Any date in the week to schedule (YYYY-MM-DD)")
	cmd.Flags().Bool("dry-run", false, "Solve without saving to the database")
	cmd.Flags().Duration("budget", 0, "Override the configured solver time budget (e.g. 30s)")

	return cmd
}

// ScheduleWeeksCmd creates the scheduleWeeks command
func ScheduleWeeksCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduleWeeks",
		Short: "Build schedules for several weeks at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterPath, _ := cmd.Flags().GetString("roster")
			fromSheet, _ := cmd.Flags().GetBool("sheet")
			weekValues, _ := cmd.Flags().GetStringArray("week")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			budget, _ := cmd.Flags().GetDuration("budget")

			if len(weekValues) == 0 {
				return fmt.Errorf("at least one --week is required")
			}
			weeks := make([]time.Time, 0, len(weekValues))
			for _, value := range weekValues {
				week, err := parseWeek(value, time.Now())
				if err != nil {
					return err
				}
				weeks = append(weeks, week)
			}

			r, err := loadRoster(app, rosterPath, fromSheet)
			if err != nil {
				return err
			}

			results, err := services.GenerateWeeks(
				app.Ctx,
				app.Database,
				app.Solver,
				r,
				app.Cfg,
				app.Logger,
				weeks,
				services.ScheduleOptions{DryRun: dryRun, TimeBudget: budget},
			)
			if err != nil {
				return fmt.Errorf("scheduling failed: %w", err)
			}

			fmt.Printf("\n🗓️  Scheduled %d weeks\n\n", len(results))
			fmt.Printf("%s%s  %s  %s  %s  %s%s\n", colorBold,
				pad("Week", 10), pad("Outcome", 10), pad("Shortfall", 9), pad("Fairness", 8), "Run ID", colorReset)
			fmt.Println(separator(10, 10, 9, 8, 36))
			for _, result := range results {
				s := result.Schedule
				runID := result.RunID
				if !result.Stored {
					runID = colorDim + "(not saved)" + colorReset
				}
				fmt.Printf("%s  %s  %s  %s  %s\n",
					pad(result.WeekStart.Format(weekFormat), 10),
					colored(outcomeColor(s.Outcome), s.Outcome.String(), 10),
					pad(fmt.Sprint(s.TotalShortfall()), 9),
					pad(fmt.Sprint(s.Fairness), 8),
					runID)
			}
			fmt.Println()
			return nil
		},
	}

	addRosterFlags(cmd)
	cmd.Flags().StringArray("week", nil, "A date in a week to schedule (repeatable)")
	cmd.Flags().Bool("dry-run", false, "Solve without saving to the database")
	cmd.Flags().Duration("budget", 0, "Override the configured solver time budget per week")

	return cmd
}

func addRosterFlags(cmd *cobra.Command) {
	cmd.Flags().String("roster", "", "Path to a roster YAML file")
	cmd.Flags().Bool("sheet", false, "Read the roster from the configured Google Sheet")
	cmd.MarkFlagsMutuallyExclusive("roster", "sheet")
}

func loadRoster(app *AppContext, path string, fromSheet bool) (*services.Roster, error) {
	source, err := rosterSource(app, path, fromSheet)
	if err != nil {
		return nil, err
	}
	return services.LoadRoster(app.Ctx, path, source, app.Cfg, app.Logger)
}

// rosterSource returns the Sheets client when the roster comes from the
// configured sheet, which is the default when no --roster file is given
func rosterSource(app *AppContext, path string, fromSheet bool) (services.RosterSource, error) {
	if !fromSheet && (path != "" || app.Cfg.Sheets.RosterSheetID == "") {
		return nil, nil
	}
	client, err := app.Sheets()
	if err != nil {
		return nil, err
	}
	return client, nil
}

func printSchedule(result *services.GenerateScheduleResult, people int) {
	s := result.Schedule

	fmt.Printf("\n🎯 Schedule for week of %s\n\n", result.WeekStart.Format(weekFormat))
	fmt.Printf("Run ID:     %s\n", result.RunID)
	fmt.Printf("People:     %d\n", people)
	fmt.Printf("Outcome:    %s%s%s (%s)\n", outcomeColor(s.Outcome), s.Outcome, colorReset, s.Outcome.Describe())
	if !s.Outcome.HasSchedule() {
		fmt.Println()
		return
	}
	fmt.Printf("Objective:  %d\n", s.Objective)
	fmt.Printf("Shortfall:  %d\n", s.TotalShortfall())
	fmt.Printf("Fairness:   %d (max load %d, min load %d)\n", s.Fairness, s.MaxLoad, s.MinLoad)
	fmt.Printf("Search:     %d nodes in %s\n\n", s.Nodes, s.WallTime.Round(time.Millisecond))

	printSlotTable(slotRowsFromSchedule(s))
	printLoadTable(loadRowsFromSchedule(s))
	printConflicts(conflictRowsFromVerifier(s.Conflicts))
}

// slotRow is one printed line of a slot table
type slotRow struct {
	Slot      string
	People    []string
	Assigned  int
	Needed    int
	Drivers   int
	DriverMin int
	Shortfall int
	Missing   int
}

type loadRow struct {
	Name   string
	Shifts int
	Load   int64
}

func slotRowsFromSchedule(s *allocator.Schedule) []slotRow {
	rows := make([]slotRow, 0, len(s.Slots))
	for _, slot := range s.Slots {
		rows = append(rows, slotRow{
			Slot:      slot.Slot.String(),
			People:    slot.Assigned,
			Assigned:  len(slot.Assigned),
			Needed:    slot.Requirement.Needed,
			Drivers:   len(slot.Drivers),
			DriverMin: slot.Requirement.DriverMin,
			Shortfall: slot.Shortfall,
			Missing:   slot.Missing,
		})
	}
	return rows
}

func loadRowsFromSchedule(s *allocator.Schedule) []loadRow {
	rows := make([]loadRow, 0, len(s.Loads))
	for _, load := range s.Loads {
		rows = append(rows, loadRow{Name: load.Name, Shifts: load.Shifts, Load: load.Load})
	}
	return rows
}

func slotRowsFromRecord(record *db.RunRecord) []slotRow {
	type slotKey struct {
		day, label string
		instance   int
	}
	people := make(map[slotKey][]string)
	for _, a := range record.Assignments {
		key := slotKey{a.Day, a.Label, a.Instance}
		people[key] = append(people[key], a.Person)
	}

	rows := make([]slotRow, 0, len(record.Slots))
	for _, slot := range record.Slots {
		name := slot.Day + " " + slot.Label
		if slot.Instance > 0 {
			name = fmt.Sprintf("%s #%d", name, slot.Instance+1)
		}
		rows = append(rows, slotRow{
			Slot:      name,
			People:    people[slotKey{slot.Day, slot.Label, slot.Instance}],
			Assigned:  slot.Assigned,
			Needed:    slot.Needed,
			Drivers:   slot.Drivers,
			DriverMin: slot.DriverMin,
			Shortfall: slot.Shortfall,
			Missing:   slot.Missing,
		})
	}
	return rows
}

func loadRowsFromRecord(record *db.RunRecord) []loadRow {
	rows := make([]loadRow, 0, len(record.People))
	for _, person := range record.People {
		rows = append(rows, loadRow{Name: person.Name, Shifts: person.Shifts, Load: person.Load})
	}
	return rows
}

func printSlotTable(rows []slotRow) {
	slotWidth, peopleWidth := 20, 30
	for _, row := range rows {
		slotWidth = max(slotWidth, len(row.Slot))
		peopleWidth = max(peopleWidth, len(namesOrDash(row.People)))
	}

	fmt.Printf("📅 Slots:\n\n")
	fmt.Printf("%s%s  %s  %s  %s%s\n", colorBold,
		pad("Slot", slotWidth), pad("People", peopleWidth), pad("Staffed", 7), "Drivers", colorReset)
	fmt.Println(separator(slotWidth, peopleWidth, 7, 7))

	for _, row := range rows {
		staffed, staffedColor := staffingCell(row.Assigned, row.Needed, row.Shortfall)
		drivers := fmt.Sprintf("%d/%d", row.Drivers, row.DriverMin)
		driversColor := colorGreen
		if row.Missing > 0 {
			driversColor = colorYellow
		}
		fmt.Printf("%s  %s  %s  %s\n",
			pad(row.Slot, slotWidth),
			pad(namesOrDash(row.People), peopleWidth),
			colored(staffedColor, staffed, 7),
			colored(driversColor, drivers, 7))
	}
	fmt.Println()
}

func printLoadTable(rows []loadRow) {
	if len(rows) == 0 {
		return
	}
	nameWidth := 15
	for _, row := range rows {
		nameWidth = max(nameWidth, len(row.Name))
	}

	fmt.Printf("⚖️  Loads:\n\n")
	fmt.Printf("%s%s  %s  %s%s\n", colorBold, pad("Name", nameWidth), pad("Shifts", 6), "Load", colorReset)
	fmt.Println(separator(nameWidth, 6, 4))
	for _, row := range rows {
		fmt.Printf("%s  %s  %d\n", pad(row.Name, nameWidth), pad(fmt.Sprint(row.Shifts), 6), row.Load)
	}
	fmt.Println()
}
