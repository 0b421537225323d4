package sheetsclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PublishedSlot is one row of a published schedule
type PublishedSlot struct {
	Day       string
	Shift     string
	Needed    int
	People    []string
	Drivers   int
	Shortfall int
	Missing   int
}

// PublishedLoad is one person's weekly total
type PublishedLoad struct {
	Name   string
	Shifts int
	Load   int64
}

// PublishedSchedule is everything written to a week's tab
type PublishedSchedule struct {
	WeekStart time.Time
	RunID     string
	Outcome   string
	Slots     []PublishedSlot
	Loads     []PublishedLoad
}

// TabTitle returns the tab a week is published to, e.g. "Week of Mon Oct 19 2026"
func TabTitle(weekStart time.Time) string {
	return "Week of " + weekStart.Format("Mon Jan 02 2006")
}

// PublishSchedule writes a schedule to its week's tab, creating the tab if
// needed and otherwise replacing its contents
func (c *Client) PublishSchedule(ctx context.Context, spreadsheetID string, schedule *PublishedSchedule) error {
	title := TabTitle(schedule.WeekStart)

	exists, err := c.HasSheet(ctx, spreadsheetID, title)
	if err != nil {
		return err
	}

	if exists {
		if err := c.ClearValues(ctx, spreadsheetID, title); err != nil {
			return fmt.Errorf("failed to clear tab %q: %w", title, err)
		}
	} else {
		if _, err := c.CreateSheet(ctx, spreadsheetID, title); err != nil {
			return fmt.Errorf("failed to create tab %q: %w", title, err)
		}
	}

	rows := buildScheduleRows(schedule)
	if err := c.UpdateValues(ctx, spreadsheetID, fmt.Sprintf("%s!A1", title), rows); err != nil {
		return fmt.Errorf("failed to write schedule to tab %q: %w", title, err)
	}

	c.logger.Info("Published schedule",
		zap.String("tab", title),
		zap.Bool("replaced", exists),
		zap.Int("rows", len(rows)))
	return nil
}

// buildScheduleRows lays out a schedule: a title row, a blank row, the slot
// table, a blank row, then the per-person loads
func buildScheduleRows(schedule *PublishedSchedule) [][]interface{} {
	maxPeople := 0
	for _, slot := range schedule.Slots {
		maxPeople = max(maxPeople, len(slot.People))
	}

	rows := [][]interface{}{
		{TabTitle(schedule.WeekStart), "Run " + schedule.RunID, strings.ToUpper(schedule.Outcome)},
		{},
	}

	header := []interface{}{"Day", "Shift", "Needed"}
	for i := 0; i < maxPeople; i++ {
		header = append(header, fmt.Sprintf("Person %d", i+1))
	}
	header = append(header, "Drivers", "Short by", "Drivers missing")
	rows = append(rows, header)

	for _, slot := range schedule.Slots {
		row := []interface{}{slot.Day, slot.Shift, slot.Needed}
		for i := 0; i < maxPeople; i++ {
			if i < len(slot.People) {
				row = append(row, slot.People[i])
			} else {
				row = append(row, "")
			}
		}
		row = append(row, slot.Drivers, slot.Shortfall, slot.Missing)
		rows = append(rows, row)
	}

	rows = append(rows, []interface{}{}, []interface{}{"Name", "Shifts", "Load"})
	for _, load := range schedule.Loads {
		rows = append(rows, []interface{}{load.Name, load.Shifts, load.Load})
	}

	return rows
}
