package sheetsclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jakechorley/adp-scheduler/pkg/core/availability"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

const (
	nameColumn     = "name"
	driverColumn   = "can drive"
	maxColumn      = "max shifts"
	labelsSuffix   = " shifts"
	labelSeparator = ","
)

// ListPeople reads a roster tab. The tab needs "Name" and "Can drive" columns
// and may carry a "Max shifts" column and, per day, a "<Day>" column with that
// day's class times and a "<Day> shifts" column with comma-separated shift labels.
func (c *Client) ListPeople(ctx context.Context, spreadsheetID, tab string) ([]availability.RawPerson, error) {
	values, err := c.GetValues(ctx, spreadsheetID, tab)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("roster tab %q is empty", tab)
	}

	people, err := parsePeople(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}

	c.logger.Debug("Read roster from sheet")
	return people, nil
}

type rosterColumns struct {
	name, driver int
	maxShifts    int
	busy         map[model.Day]int
	labels       map[model.Day]int
}

func parseHeader(header []interface{}) (rosterColumns, error) {
	cols := rosterColumns{
		name:      -1,
		driver:    -1,
		maxShifts: -1,
		busy:      make(map[model.Day]int),
		labels:    make(map[model.Day]int),
	}

	for i, cell := range header {
		title := strings.ToLower(strings.TrimSpace(cellString(cell)))
		switch title {
		case nameColumn:
			cols.name = i
			continue
		case driverColumn:
			cols.driver = i
			continue
		case maxColumn:
			cols.maxShifts = i
			continue
		}
		if dayName, ok := strings.CutSuffix(title, labelsSuffix); ok {
			if day, err := model.ParseDay(dayName); err == nil {
				cols.labels[day] = i
			}
			continue
		}
		if day, err := model.ParseDay(title); err == nil {
			cols.busy[day] = i
		}
	}

	if cols.name == -1 {
		return cols, fmt.Errorf("missing required column in header: Name")
	}
	if cols.driver == -1 {
		return cols, fmt.Errorf("missing required column in header: Can drive")
	}
	return cols, nil
}

// parsePeople converts raw spreadsheet data into raw roster entries.
// Empty cells leave the day without data so the resolver's backfill applies.
func parsePeople(raw [][]interface{}) ([]availability.RawPerson, error) {
	cols, err := parseHeader(raw[0])
	if err != nil {
		return nil, err
	}

	getField := func(row []interface{}, index int) string {
		if index < 0 || index >= len(row) {
			return ""
		}
		return strings.TrimSpace(cellString(row[index]))
	}

	people := make([]availability.RawPerson, 0, len(raw)-1)
	for _, row := range raw[1:] {
		name := getField(row, cols.name)
		if name == "" {
			continue
		}

		maxShifts, err := parseMaxShifts(getField(row, cols.maxShifts))
		if err != nil {
			return nil, fmt.Errorf("row for %s: %w", name, err)
		}

		person := availability.RawPerson{
			Name:         name,
			CanDrive:     isYes(getField(row, cols.driver)),
			MaxShifts:    maxShifts,
			Availability: make(map[model.Day][]string),
			Busy:         make(map[model.Day]string),
		}
		for day, index := range cols.labels {
			if cell := getField(row, index); cell != "" {
				person.Availability[day] = splitLabels(cell)
			}
		}
		for day, index := range cols.busy {
			if cell := getField(row, index); cell != "" {
				person.Busy[day] = cell
			}
		}
		people = append(people, person)
	}

	return people, nil
}

func splitLabels(cell string) []string {
	if strings.EqualFold(cell, "none") {
		return []string{}
	}
	parts := strings.Split(cell, labelSeparator)
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}

// parseMaxShifts reads a shift cap cell; blank means no cap
func parseMaxShifts(cell string) (int, error) {
	if cell == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cell)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid max shifts %q", cell)
	}
	return n, nil
}

func isYes(cell string) bool {
	switch strings.ToLower(cell) {
	case "yes", "y", "true", "x":
		return true
	}
	return false
}

func cellString(cell interface{}) string {
	if s, ok := cell.(string); ok {
		return s
	}
	if cell == nil {
		return ""
	}
	return fmt.Sprint(cell)
}
