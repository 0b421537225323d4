package commands

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jakechorley/adp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
)

const weekFormat = "2006-01-02"

// parseWeek resolves a --week value to the Monday starting that week.
// An empty value means the week after now.
func parseWeek(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return model.WeekStart(now).AddDate(0, 0, 7), nil
	}
	day, err := time.Parse(weekFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week %q, expected YYYY-MM-DD: %w", value, err)
	}
	return model.WeekStart(day), nil
}

// outcomeColor picks the color an outcome is printed in
func outcomeColor(outcome allocator.Outcome) string {
	switch outcome {
	case allocator.OutcomeOptimal:
		return colorGreen
	case allocator.OutcomeFeasible:
		return colorYellow
	default:
		return colorRed
	}
}

// staffingCell renders assigned/needed, green when fully staffed and red when short
func staffingCell(assigned, needed, shortfall int) (string, string) {
	cell := fmt.Sprintf("%d/%d", assigned, needed)
	if shortfall > 0 {
		return cell, colorRed
	}
	return cell, colorGreen
}

// pad right-pads s to width visible characters
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// colored pads s before wrapping it in color so the escape codes don't skew columns
func colored(color, s string, width int) string {
	return color + pad(s, width) + colorReset
}

func namesOrDash(names []string) string {
	if len(names) == 0 {
		return "—"
	}
	return strings.Join(names, ", ")
}

func separator(widths ...int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, "  ")
}

// parseOutcome maps a stored outcome back, treating unknown values as infeasible
func parseOutcome(s string) allocator.Outcome {
	outcome, err := allocator.ParseOutcome(s)
	if err != nil {
		return allocator.OutcomeInfeasible
	}
	return outcome
}
