package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/adp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
	"github.com/jakechorley/adp-scheduler/pkg/core/services"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

func TestParseWeek(t *testing.T) {
	// a Wednesday
	now := time.Date(2026, 10, 21, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    string
		expected time.Time
	}{
		{"empty means next week", "", time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)},
		{"monday", "2026-11-02", time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)},
		{"sunday belongs to the week before", "2026-11-08", time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, err := parseWeek(tt.value, now)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, week)
		})
	}
}

func TestParseWeek_Invalid(t *testing.T) {
	_, err := parseWeek("02/11/2026", time.Now())
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{"plain", "showRun --run abc", []string{"showRun", "--run", "abc"}},
		{"double quotes", `schedule --roster "my roster.yaml"`, []string{"schedule", "--roster", "my roster.yaml"}},
		{"single quotes", `normalize --out 'a b'`, []string{"normalize", "--out", "a b"}},
		{"empty quotes", `verify --run ""`, []string{"verify", "--run", ""}},
		{"extra spaces", "  listRuns   ", []string{"listRuns"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := parseCommandLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, args)
		})
	}
}

func TestParseCommandLine_UnclosedQuote(t *testing.T) {
	_, err := parseCommandLine(`schedule --roster "oops`)
	assert.ErrorContains(t, err, "unclosed quote")
}

func TestStaffingCell(t *testing.T) {
	cell, color := staffingCell(2, 3, 1)
	assert.Equal(t, "2/3", cell)
	assert.Equal(t, colorRed, color)

	cell, color = staffingCell(3, 3, 0)
	assert.Equal(t, "3/3", cell)
	assert.Equal(t, colorGreen, color)
}

func TestOutcomeColor(t *testing.T) {
	assert.Equal(t, colorGreen, outcomeColor(allocator.OutcomeOptimal))
	assert.Equal(t, colorYellow, outcomeColor(allocator.OutcomeFeasible))
	assert.Equal(t, colorRed, outcomeColor(allocator.OutcomeInfeasible))
	assert.Equal(t, colorRed, outcomeColor(parseOutcome("garbage")))
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab  ", pad("ab", 4))
	assert.Equal(t, "abcdef", pad("abcdef", 4))
	// width counts runes, not bytes
	assert.Equal(t, "— ", pad("—", 2))
}

func TestSlotRowsFromRecord(t *testing.T) {
	record := &db.RunRecord{
		Slots: []db.SlotResult{
			{Day: "Monday", Label: "08:00-11:00", Needed: 2, DriverMin: 1, Assigned: 2, Drivers: 1},
			{Day: "Monday", Label: "08:00-11:00", Instance: 1, Needed: 1, Assigned: 0, Shortfall: 1},
		},
		Assignments: []db.Assignment{
			{Person: "alice", Day: "Monday", Label: "08:00-11:00"},
			{Person: "bob", Day: "Monday", Label: "08:00-11:00"},
		},
	}

	rows := slotRowsFromRecord(record)

	require.Len(t, rows, 2)
	assert.Equal(t, "Monday 08:00-11:00", rows[0].Slot)
	assert.Equal(t, []string{"alice", "bob"}, rows[0].People)
	assert.Equal(t, "Monday 08:00-11:00 #2", rows[1].Slot)
	assert.Empty(t, rows[1].People)
	assert.Equal(t, 1, rows[1].Shortfall)
}

func TestFormatAvailable(t *testing.T) {
	result := &services.AvailableResult{
		Day:    model.Tuesday,
		Label:  "08:00-11:00",
		People: []model.Person{
			{Name: "alice", CanDrive: true},
			{Name: "bob"},
		},
	}

	out := formatAvailable(result)

	assert.Contains(t, out, "Tuesday 08:00-11:00")
	assert.Contains(t, out, "2 available, 1 can drive")
	assert.Contains(t, out, "  alice "+colorDim+"(driver)")
	assert.Contains(t, out, "  bob\n")
}

func TestAvailableCmd_RequiresDayAndSlot(t *testing.T) {
	cmd := AvailableCmd(&AppContext{})
	cmd.SetArgs([]string{"--slot", "8-11"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"day"`)
}
