package sheetsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

func TestParsePeople_ReadsColumns(t *testing.T) {
	raw := [][]interface{}{
		{"Name", "Can drive", "Monday", "Monday shifts", "Sat shifts", "Notes"},
		{"Alice 🚗", "yes", "09:00–10:00", "", "8-11, 11-2"},
		{"", "yes", "ignored"},
		{"Bob", "no", "", "none"},
		{"Carol", "Y"},
	}

	people, err := parsePeople(raw)
	require.NoError(t, err)
	require.Len(t, people, 3)

	alice := people[0]
	assert.Equal(t, "Alice 🚗", alice.Name)
	assert.True(t, alice.CanDrive)
	assert.Equal(t, "09:00–10:00", alice.Busy[model.Monday])
	assert.NotContains(t, alice.Availability, model.Monday)
	assert.Equal(t, []string{"8-11", "11-2"}, alice.Availability[model.Saturday])

	bob := people[1]
	assert.False(t, bob.CanDrive)
	labels, ok := bob.Availability[model.Monday]
	assert.True(t, ok)
	assert.Empty(t, labels)
	assert.Empty(t, bob.Busy)

	assert.True(t, people[2].CanDrive)
}

func TestParsePeople_MaxShifts(t *testing.T) {
	raw := [][]interface{}{
		{"Name", "Can drive", "Max shifts"},
		{"Alice", "yes", "3"},
		{"Bob", "no", ""},
		{"Carol", "no", 2},
	}

	people, err := parsePeople(raw)
	require.NoError(t, err)
	require.Len(t, people, 3)
	assert.Equal(t, 3, people[0].MaxShifts)
	assert.Equal(t, 0, people[1].MaxShifts)
	assert.Equal(t, 2, people[2].MaxShifts)

	_, err = parsePeople([][]interface{}{
		{"Name", "Can drive", "Max shifts"},
		{"Dan", "no", "lots"},
	})
	assert.ErrorContains(t, err, "invalid max shifts")
}

func TestParsePeople_MissingColumns(t *testing.T) {
	_, err := parsePeople([][]interface{}{{"Can drive", "Monday"}})
	assert.ErrorContains(t, err, "Name")

	_, err = parsePeople([][]interface{}{{"Name", "Monday"}})
	assert.ErrorContains(t, err, "Can drive")
}

func TestBuildScheduleRows(t *testing.T) {
	schedule := &PublishedSchedule{
		WeekStart: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		RunID:     "run-1",
		Outcome:   "optimal",
		Slots: []PublishedSlot{
			{Day: "Monday", Shift: "08:00-11:00", Needed: 3, People: []string{"alice", "bob"}, Drivers: 1, Shortfall: 1},
			{Day: "Monday", Shift: "02:00-08:00", Needed: 1, People: []string{"carol"}, Drivers: 1},
		},
		Loads: []PublishedLoad{{Name: "alice", Shifts: 1, Load: 1}},
	}

	rows := buildScheduleRows(schedule)

	require.Len(t, rows, 8)
	assert.Equal(t, []interface{}{"Week of Mon Oct 19 2026", "Run run-1", "OPTIMAL"}, rows[0])
	assert.Empty(t, rows[1])
	assert.Equal(t, []interface{}{"Day", "Shift", "Needed", "Person 1", "Person 2", "Drivers", "Short by", "Drivers missing"}, rows[2])
	assert.Equal(t, []interface{}{"Monday", "08:00-11:00", 3, "alice", "bob", 1, 1, 0}, rows[3])
	assert.Equal(t, []interface{}{"Monday", "02:00-08:00", 1, "carol", "", 1, 0, 0}, rows[4])
	assert.Equal(t, []interface{}{"Name", "Shifts", "Load"}, rows[6])
	assert.Equal(t, []interface{}{"alice", 1, int64(1)}, rows[7])
}
