package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

var sixShifts = model.Calendar{Labels: []model.ShiftLabel{
	"02:00-08:00", "08:00-11:00", "11:00-14:00", "14:00-17:00", "17:00-20:00", "20:00-23:00",
}}

func newTestResolver(t *testing.T, opts Options) *Resolver {
	t.Helper()
	if opts.Calendar.Labels == nil {
		opts.Calendar = sixShifts
	}
	r, err := NewResolver(opts)
	require.NoError(t, err)
	return r
}

func TestNormalizeLabels_ShortForms(t *testing.T) {
	r := newTestResolver(t, Options{})

	labels, err := r.NormalizeLabels([]string{"8-11", "11-2", "2-5", "5-8", "8-11", "2-8 (Night Shift)"})

	require.NoError(t, err)
	assert.Equal(t, []model.ShiftLabel{
		"08:00-11:00", "11:00-14:00", "14:00-17:00", "17:00-20:00", "20:00-23:00", "02:00-08:00",
	}, labels)
}

func TestNormalizeLabels_FullLabelsAndDashes(t *testing.T) {
	r := newTestResolver(t, Options{})

	labels, err := r.NormalizeLabels([]string{"08:00–11:00", " 20:00-23:00 ", "", "8–11"})

	require.NoError(t, err)
	assert.Equal(t, []model.ShiftLabel{"08:00-11:00", "20:00-23:00", "08:00-11:00"}, labels)
}

func TestNormalizeLabels_Unknown(t *testing.T) {
	r := newTestResolver(t, Options{})

	_, err := r.NormalizeLabels([]string{"9-10"})
	assert.ErrorContains(t, err, "matches no calendar shift")

	_, err = r.NormalizeLabels([]string{"09:00-10:00"})
	assert.ErrorContains(t, err, "not in the calendar")

	_, err = r.NormalizeLabels([]string{"mornings"})
	assert.ErrorContains(t, err, "unrecognised")
}

func TestFromBusyPeriods_RemovesOverlaps(t *testing.T) {
	r := newTestResolver(t, Options{})

	// 09:00-10:00 hits the morning; 14:00 touches but does not overlap the afternoon
	labels := r.FromBusyPeriods("Lecture 09:00–10:00, Lab 12:00-14:00")

	assert.Equal(t, []model.ShiftLabel{"02:00-08:00", "14:00-17:00", "17:00-20:00", "20:00-23:00"}, labels)
}

func TestFromBusyPeriods_NoClasses(t *testing.T) {
	r := newTestResolver(t, Options{})

	assert.Equal(t, sixShifts.Labels, r.FromBusyPeriods("no classes"))
}

func TestResolve_DayPrecedence(t *testing.T) {
	r := newTestResolver(t, Options{WeekendFullyAvailable: true})

	person, err := r.Resolve(RawPerson{
		Name:     "Alice 🚗",
		CanDrive: true,
		Availability: map[model.Day][]string{
			model.Monday:   {"8-11"},
			model.Saturday: {},
		},
		Busy: map[model.Day]string{
			model.Monday:  "08:00-20:00",
			model.Tuesday: "08:00-20:00",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Alice", person.Name)
	assert.True(t, person.CanDrive)
	assert.Len(t, person.Availability, len(model.Week))

	// explicit labels win over the class schedule
	assert.Equal(t, []model.ShiftLabel{"08:00-11:00"}, person.Availability[model.Monday])
	assert.Equal(t, []model.ShiftLabel{"02:00-08:00", "20:00-23:00"}, person.Availability[model.Tuesday])
	assert.Empty(t, person.Availability[model.Wednesday])
	// an explicit empty list is not backfilled
	assert.Empty(t, person.Availability[model.Saturday])
	assert.Equal(t, sixShifts.Labels, person.Availability[model.Sunday])
}

func TestResolve_WeekendBackfillDisabled(t *testing.T) {
	r := newTestResolver(t, Options{})

	person, err := r.Resolve(RawPerson{Name: "bob"})

	require.NoError(t, err)
	for _, day := range model.Week {
		assert.Empty(t, person.Availability[day], "day %s", day)
	}
}

func TestResolve_AlwaysAvailable(t *testing.T) {
	r := newTestResolver(t, Options{AlwaysAvailable: []model.ShiftLabel{"20:00-23:00"}})

	person, err := r.Resolve(RawPerson{
		Name:         "carol",
		Availability: map[model.Day][]string{model.Friday: {"8-11", "8-11"}},
		Busy:         map[model.Day]string{model.Monday: "00:00-23:59"},
	})

	require.NoError(t, err)
	assert.Equal(t, []model.ShiftLabel{"20:00-23:00"}, person.Availability[model.Monday])
	assert.Equal(t, []model.ShiftLabel{"08:00-11:00", "20:00-23:00"}, person.Availability[model.Friday])
	assert.Equal(t, []model.ShiftLabel{"20:00-23:00"}, person.Availability[model.Sunday])
}

func TestResolve_Errors(t *testing.T) {
	r := newTestResolver(t, Options{})

	_, err := r.Resolve(RawPerson{Name: " 🚗 "})
	assert.ErrorContains(t, err, "empty name")

	_, err = r.Resolve(RawPerson{Name: "dan", Availability: map[model.Day][]string{model.Monday: {"7-9"}}})
	assert.ErrorContains(t, err, "Monday availability for dan")
}

func TestResolveAll_DuplicateNames(t *testing.T) {
	r := newTestResolver(t, Options{})

	_, err := r.ResolveAll([]RawPerson{{Name: "erin"}, {Name: "erin 🚗"}})

	assert.ErrorContains(t, err, `duplicate person name "erin"`)
}

func TestNewResolver_InvalidOptions(t *testing.T) {
	_, err := NewResolver(Options{Calendar: model.Calendar{Labels: []model.ShiftLabel{"mornings"}}})
	assert.ErrorContains(t, err, "invalid calendar label")

	_, err = NewResolver(Options{Calendar: sixShifts, AlwaysAvailable: []model.ShiftLabel{"23:00-23:30"}})
	assert.ErrorContains(t, err, "not in the calendar")
}

func TestNewResolver_OvernightWindow(t *testing.T) {
	calendar := model.Calendar{Labels: []model.ShiftLabel{"08:00-11:00", "22:00-06:00"}}
	r := newTestResolver(t, Options{Calendar: calendar})

	labels, err := r.NormalizeLabels([]string{"22:00–06:00", "10-6"})
	require.NoError(t, err)
	assert.Equal(t, []model.ShiftLabel{"22:00-06:00", "22:00-06:00"}, labels)

	// a late class overlaps the night block but not the morning
	assert.Equal(t, []model.ShiftLabel{"08:00-11:00"}, r.FromBusyPeriods("Seminar 23:00-23:45"))
	assert.Equal(t, []model.ShiftLabel{"22:00-06:00"}, r.FromBusyPeriods("Lab 09:00-10:00"))
	assert.Equal(t, []model.ShiftLabel{"08:00-11:00"}, r.FromBusyPeriods("Shift 21:00-02:00"))
	assert.Empty(t, r.FromBusyPeriods("Lab 09:00-10:00, Late lab 23:00-01:00"))
}

func TestNewResolver_EmptyWindow(t *testing.T) {
	_, err := NewResolver(Options{Calendar: model.Calendar{Labels: []model.ShiftLabel{"08:00-08:00"}}})
	assert.ErrorContains(t, err, "is empty")
}

func TestResolve_MaxShifts(t *testing.T) {
	r := newTestResolver(t, Options{})

	person, err := r.Resolve(RawPerson{Name: "erin", MaxShifts: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, person.MaxShifts)

	_, err = r.Resolve(RawPerson{Name: "frank", MaxShifts: -1})
	assert.ErrorContains(t, err, "negative shift cap")
}
