package verifier_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/adp-scheduler/pkg/core/model"
	"github.com/jakechorley/adp-scheduler/pkg/core/verifier"
)

const (
	morning model.ShiftLabel = "08:00-11:00"
	evening model.ShiftLabel = "20:00-23:00"
	night   model.ShiftLabel = "02:00-08:00"
)

func everyDay(labels ...model.ShiftLabel) map[model.Day][]model.ShiftLabel {
	availability := make(map[model.Day][]model.ShiftLabel)
	for _, day := range model.Week {
		availability[day] = labels
	}
	return availability
}

func testProblem() *model.Problem {
	return &model.Problem{
		People: []model.Person{
			{Name: "alice", CanDrive: true, Availability: everyDay(morning, evening, night)},
			{Name: "bob", Availability: map[model.Day][]model.ShiftLabel{
				model.Monday:  {morning},
				model.Tuesday: {},
			}},
		},
		Calendar: model.Calendar{Labels: []model.ShiftLabel{morning, evening, night}},
		Requirements: model.RequirementTable{
			Labels: map[model.ShiftLabel]model.Requirement{
				morning: {Needed: 1, Active: true},
				evening: {Needed: 1, Active: true},
				night:   {Needed: 1, IsNight: true, Active: true},
			},
		},
	}
}

func slot(day model.Day, label model.ShiftLabel) model.Slot {
	return model.Slot{Day: day, Label: label}
}

func TestVerify_CleanSchedule(t *testing.T) {
	assignments := []verifier.Assignment{
		{Person: "alice", Slot: slot(model.Monday, night)},
		{Person: "alice", Slot: slot(model.Wednesday, evening)},
		{Person: "bob", Slot: slot(model.Monday, morning)},
	}

	conflicts := verifier.Verify(testProblem(), assignments)

	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
}

func TestVerify_UnavailableAssignment(t *testing.T) {
	// bob only offered Monday mornings
	assignments := []verifier.Assignment{
		{Person: "bob", Slot: slot(model.Tuesday, morning)},
	}

	conflicts := verifier.Verify(testProblem(), assignments)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "bob", conflicts[0].Person)
	assert.Equal(t, model.Tuesday, conflicts[0].Day)
	assert.Equal(t, slot(model.Tuesday, morning), conflicts[0].Slot)
	assert.Equal(t, "Availability", conflicts[0].Check)
	assert.Contains(t, conflicts[0].Description, "not available")
}

func TestVerify_UnknownPerson(t *testing.T) {
	assignments := []verifier.Assignment{
		{Person: "carol", Slot: slot(model.Monday, morning)},
	}

	conflicts := verifier.Verify(testProblem(), assignments)

	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0].Description, "not in the roster")
}

func TestVerify_TwoShiftsOneDay(t *testing.T) {
	assignments := []verifier.Assignment{
		{Person: "alice", Slot: slot(model.Friday, morning)},
		{Person: "alice", Slot: slot(model.Friday, evening)},
	}

	conflicts := verifier.Verify(testProblem(), assignments)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "OnePerDay", conflicts[0].Check)
	assert.Equal(t, slot(model.Friday, evening), conflicts[0].Slot)
}

func TestVerify_TwoNightsInWeek(t *testing.T) {
	assignments := []verifier.Assignment{
		{Person: "alice", Slot: slot(model.Monday, night)},
		{Person: "alice", Slot: slot(model.Thursday, night)},
	}

	conflicts := verifier.Verify(testProblem(), assignments)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "OneNightPerWeek", conflicts[0].Check)
	assert.Equal(t, model.Thursday, conflicts[0].Day)
}

func TestVerify_AdjacentNights(t *testing.T) {
	assignments := []verifier.Assignment{
		{Person: "alice", Slot: slot(model.Monday, night)},
		{Person: "alice", Slot: slot(model.Tuesday, night)},
		{Person: "alice", Slot: slot(model.Wednesday, night)},
	}

	conflicts := verifier.VerifyWith(testProblem(), assignments, []verifier.Check{verifier.NoAdjacentNightsCheck{}})

	require.Len(t, conflicts, 2)
	assert.Equal(t, model.Tuesday, conflicts[0].Day)
	assert.Equal(t, model.Wednesday, conflicts[1].Day)
}

func TestVerify_SundayAndMondayAreNotAdjacent(t *testing.T) {
	assignments := []verifier.Assignment{
		{Person: "alice", Slot: slot(model.Sunday, night)},
		{Person: "alice", Slot: slot(model.Monday, night)},
	}

	conflicts := verifier.VerifyWith(testProblem(), assignments, []verifier.Check{verifier.NoAdjacentNightsCheck{}})

	assert.Empty(t, conflicts)
}

func TestVerify_Idempotent(t *testing.T) {
	problem := testProblem()
	assignments := []verifier.Assignment{
		{Person: "alice", Slot: slot(model.Monday, night)},
		{Person: "alice", Slot: slot(model.Tuesday, night)},
		{Person: "bob", Slot: slot(model.Sunday, evening)},
	}

	first := verifier.Verify(problem, assignments)
	second := verifier.Verify(problem, assignments)

	assert.NotEmpty(t, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Verify is not idempotent (-first +second):\n%s", diff)
	}

	clean := []verifier.Assignment{{Person: "bob", Slot: slot(model.Monday, morning)}}
	if diff := cmp.Diff(verifier.Verify(problem, clean), verifier.Verify(problem, clean)); diff != "" {
		t.Errorf("Verify is not idempotent on a clean schedule (-first +second):\n%s", diff)
	}
}

func TestVerify_MaxShifts(t *testing.T) {
	problem := testProblem()
	problem.People[0].MaxShifts = 2
	assignments := []verifier.Assignment{
		{Person: "alice", Slot: slot(model.Monday, morning)},
		{Person: "alice", Slot: slot(model.Tuesday, morning)},
		{Person: "alice", Slot: slot(model.Thursday, evening)},
		{Person: "bob", Slot: slot(model.Monday, morning)},
	}

	conflicts := verifier.Verify(problem, assignments)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "MaxShifts", conflicts[0].Check)
	assert.Equal(t, slot(model.Thursday, evening), conflicts[0].Slot)
	assert.Contains(t, conflicts[0].Description, "capped at 2")
}

func TestVerify_TwoInstancesOfOneLabel(t *testing.T) {
	problem := testProblem()
	problem.Calendar = model.Calendar{Labels: []model.ShiftLabel{morning, morning, night}}
	first := model.Slot{Day: model.Monday, Instance: 0, Label: morning}
	second := model.Slot{Day: model.Monday, Instance: 1, Label: morning}

	conflicts := verifier.Verify(problem, []verifier.Assignment{
		{Person: "alice", Slot: first},
		{Person: "alice", Slot: second},
	})

	require.Len(t, conflicts, 1)
	assert.Equal(t, "OnePerDay", conflicts[0].Check)
	assert.Equal(t, second, conflicts[0].Slot)
	assert.Contains(t, conflicts[0].Description, "Monday 08:00-11:00 on Monday")

	// one person in each instance is clean
	assert.Empty(t, verifier.Verify(problem, []verifier.Assignment{
		{Person: "alice", Slot: first},
		{Person: "bob", Slot: second},
	}))
}
