package verifier

import (
	"fmt"

	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// AvailabilityCheck flags assignments to a label the person never offered on that day.
// Unknown people are flagged too.
type AvailabilityCheck struct{}

func (AvailabilityCheck) Name() string {
	return "Availability"
}

func (c AvailabilityCheck) Validate(problem *model.Problem, assignments []Assignment) []Conflict {
	var conflicts []Conflict
	for _, a := range assignments {
		person, ok := problem.Person(a.Person)
		if !ok {
			conflicts = append(conflicts, newConflict(c, a, fmt.Sprintf("%s is not in the roster", a.Person)))
			continue
		}
		if !person.IsAvailable(a.Slot.Day, a.Slot.Label) {
			conflicts = append(conflicts, newConflict(c, a,
				fmt.Sprintf("%s is not available for %s on %s", a.Person, a.Slot.Label, a.Slot.Day)))
		}
	}
	return conflicts
}

// OnePerDayCheck flags every assignment beyond a person's first on the same day
type OnePerDayCheck struct{}

func (OnePerDayCheck) Name() string {
	return "OnePerDay"
}

func (c OnePerDayCheck) Validate(problem *model.Problem, assignments []Assignment) []Conflict {
	var conflicts []Conflict
	first := make(map[personDay]model.Slot)
	for _, a := range assignments {
		key := personDay{person: a.Person, day: a.Slot.Day}
		prev, seen := first[key]
		if !seen {
			first[key] = a.Slot
			continue
		}
		conflicts = append(conflicts, newConflict(c, a,
			fmt.Sprintf("%s already works %s on %s", a.Person, prev, a.Slot.Day)))
	}
	return conflicts
}

// OneNightPerWeekCheck flags every night assignment beyond a person's first in the week
type OneNightPerWeekCheck struct{}

func (OneNightPerWeekCheck) Name() string {
	return "OneNightPerWeek"
}

func (c OneNightPerWeekCheck) Validate(problem *model.Problem, assignments []Assignment) []Conflict {
	var conflicts []Conflict
	first := make(map[string]model.Slot)
	for _, a := range nightAssignments(problem, assignments) {
		prev, seen := first[a.Person]
		if !seen {
			first[a.Person] = a.Slot
			continue
		}
		conflicts = append(conflicts, newConflict(c, a,
			fmt.Sprintf("%s already works the night shift %s", a.Person, prev)))
	}
	return conflicts
}

// NoAdjacentNightsCheck flags night assignments on the day after another night for the same person
type NoAdjacentNightsCheck struct{}

func (NoAdjacentNightsCheck) Name() string {
	return "NoAdjacentNights"
}

func (c NoAdjacentNightsCheck) Validate(problem *model.Problem, assignments []Assignment) []Conflict {
	nights := nightAssignments(problem, assignments)

	worked := make(map[string]map[model.Day]bool)
	for _, a := range nights {
		if worked[a.Person] == nil {
			worked[a.Person] = make(map[model.Day]bool)
		}
		worked[a.Person][a.Slot.Day] = true
	}

	var conflicts []Conflict
	flagged := make(map[personDay]bool)
	for _, a := range nights {
		next, ok := a.Slot.Day.Next()
		if !ok || !worked[a.Person][next] {
			continue
		}
		key := personDay{person: a.Person, day: next}
		if flagged[key] {
			continue
		}
		flagged[key] = true
		// report the later night of the pair
		for _, b := range nights {
			if b.Person == a.Person && b.Slot.Day == next {
				conflicts = append(conflicts, newConflict(c, b,
					fmt.Sprintf("%s works nights on both %s and %s", a.Person, a.Slot.Day, next)))
				break
			}
		}
	}
	return conflicts
}

// MaxShiftsCheck flags every assignment past a person's weekly shift cap
type MaxShiftsCheck struct{}

func (MaxShiftsCheck) Name() string {
	return "MaxShifts"
}

func (c MaxShiftsCheck) Validate(problem *model.Problem, assignments []Assignment) []Conflict {
	var conflicts []Conflict
	worked := make(map[string]int)
	for _, a := range assignments {
		person, ok := problem.Person(a.Person)
		if !ok || person.MaxShifts == 0 {
			continue
		}
		worked[a.Person]++
		if worked[a.Person] > person.MaxShifts {
			conflicts = append(conflicts, newConflict(c, a,
				fmt.Sprintf("%s is capped at %d shifts a week", a.Person, person.MaxShifts)))
		}
	}
	return conflicts
}

type personDay struct {
	person string
	day    model.Day
}

func nightAssignments(problem *model.Problem, assignments []Assignment) []Assignment {
	var nights []Assignment
	for _, a := range assignments {
		if problem.IsNightSlot(a.Slot) {
			nights = append(nights, a)
		}
	}
	return nights
}

func newConflict(check Check, a Assignment, description string) Conflict {
	return Conflict{
		Person:      a.Person,
		Day:         a.Slot.Day,
		Slot:        a.Slot,
		Check:       check.Name(),
		Description: description,
	}
}
