package services

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/adp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
	"github.com/jakechorley/adp-scheduler/pkg/core/verifier"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

const dateFormat = "2006-01-02"

// newRunRecord flattens a solved run into database rows
func newRunRecord(runID string, weekStart time.Time, source string, problem *model.Problem, schedule *allocator.Schedule, now time.Time) *db.RunRecord {
	calendar := make([]string, len(problem.Calendar.Labels))
	for i, label := range problem.Calendar.Labels {
		calendar[i] = string(label)
	}

	record := &db.RunRecord{
		Run: db.Run{
			ID:         runID,
			WeekStart:  weekStart,
			CreatedAt:  now,
			Source:     source,
			Calendar:   calendar,
			Outcome:    schedule.Outcome.String(),
			Objective:  schedule.Objective,
			Shortfall:  schedule.TotalShortfall(),
			Fairness:   schedule.Fairness,
			Conflicts:  len(schedule.Conflicts),
			Nodes:      schedule.Nodes,
			WallTimeMS: schedule.WallTime.Milliseconds(),
		},
		People:      make([]db.RunPerson, 0, len(problem.People)),
		Slots:       make([]db.SlotResult, 0, len(schedule.Slots)),
		Assignments: make([]db.Assignment, 0, len(schedule.Assignments)),
	}

	loads := make(map[string]allocator.PersonLoad, len(schedule.Loads))
	for _, load := range schedule.Loads {
		loads[load.Name] = load
	}
	for i, person := range problem.People {
		availability := make(map[string][]string, len(model.Week))
		for _, day := range model.Week {
			labels := make([]string, 0, len(person.Availability[day]))
			for _, label := range person.Availability[day] {
				labels = append(labels, string(label))
			}
			availability[day.String()] = labels
		}
		record.People = append(record.People, db.RunPerson{
			RunID:        runID,
			Position:     i,
			Name:         person.Name,
			CanDrive:     person.CanDrive,
			MaxShifts:    person.MaxShifts,
			Availability: availability,
			Shifts:       loads[person.Name].Shifts,
			Load:         loads[person.Name].Load,
		})
	}

	for _, slot := range schedule.Slots {
		record.Slots = append(record.Slots, db.SlotResult{
			RunID:     runID,
			Day:       slot.Slot.Day.String(),
			Instance:  slot.Slot.Instance,
			Label:     string(slot.Slot.Label),
			Needed:    slot.Requirement.Needed,
			DriverMin: slot.Requirement.DriverMin,
			Cap:       slot.Requirement.EffectiveCap(),
			IsNight:   slot.Requirement.IsNight,
			Assigned:  len(slot.Assigned),
			Drivers:   len(slot.Drivers),
			Shortfall: slot.Shortfall,
			Missing:   slot.Missing,
		})
	}

	for _, a := range schedule.Assignments {
		record.Assignments = append(record.Assignments, db.Assignment{
			ID:       uuid.New().String(),
			RunID:    runID,
			Person:   a.Person,
			Day:      a.Slot.Day.String(),
			Instance: a.Slot.Instance,
			Label:    string(a.Slot.Label),
		})
	}

	record.Conflicts = conflictRows(runID, schedule.Conflicts)
	return record
}

func conflictRows(runID string, conflicts []verifier.Conflict) []db.Conflict {
	rows := make([]db.Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, db.Conflict{
			ID:          uuid.New().String(),
			RunID:       runID,
			Person:      c.Person,
			Day:         c.Day.String(),
			Slot:        c.Slot.String(),
			CheckName:   c.Check,
			Description: c.Description,
		})
	}
	return rows
}

// problemFromRecord rebuilds the problem a stored run was solved against.
// Slots without a stored result were off-slots and come back inactive.
func problemFromRecord(record *db.RunRecord) (*model.Problem, error) {
	problem := &model.Problem{
		Requirements: model.RequirementTable{Labels: make(map[model.ShiftLabel]model.Requirement)},
	}

	for _, label := range record.Run.Calendar {
		problem.Calendar.Labels = append(problem.Calendar.Labels, model.ShiftLabel(label))
		problem.Requirements.Labels[model.ShiftLabel(label)] = model.Requirement{}
	}

	active := true
	for _, slot := range record.Slots {
		day, err := model.ParseDay(slot.Day)
		if err != nil {
			return nil, fmt.Errorf("invalid slot day in run %s: %w", record.Run.ID, err)
		}
		label := model.ShiftLabel(slot.Label)
		if slot.IsNight {
			req := problem.Requirements.Labels[label]
			req.IsNight = true
			problem.Requirements.Labels[label] = req
		}
		needed, driverMin, limit := slot.Needed, slot.DriverMin, slot.Cap
		problem.Requirements.Overrides = append(problem.Requirements.Overrides, model.RequirementOverride{
			Day:   day,
			Label: label,
			Patch: model.RequirementPatch{Active: &active, Needed: &needed, DriverMin: &driverMin, Cap: &limit},
		})
	}

	for _, row := range record.People {
		person := model.Person{
			Name:         row.Name,
			CanDrive:     row.CanDrive,
			MaxShifts:    row.MaxShifts,
			Availability: make(map[model.Day][]model.ShiftLabel, len(model.Week)),
		}
		for key, labels := range row.Availability {
			day, err := model.ParseDay(key)
			if err != nil {
				return nil, fmt.Errorf("invalid availability day for %s in run %s: %w", row.Name, record.Run.ID, err)
			}
			for _, label := range labels {
				person.Availability[day] = append(person.Availability[day], model.ShiftLabel(label))
			}
		}
		problem.People = append(problem.People, person)
	}

	return problem, nil
}

func assignmentsFromRecord(record *db.RunRecord) ([]verifier.Assignment, error) {
	assignments := make([]verifier.Assignment, 0, len(record.Assignments))
	for _, row := range record.Assignments {
		day, err := model.ParseDay(row.Day)
		if err != nil {
			return nil, fmt.Errorf("invalid assignment day in run %s: %w", record.Run.ID, err)
		}
		assignments = append(assignments, verifier.Assignment{
			Person: row.Person,
			Slot:   model.Slot{Day: day, Instance: row.Instance, Label: model.ShiftLabel(row.Label)},
		})
	}
	return assignments, nil
}

// sortRecord orders slots and assignments by day, then calendar position
func sortRecord(record *db.RunRecord) {
	position := make(map[string]int, len(record.Run.Calendar))
	for i, label := range record.Run.Calendar {
		if _, seen := position[label]; !seen {
			position[label] = i
		}
	}
	dayIndex := func(name string) int {
		day, err := model.ParseDay(name)
		if err != nil {
			return len(model.Week)
		}
		return int(day)
	}
	compare := func(dayA, labelA string, instA int, dayB, labelB string, instB int) int {
		return cmp.Or(
			cmp.Compare(dayIndex(dayA), dayIndex(dayB)),
			cmp.Compare(position[labelA], position[labelB]),
			cmp.Compare(instA, instB),
		)
	}

	slices.SortStableFunc(record.Slots, func(a, b db.SlotResult) int {
		return compare(a.Day, a.Label, a.Instance, b.Day, b.Label, b.Instance)
	})
	slices.SortStableFunc(record.Assignments, func(a, b db.Assignment) int {
		return cmp.Or(
			compare(a.Day, a.Label, a.Instance, b.Day, b.Label, b.Instance),
			cmp.Compare(a.Person, b.Person),
		)
	})
	slices.SortStableFunc(record.People, func(a, b db.RunPerson) int {
		return cmp.Compare(a.Position, b.Position)
	})
}
