package model

import (
	"fmt"
	"slices"
)

// ShiftLabel identifies a shift's time window, e.g. "08:00-11:00"
type ShiftLabel string

// Person is one schedulable member of staff. Availability holds every day of
// the week once resolved, possibly with an empty label list.
type Person struct {
	Name         string
	CanDrive     bool
	Availability map[Day][]ShiftLabel

	// MaxShifts caps the person's shifts in the week. Zero means no cap.
	MaxShifts int
}

// IsAvailable returns true if the person may work the given label on the given day
func (p Person) IsAvailable(day Day, label ShiftLabel) bool {
	return slices.Contains(p.Availability[day], label)
}

// Slot is one schedulable (day, instance, label) unit
type Slot struct {
	Day      Day
	Instance int
	Label    ShiftLabel
}

func (s Slot) String() string {
	if s.Instance == 0 {
		return fmt.Sprintf("%s %s", s.Day, s.Label)
	}
	return fmt.Sprintf("%s %s #%d", s.Day, s.Label, s.Instance+1)
}

// Requirement describes the staffing target for a shift label
type Requirement struct {
	// Needed is the target headcount
	Needed int

	// DriverMin is the number of drivers required when the slot is fully staffed
	DriverMin int

	// Cap is the hard upper bound on headcount. Zero means Needed.
	Cap int

	// IsNight marks the designated night shift
	IsNight bool

	// Active slots receive staff; inactive ones are off-slots with no variables
	Active bool
}

// EffectiveCap returns Cap, falling back to Needed when unset
func (r Requirement) EffectiveCap() int {
	if r.Cap == 0 {
		return r.Needed
	}
	return r.Cap
}

// RequirementPatch changes selected fields of a requirement. Nil fields are left unchanged.
type RequirementPatch struct {
	Active    *bool
	Needed    *int
	DriverMin *int
	Cap       *int
}

// RequirementOverride applies a patch to one label on one day
type RequirementOverride struct {
	Day   Day
	Label ShiftLabel
	Patch RequirementPatch
}

// RequirementTable holds the per-label requirements for a run plus per-day overrides.
// Overrides are applied in order, so later ones win.
type RequirementTable struct {
	Labels    map[ShiftLabel]Requirement
	Overrides []RequirementOverride
}

// For resolves the requirement for a label on a given day.
// The second return value is false if the label has no requirement at all.
func (t RequirementTable) For(day Day, label ShiftLabel) (Requirement, bool) {
	req, ok := t.Labels[label]
	if !ok {
		return Requirement{}, false
	}
	for _, override := range t.Overrides {
		if override.Day != day || override.Label != label {
			continue
		}
		if override.Patch.Active != nil {
			req.Active = *override.Patch.Active
		}
		if override.Patch.Needed != nil {
			req.Needed = *override.Patch.Needed
		}
		if override.Patch.DriverMin != nil {
			req.DriverMin = *override.Patch.DriverMin
		}
		if override.Patch.Cap != nil {
			req.Cap = *override.Patch.Cap
		}
	}
	return req, true
}

// Calendar is the ordered list of shift labels run on every day.
// A label listed twice runs twice per day and produces two slot instances.
type Calendar struct {
	Labels []ShiftLabel
}

// Contains returns true if the label is run at least once per day
func (c Calendar) Contains(label ShiftLabel) bool {
	return slices.Contains(c.Labels, label)
}

// DaySlots returns the slots for one day in calendar order
func (c Calendar) DaySlots(day Day) []Slot {
	seen := make(map[ShiftLabel]int, len(c.Labels))
	slots := make([]Slot, 0, len(c.Labels))
	for _, label := range c.Labels {
		slots = append(slots, Slot{Day: day, Instance: seen[label], Label: label})
		seen[label]++
	}
	return slots
}

// Slots returns every slot of the week, day by day in calendar order
func (c Calendar) Slots() []Slot {
	slots := make([]Slot, 0, len(c.Labels)*len(Week))
	for _, day := range Week {
		slots = append(slots, c.DaySlots(day)...)
	}
	return slots
}

// Problem is the complete, already-resolved input to one scheduling run
type Problem struct {
	People       []Person
	Calendar     Calendar
	Requirements RequirementTable
}

// Requirement returns the resolved requirement for a slot
func (p *Problem) Requirement(slot Slot) (Requirement, bool) {
	return p.Requirements.For(slot.Day, slot.Label)
}

// IsNightSlot returns true if the slot's label is the designated night shift
func (p *Problem) IsNightSlot(slot Slot) bool {
	req, ok := p.Requirement(slot)
	return ok && req.IsNight
}

// Person looks up a person by name
func (p *Problem) Person(name string) (Person, bool) {
	for _, person := range p.People {
		if person.Name == name {
			return person, true
		}
	}
	return Person{}, false
}
