package allocator

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// VarKey indexes an assignment variable by person and slot position
type VarKey struct {
	Person int
	Slot   int
}

// SlotVars holds the variables owned by one slot
type SlotVars struct {
	Slot        model.Slot
	Requirement model.Requirement

	// Keys of the slot's assignment variables, in roster order
	Keys []VarKey

	// Coverage variables; nil when the slot's encoding does not need them
	Slack    *cpsat.IntVar
	Missing  *cpsat.IntVar
	Nonempty *cpsat.BoolVar
	Full     *cpsat.BoolVar
}

type slotKind int

const (
	// off-slots are forced empty
	slotOff slotKind = iota
	// hard night slots are staffed exactly to Needed
	slotHardNight
	// soft slots absorb shortfall in slack
	slotSoft
)

// Model is the constraint model for one run together with handles to every variable
type Model struct {
	Problem *model.Problem
	Config  Config
	CP      *cpsat.Model

	// Slots is indexed by slot position, in calendar order
	Slots []*SlotVars

	// Assign holds the sparse assignment variables
	Assign map[VarKey]cpsat.BoolVar

	// Keys lists every assignment variable in slot then roster order
	Keys []VarKey

	// Loads is indexed by person; nil for people with no assignment variables
	Loads   []*cpsat.IntVar
	MaxLoad *cpsat.IntVar
	MinLoad *cpsat.IntVar

	byPerson [][]VarKey
}

// Build turns a resolved problem into a constraint model. It fails only with a
// ConfigurationError.
func Build(problem *model.Problem, cfg Config) (*Model, error) {
	if err := validate(problem, cfg); err != nil {
		return nil, err
	}

	m := &Model{
		Problem:  problem,
		Config:   cfg,
		CP:       cpsat.NewModel(),
		Assign:   make(map[VarKey]cpsat.BoolVar),
		Loads:    make([]*cpsat.IntVar, len(problem.People)),
		byPerson: make([][]VarKey, len(problem.People)),
	}

	m.addExistence()
	m.addExclusivity()
	m.addCoverage()
	m.addDrivers()
	m.addNights()
	m.addShiftCaps()
	m.composeObjective()
	m.addSearchOrder()

	if err := m.CP.Err(); err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	return m, nil
}

func validate(problem *model.Problem, cfg Config) error {
	if cfg.NightMode != NightHard && cfg.NightMode != NightSoft {
		return configErrorf("unknown night mode %q", cfg.NightMode)
	}
	w := cfg.Weights
	if w.Missing < 0 || w.Slack < 0 || w.Fairness < 0 || w.NightLoad < 0 || w.RegularLoad < 0 {
		return configErrorf("weights must not be negative: %+v", w)
	}

	calendar := problem.Calendar
	if len(calendar.Labels) == 0 {
		return configErrorf("calendar has no shift labels")
	}
	for _, label := range slices.Sorted(maps.Keys(problem.Requirements.Labels)) {
		if !calendar.Contains(label) {
			return configErrorf("requirement for %q references a label missing from the calendar", label)
		}
	}
	for _, label := range calendar.Labels {
		if _, ok := problem.Requirements.Labels[label]; !ok {
			return configErrorf("calendar label %q has no requirement", label)
		}
	}
	for _, override := range problem.Requirements.Overrides {
		if !override.Day.IsValid() {
			return configErrorf("override for %q has invalid day %d", override.Label, int(override.Day))
		}
		if !calendar.Contains(override.Label) {
			return configErrorf("override on %s references a label missing from the calendar: %q", override.Day, override.Label)
		}
	}

	for _, slot := range calendar.Slots() {
		req, _ := problem.Requirement(slot)
		switch {
		case req.Needed < 0 || req.DriverMin < 0 || req.Cap < 0:
			return configErrorf("%s: negative requirement bounds %+v", slot, req)
		case req.DriverMin > req.Needed:
			return configErrorf("%s: driver minimum %d exceeds needed %d", slot, req.DriverMin, req.Needed)
		case req.EffectiveCap() < req.Needed:
			return configErrorf("%s: cap %d is below needed %d", slot, req.EffectiveCap(), req.Needed)
		}
	}

	seen := make(map[string]bool, len(problem.People))
	for _, person := range problem.People {
		if person.Name == "" {
			return configErrorf("person with empty name")
		}
		if seen[person.Name] {
			return configErrorf("duplicate person name %q", person.Name)
		}
		if person.MaxShifts < 0 {
			return configErrorf("%s has a negative shift cap %d", person.Name, person.MaxShifts)
		}
		seen[person.Name] = true
	}
	return nil
}

func (m *Model) kind(sv *SlotVars) slotKind {
	req := sv.Requirement
	switch {
	case !req.Active:
		return slotOff
	case req.IsNight && req.Needed == 0:
		return slotOff
	case req.IsNight && m.Config.NightMode == NightHard:
		return slotHardNight
	default:
		return slotSoft
	}
}

// IsActive returns true if the slot at position si receives staff
func (m *Model) IsActive(si int) bool {
	return m.kind(m.Slots[si]) != slotOff
}

func (m *Model) slotSum(sv *SlotVars) *cpsat.LinearExpr {
	sum := cpsat.NewLinearExpr()
	for _, key := range sv.Keys {
		sum.Add(m.Assign[key])
	}
	return sum
}

func (m *Model) driverSum(sv *SlotVars) *cpsat.LinearExpr {
	sum := cpsat.NewLinearExpr()
	for _, key := range sv.Keys {
		if m.Problem.People[key.Person].CanDrive {
			sum.Add(m.Assign[key])
		}
	}
	return sum
}

// personDayVars returns the person's assignment variables on one day, optionally nights only
func (m *Model) personDayVars(pi int, day model.Day, nightsOnly bool) []cpsat.BoolVar {
	var vars []cpsat.BoolVar
	for _, key := range m.byPerson[pi] {
		sv := m.Slots[key.Slot]
		if sv.Slot.Day != day || (nightsOnly && !sv.Requirement.IsNight) {
			continue
		}
		vars = append(vars, m.Assign[key])
	}
	return vars
}

func (m *Model) loadWeight(sv *SlotVars) int64 {
	if sv.Requirement.IsNight {
		return m.Config.Weights.NightLoad
	}
	return m.Config.Weights.RegularLoad
}

// addSearchOrder branches on night assignments first since they are the only
// source of infeasibility, then regular assignments, then indicators.
func (m *Model) addSearchOrder() {
	var nights, regular, indicators []cpsat.LinearArgument
	for _, key := range m.Keys {
		if m.Slots[key.Slot].Requirement.IsNight {
			nights = append(nights, m.Assign[key])
		} else {
			regular = append(regular, m.Assign[key])
		}
	}
	for _, sv := range m.Slots {
		if sv.Nonempty != nil {
			indicators = append(indicators, *sv.Nonempty)
		}
		if sv.Full != nil {
			indicators = append(indicators, *sv.Full)
		}
	}
	for _, group := range [][]cpsat.LinearArgument{nights, regular, indicators} {
		if len(group) > 0 {
			m.CP.AddDecisionStrategy(group...)
		}
	}
}
