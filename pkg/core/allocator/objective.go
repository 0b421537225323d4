package allocator

import (
	"fmt"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// composeObjective derives per-person loads and the fairness spread, then sets
//
//	minimize  sum(Missing*missing + Slack*slack) + Fairness*(max_load - min_load)
func (m *Model) composeObjective() {
	w := m.Config.Weights
	objective := cpsat.NewLinearExpr()

	for _, sv := range m.Slots {
		if sv.Slack == nil {
			continue
		}
		objective.AddTerm(*sv.Slack, w.Slack)

		if sv.Requirement.DriverMin == 0 {
			continue
		}
		// missing = max(0, DriverMin - sum) once minimised
		driverMin := int64(sv.Requirement.DriverMin)
		missing := m.CP.NewIntVar(0, driverMin).WithName(fmt.Sprintf("missing[%s]", sv.Slot))
		sv.Missing = &missing
		m.CP.AddGreaterOrEqual(cpsat.NewLinearExpr().Add(m.slotSum(sv)).Add(missing), cpsat.NewConstant(driverMin))
		objective.AddTerm(missing, w.Missing)
	}

	var loads []cpsat.LinearArgument
	var ceiling int64
	for pi, person := range m.Problem.People {
		keys := m.byPerson[pi]
		if len(keys) == 0 {
			continue
		}

		sum := cpsat.NewLinearExpr()
		busiest := make(map[model.Day]int64)
		for _, key := range keys {
			sv := m.Slots[key.Slot]
			weight := m.loadWeight(sv)
			sum.AddTerm(m.Assign[key], weight)
			busiest[sv.Slot.Day] = max(busiest[sv.Slot.Day], weight)
		}
		// one shift per day bounds the load by the heaviest shift of each day
		var upper int64
		for _, weight := range busiest {
			upper += weight
		}

		load := m.CP.NewIntVar(0, upper).WithName(fmt.Sprintf("load[%s]", person.Name))
		m.CP.AddEquality(load, sum)
		m.Loads[pi] = &load
		loads = append(loads, load)
		ceiling = max(ceiling, upper)
	}

	if len(loads) > 0 {
		maxLoad := m.CP.NewIntVar(0, ceiling).WithName("max_load")
		minLoad := m.CP.NewIntVar(0, ceiling).WithName("min_load")
		m.CP.AddMaxEquality(maxLoad, loads...)
		m.CP.AddMinEquality(minLoad, loads...)
		m.MaxLoad, m.MinLoad = &maxLoad, &minLoad
		objective.AddTerm(maxLoad, w.Fairness).AddTerm(minLoad, -w.Fairness)
	}

	m.CP.Minimize(objective)
}
