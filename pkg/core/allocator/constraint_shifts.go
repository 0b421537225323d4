package allocator

import (
	"fmt"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
)

// addShiftCaps bounds each person's weekly shift count by their MaxShifts.
// Caps the one-per-day rule already implies are skipped.
func (m *Model) addShiftCaps() {
	for pi, person := range m.Problem.People {
		keys := m.byPerson[pi]
		if person.MaxShifts == 0 || len(keys) <= person.MaxShifts {
			continue
		}
		sum := cpsat.NewLinearExpr()
		for _, key := range keys {
			sum.Add(m.Assign[key])
		}
		m.CP.AddLinearConstraint(sum, 0, int64(person.MaxShifts)).
			WithName(fmt.Sprintf("max_shifts[%s]", person.Name))
	}
}
