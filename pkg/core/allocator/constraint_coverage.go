package allocator

import (
	"fmt"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
)

// addCoverage encodes the headcount rules:
//   - off-slots: sum == 0
//   - hard night slots: sum == Needed, with no slack
//   - every other slot: sum <= Cap and sum + slack == Needed, slack in [0, Needed]
func (m *Model) addCoverage() {
	for _, sv := range m.Slots {
		sum := m.slotSum(sv)
		needed := int64(sv.Requirement.Needed)

		switch m.kind(sv) {
		case slotOff:
			if len(sv.Keys) > 0 {
				m.CP.AddEquality(sum, cpsat.NewConstant(0)).WithName(fmt.Sprintf("off[%s]", sv.Slot))
			}

		case slotHardNight:
			m.CP.AddEquality(sum, cpsat.NewConstant(needed)).WithName(fmt.Sprintf("night[%s]", sv.Slot))

		case slotSoft:
			capacity := int64(sv.Requirement.EffectiveCap())
			m.CP.AddLessOrEqual(sum, cpsat.NewConstant(capacity)).WithName(fmt.Sprintf("cap[%s]", sv.Slot))

			slack := m.CP.NewIntVar(0, needed).WithName(fmt.Sprintf("slack[%s]", sv.Slot))
			sv.Slack = &slack
			m.CP.AddEquality(cpsat.NewLinearExpr().Add(sum).Add(slack), cpsat.NewConstant(needed)).
				WithName(fmt.Sprintf("coverage[%s]", sv.Slot))
		}
	}
}
