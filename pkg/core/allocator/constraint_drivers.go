package allocator

import (
	"fmt"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
)

// addDrivers encodes the driver sub-quota.
//
// Hard night slots need DriverMin drivers unconditionally. Soft slots get two
// indicators, each linked to the headcount in both directions:
//
//	nonempty <=> sum >= 1      nonempty => drivers >= 1
//	full     <=> sum >= cap    full     => drivers >= DriverMin
//
// so an empty slot needs no driver and a partly staffed slot needs only one.
func (m *Model) addDrivers() {
	for _, sv := range m.Slots {
		req := sv.Requirement
		if req.DriverMin == 0 || len(sv.Keys) == 0 {
			continue
		}
		driverMin := int64(req.DriverMin)
		drivers := m.driverSum(sv)

		switch m.kind(sv) {
		case slotHardNight:
			m.CP.AddGreaterOrEqual(drivers, cpsat.NewConstant(driverMin)).
				WithName(fmt.Sprintf("night_drivers[%s]", sv.Slot))

		case slotSoft:
			sum := m.slotSum(sv)
			capacity := int64(req.EffectiveCap())

			nonempty := m.CP.NewBoolVar().WithName(fmt.Sprintf("nonempty[%s]", sv.Slot))
			sv.Nonempty = &nonempty
			m.CP.AddGreaterOrEqual(sum, cpsat.NewConstant(1)).OnlyEnforceIf(nonempty)
			m.CP.AddLessOrEqual(sum, cpsat.NewConstant(0)).OnlyEnforceIf(nonempty.Not())
			m.CP.AddGreaterOrEqual(drivers, cpsat.NewConstant(1)).OnlyEnforceIf(nonempty).
				WithName(fmt.Sprintf("some_driver[%s]", sv.Slot))

			full := m.CP.NewBoolVar().WithName(fmt.Sprintf("full[%s]", sv.Slot))
			sv.Full = &full
			m.CP.AddGreaterOrEqual(sum, cpsat.NewConstant(capacity)).OnlyEnforceIf(full)
			m.CP.AddLessOrEqual(sum, cpsat.NewConstant(capacity-1)).OnlyEnforceIf(full.Not())
			m.CP.AddGreaterOrEqual(drivers, cpsat.NewConstant(driverMin)).OnlyEnforceIf(full).
				WithName(fmt.Sprintf("full_drivers[%s]", sv.Slot))
		}
	}
}
