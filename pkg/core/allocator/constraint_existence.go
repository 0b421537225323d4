package allocator

import (
	"fmt"
)

// addExistence creates an assignment variable for every (person, slot) pair
// whose label the person offered on that day, and for no other pair.
func (m *Model) addExistence() {
	for si, slot := range m.Problem.Calendar.Slots() {
		req, _ := m.Problem.Requirement(slot)
		sv := &SlotVars{Slot: slot, Requirement: req}

		for pi, person := range m.Problem.People {
			if !person.IsAvailable(slot.Day, slot.Label) {
				continue
			}
			key := VarKey{Person: pi, Slot: si}
			m.Assign[key] = m.CP.NewBoolVar().WithName(fmt.Sprintf("assign[%s|%s]", person.Name, slot))
			m.Keys = append(m.Keys, key)
			sv.Keys = append(sv.Keys, key)
			m.byPerson[pi] = append(m.byPerson[pi], key)
		}

		m.Slots = append(m.Slots, sv)
	}
}
