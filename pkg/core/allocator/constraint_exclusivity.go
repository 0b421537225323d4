package allocator

import (
	"fmt"

	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// addExclusivity allows each person at most one shift per day
func (m *Model) addExclusivity() {
	for pi, person := range m.Problem.People {
		for _, day := range model.Week {
			vars := m.personDayVars(pi, day, false)
			if len(vars) < 2 {
				continue
			}
			m.CP.AddAtMostOne(vars...).WithName(fmt.Sprintf("one_per_day[%s|%s]", person.Name, day))
		}
	}
}
