package allocator

import (
	"fmt"

	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// addNights limits each person to one night shift per week and forbids nights
// on adjacent days. Sunday and the following Monday belong to different runs.
func (m *Model) addNights() {
	for pi, person := range m.Problem.People {
		perDay := make(map[model.Day][]cpsat.BoolVar, len(model.Week))
		var week []cpsat.BoolVar
		for _, day := range model.Week {
			perDay[day] = m.personDayVars(pi, day, true)
			week = append(week, perDay[day]...)
		}

		if len(week) >= 2 {
			m.CP.AddAtMostOne(week...).WithName(fmt.Sprintf("one_night[%s]", person.Name))
		}

		for _, day := range model.Week {
			next, ok := day.Next()
			if !ok || len(perDay[day]) == 0 || len(perDay[next]) == 0 {
				continue
			}
			pair := append(append([]cpsat.BoolVar{}, perDay[day]...), perDay[next]...)
			m.CP.AddAtMostOne(pair...).WithName(fmt.Sprintf("no_adjacent_nights[%s|%s]", person.Name, day))
		}
	}
}
