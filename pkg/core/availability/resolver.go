package availability

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// Options configures how raw roster entries are turned into availability
type Options struct {
	Calendar model.Calendar

	// WeekendFullyAvailable makes Saturday and Sunday fully available when a
	// person gives no data for them
	WeekendFullyAvailable bool

	// AlwaysAvailable labels are added to every day regardless of class schedule
	AlwaysAvailable []model.ShiftLabel
}

// RawPerson is a roster entry before normalisation. For each day, explicit
// Availability labels win over a Busy class schedule.
type RawPerson struct {
	Name         string
	CanDrive     bool
	MaxShifts    int
	Availability map[model.Day][]string
	Busy         map[model.Day]string
}

// minutes in a day; windows crossing midnight end past it
const dayMinutes = 24 * 60

type window struct {
	label      model.ShiftLabel
	start, end int // minutes since midnight of the slot's day
}

// Resolver converts raw roster entries into resolved people
type Resolver struct {
	opts    Options
	windows []window
}

var (
	periodPattern = regexp.MustCompile(`(\d{1,2}:\d{2})\s*[–-]\s*(\d{1,2}:\d{2})`)
	shortPattern  = regexp.MustCompile(`^(\d{1,2})\s*[–-]\s*(\d{1,2})$`)
)

// NewResolver parses the calendar labels into time windows.
// Every calendar label must have the form "HH:MM-HH:MM". A label ending at or
// before its start, such as "22:00-06:00", runs past midnight into the next day.
func NewResolver(opts Options) (*Resolver, error) {
	r := &Resolver{opts: opts}
	seen := make(map[model.ShiftLabel]bool)
	for _, label := range opts.Calendar.Labels {
		if seen[label] {
			continue
		}
		seen[label] = true
		start, end, err := parsePeriod(string(label))
		if err != nil {
			return nil, fmt.Errorf("invalid calendar label %q: %w", label, err)
		}
		r.windows = append(r.windows, window{label: label, start: start, end: end})
	}
	for _, label := range opts.AlwaysAvailable {
		if !opts.Calendar.Contains(label) {
			return nil, fmt.Errorf("always-available label %q is not in the calendar", label)
		}
	}
	return r, nil
}

// Resolve normalises one roster entry. Every day of the week is present in the
// result, possibly with no labels.
func (r *Resolver) Resolve(raw RawPerson) (model.Person, error) {
	name := CleanName(raw.Name)
	if name == "" {
		return model.Person{}, fmt.Errorf("roster entry has an empty name")
	}
	if raw.MaxShifts < 0 {
		return model.Person{}, fmt.Errorf("%s has a negative shift cap %d", name, raw.MaxShifts)
	}

	person := model.Person{
		Name:         name,
		CanDrive:     raw.CanDrive,
		MaxShifts:    raw.MaxShifts,
		Availability: make(map[model.Day][]model.ShiftLabel, len(model.Week)),
	}

	for _, day := range model.Week {
		var labels []model.ShiftLabel
		explicit, hasExplicit := raw.Availability[day]
		busy, hasBusy := raw.Busy[day]

		switch {
		case hasExplicit:
			normalized, err := r.NormalizeLabels(explicit)
			if err != nil {
				return model.Person{}, fmt.Errorf("failed to normalize %s availability for %s: %w", day, name, err)
			}
			labels = normalized
		case hasBusy:
			labels = r.FromBusyPeriods(busy)
		case r.opts.WeekendFullyAvailable && day.IsWeekend():
			labels = r.allLabels()
		}

		labels = append(labels, r.opts.AlwaysAvailable...)
		person.Availability[day] = r.inCalendarOrder(labels)
	}

	return person, nil
}

// ResolveAll resolves a whole roster, rejecting duplicate names
func (r *Resolver) ResolveAll(raws []RawPerson) ([]model.Person, error) {
	people := make([]model.Person, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		person, err := r.Resolve(raw)
		if err != nil {
			return nil, err
		}
		if seen[person.Name] {
			return nil, fmt.Errorf("duplicate person name %q in roster", person.Name)
		}
		seen[person.Name] = true
		people = append(people, person)
	}
	return people, nil
}

// NormalizeLabels maps free-form labels onto calendar labels. Full labels such as
// "08:00-11:00" pass through; short forms such as "8-11" or "2-8 (Night Shift)"
// take the first calendar label with matching clock hours not already used,
// so a second "8-11" in the same list resolves to "20:00-23:00".
func (r *Resolver) NormalizeLabels(raw []string) ([]model.ShiftLabel, error) {
	used := make(map[model.ShiftLabel]bool, len(raw))
	labels := make([]model.ShiftLabel, 0, len(raw))

	for _, entry := range raw {
		text := strings.TrimSpace(entry)
		if i := strings.Index(text, "("); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		if text == "" {
			continue
		}

		label, err := r.match(text, used)
		if err != nil {
			return nil, err
		}
		used[label] = true
		labels = append(labels, label)
	}
	return labels, nil
}

func (r *Resolver) match(text string, used map[model.ShiftLabel]bool) (model.ShiftLabel, error) {
	if start, end, err := parsePeriod(text); err == nil {
		for _, w := range r.windows {
			if w.start == start && w.end == end {
				return w.label, nil
			}
		}
		return "", fmt.Errorf("label %q is not in the calendar", text)
	}

	m := shortPattern.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("unrecognised shift label %q", text)
	}
	startHour, _ := strconv.Atoi(m[1])
	endHour, _ := strconv.Atoi(m[2])

	var fallback model.ShiftLabel
	for _, w := range r.windows {
		if (w.start/60)%12 != startHour%12 || (w.end/60)%12 != endHour%12 || w.start%60 != 0 || w.end%60 != 0 {
			continue
		}
		if !used[w.label] {
			return w.label, nil
		}
		if fallback == "" {
			fallback = w.label
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("label %q matches no calendar shift", text)
}

// FromBusyPeriods returns the calendar labels that do not overlap any of the
// busy periods found in text. Periods are written "HH:MM-HH:MM" or with an en dash.
func (r *Resolver) FromBusyPeriods(text string) []model.ShiftLabel {
	type period struct{ start, end int }
	var busy []period
	for _, m := range periodPattern.FindAllStringSubmatch(text, -1) {
		start, err := parseClock(m[1])
		if err != nil {
			continue
		}
		end, err := parseClock(m[2])
		if err != nil {
			continue
		}
		if end <= start {
			end += dayMinutes
		}
		busy = append(busy, period{start: start, end: end})
	}

	labels := make([]model.ShiftLabel, 0, len(r.windows))
	for _, w := range r.windows {
		free := true
		for _, p := range busy {
			if !(p.end <= w.start || p.start >= w.end) {
				free = false
				break
			}
		}
		if free {
			labels = append(labels, w.label)
		}
	}
	return labels
}

func (r *Resolver) allLabels() []model.ShiftLabel {
	labels := make([]model.ShiftLabel, len(r.windows))
	for i, w := range r.windows {
		labels[i] = w.label
	}
	return labels
}

// inCalendarOrder dedupes labels and sorts them into calendar order
func (r *Resolver) inCalendarOrder(labels []model.ShiftLabel) []model.ShiftLabel {
	want := make(map[model.ShiftLabel]bool, len(labels))
	for _, label := range labels {
		want[label] = true
	}
	ordered := make([]model.ShiftLabel, 0, len(want))
	for _, w := range r.windows {
		if want[w.label] {
			ordered = append(ordered, w.label)
		}
	}
	return ordered
}

// CleanName strips the driver marker and surrounding whitespace from a name
func CleanName(name string) string {
	name = strings.ReplaceAll(name, "🚗", "")
	return strings.TrimSpace(name)
}

func parsePeriod(text string) (int, int, error) {
	m := periodPattern.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[0]) != strings.TrimSpace(text) {
		return 0, 0, fmt.Errorf("expected HH:MM-HH:MM, got %q", text)
	}
	start, err := parseClock(m[1])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(m[2])
	if err != nil {
		return 0, 0, err
	}
	switch {
	case end == start:
		return 0, 0, fmt.Errorf("period %q is empty", text)
	case end < start:
		end += dayMinutes
	}
	return start, end, nil
}

func parseClock(text string) (int, error) {
	hours, minutes, ok := strings.Cut(text, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", text)
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in %q", text)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", text)
	}
	return h*60 + m, nil
}
