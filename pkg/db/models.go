package db

import "time"

// Run is one stored scheduling run
type Run struct {
	ID         string     `db:"id"`
	WeekStart  time.Time  `db:"week_start"`
	CreatedAt  time.Time  `db:"created_at"`
	Source     string     `db:"source"`
	Calendar   []string   `db:"calendar"`
	Outcome    string     `db:"outcome"`
	Objective  int64      `db:"objective"`
	Shortfall  int        `db:"shortfall"`
	Fairness   int64      `db:"fairness"`
	Conflicts  int        `db:"conflict_count"`
	Nodes      int64      `db:"nodes"`
	WallTimeMS int64      `db:"wall_time_ms"`
	Published  *time.Time `db:"published_at"`
}

// RunPerson is the resolved availability of one person as used by a run
type RunPerson struct {
	RunID        string              `db:"run_id"`
	Position     int                 `db:"position"`
	Name         string              `db:"name"`
	CanDrive     bool                `db:"can_drive"`
	MaxShifts    int                 `db:"max_shifts"`
	Availability map[string][]string `db:"availability"`
	Shifts       int                 `db:"shifts"`
	Load         int64               `db:"load"`
}

// SlotResult is the staffing outcome of one active slot
type SlotResult struct {
	RunID     string `db:"run_id"`
	Day       string `db:"day"`
	Instance  int    `db:"instance"`
	Label     string `db:"label"`
	Needed    int    `db:"needed"`
	DriverMin int    `db:"driver_min"`
	Cap       int    `db:"cap"`
	IsNight   bool   `db:"is_night"`
	Assigned  int    `db:"assigned"`
	Drivers   int    `db:"drivers"`
	Shortfall int    `db:"shortfall"`
	Missing   int    `db:"missing"`
}

// Assignment places one person on one slot of a run
type Assignment struct {
	ID       string `db:"id"`
	RunID    string `db:"run_id"`
	Person   string `db:"person"`
	Day      string `db:"day"`
	Instance int    `db:"instance"`
	Label    string `db:"label"`
}

// Conflict is a verifier finding stored against a run
type Conflict struct {
	ID          string `db:"id"`
	RunID       string `db:"run_id"`
	Person      string `db:"person"`
	Day         string `db:"day"`
	Slot        string `db:"slot"`
	CheckName   string `db:"check_name"`
	Description string `db:"description"`
}

// RunRecord is a run together with all of its rows
type RunRecord struct {
	Run         Run
	People      []RunPerson
	Slots       []SlotResult
	Assignments []Assignment
	Conflicts   []Conflict
}
