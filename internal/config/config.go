package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/adp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/adp-scheduler/pkg/core/availability"
	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// Requirement is the staffing target for one calendar label
type Requirement struct {
	Needed    int   `yaml:"needed" validate:"min=0"`
	DriverMin int   `yaml:"driverMin,omitempty" validate:"min=0"`
	Cap       int   `yaml:"cap,omitempty" validate:"min=0"`
	Night     bool  `yaml:"night,omitempty"`
	Active    *bool `yaml:"active,omitempty"`
}

// RequirementOverride patches the requirements of some labels on the days
// matched by an RRule within the scheduled week
type RequirementOverride struct {
	RRule     string   `yaml:"rrule" validate:"required"`
	Labels    []string `yaml:"labels" validate:"required,min=1,dive,required"`
	Active    *bool    `yaml:"active,omitempty"`
	Needed    *int     `yaml:"needed,omitempty" validate:"omitempty,min=0"`
	DriverMin *int     `yaml:"driverMin,omitempty" validate:"omitempty,min=0"`
	Cap       *int     `yaml:"cap,omitempty" validate:"omitempty,min=0"`
}

// Weights overrides the default objective weights. Unset fields keep their defaults.
type Weights struct {
	Missing     *int64 `yaml:"missing,omitempty" validate:"omitempty,min=0"`
	Slack       *int64 `yaml:"slack,omitempty" validate:"omitempty,min=0"`
	Fairness    *int64 `yaml:"fairness,omitempty" validate:"omitempty,min=0"`
	NightLoad   *int64 `yaml:"nightLoad,omitempty" validate:"omitempty,min=0"`
	RegularLoad *int64 `yaml:"regularLoad,omitempty" validate:"omitempty,min=0"`
}

// Solver configures the search. Backend is "sat" (the default) or "search";
// Workers, Seed and NodeLimit only apply to the search backend.
type Solver struct {
	Backend    string `yaml:"backend,omitempty" validate:"omitempty,oneof=sat search"`
	TimeBudget string `yaml:"timeBudget,omitempty"`
	Workers    int    `yaml:"workers,omitempty" validate:"min=0,max=64"`
	Seed       uint64 `yaml:"seed,omitempty"`
	NodeLimit  int64  `yaml:"nodeLimit,omitempty" validate:"min=0"`
}

// Availability configures how roster entries are resolved
type Availability struct {
	WeekendFullyAvailable bool     `yaml:"weekendFullyAvailable,omitempty"`
	AlwaysAvailable       []string `yaml:"alwaysAvailable,omitempty" validate:"dive,required"`
}

// Database configures the run history store
type Database struct {
	ConnectionString string `yaml:"connectionString,omitempty"`
}

// Sheets configures the Google Sheets roster source and publish target
type Sheets struct {
	RosterSheetID   string `yaml:"rosterSheetID,omitempty"`
	RosterTab       string `yaml:"rosterTab,omitempty" validate:"required_with=RosterSheetID"`
	ScheduleSheetID string `yaml:"scheduleSheetID,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Calendar      []string               `yaml:"calendar" validate:"required,min=1,dive,required"`
	Requirements  map[string]Requirement `yaml:"requirements" validate:"required,min=1,dive"`
	Overrides     []RequirementOverride  `yaml:"overrides,omitempty" validate:"dive"`
	Weights       Weights                `yaml:"weights,omitempty"`
	Solver        Solver                 `yaml:"solver,omitempty"`
	Availability  Availability           `yaml:"availability,omitempty"`
	NightCoverage string                 `yaml:"nightCoverage,omitempty" validate:"omitempty,oneof=hard soft"`
	Database      Database               `yaml:"database,omitempty"`
	Sheets        Sheets                 `yaml:"sheets,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from scheduler_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration with an environment suffix
// For example, env="test" will look for "scheduler_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findFile(envFileName("scheduler_config", ".yaml", env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, label references and rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	calendar := cfg.ModelCalendar()
	for label := range cfg.Requirements {
		if !calendar.Contains(model.ShiftLabel(label)) {
			return fmt.Errorf("requirement label %q is not in the calendar", label)
		}
	}

	for i, override := range cfg.Overrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in overrides[%d]: %w", i, err)
		}
		for _, label := range override.Labels {
			if !calendar.Contains(model.ShiftLabel(label)) {
				return fmt.Errorf("label %q in overrides[%d] is not in the calendar", label, i)
			}
		}
	}

	for _, label := range cfg.Availability.AlwaysAvailable {
		if !calendar.Contains(model.ShiftLabel(label)) {
			return fmt.Errorf("always-available label %q is not in the calendar", label)
		}
	}

	if _, err := cfg.timeBudget(); err != nil {
		return err
	}

	return nil
}

// ModelCalendar returns the configured calendar
func (c *Config) ModelCalendar() model.Calendar {
	labels := make([]model.ShiftLabel, len(c.Calendar))
	for i, label := range c.Calendar {
		labels[i] = model.ShiftLabel(label)
	}
	return model.Calendar{Labels: labels}
}

// RequirementTable resolves the configured requirements for the week starting
// on weekStart, expanding each override's RRule to the days it hits that week
func (c *Config) RequirementTable(weekStart time.Time) (model.RequirementTable, error) {
	table := model.RequirementTable{
		Labels: make(map[model.ShiftLabel]model.Requirement, len(c.Requirements)),
	}
	for label, req := range c.Requirements {
		active := true
		if req.Active != nil {
			active = *req.Active
		}
		table.Labels[model.ShiftLabel(label)] = model.Requirement{
			Needed:    req.Needed,
			DriverMin: req.DriverMin,
			Cap:       req.Cap,
			IsNight:   req.Night,
			Active:    active,
		}
	}

	start := model.WeekStart(weekStart)
	end := start.AddDate(0, 0, 7).Add(-time.Second)

	for i, override := range c.Overrides {
		rule, err := rrule.StrToRRule(override.RRule)
		if err != nil {
			return model.RequirementTable{}, fmt.Errorf("failed to parse rrule for override %d: %w", i, err)
		}
		// Rules without their own DTSTART are anchored to the scheduled week
		if !strings.Contains(strings.ToUpper(override.RRule), "DTSTART") {
			rule.DTStart(start)
		}

		patch := model.RequirementPatch{
			Active:    override.Active,
			Needed:    override.Needed,
			DriverMin: override.DriverMin,
			Cap:       override.Cap,
		}
		for _, occurrence := range rule.Between(start, end, true) {
			for _, label := range override.Labels {
				table.Overrides = append(table.Overrides, model.RequirementOverride{
					Day:   model.DayOf(occurrence),
					Label: model.ShiftLabel(label),
					Patch: patch,
				})
			}
		}
	}

	return table, nil
}

// AllocatorConfig builds the allocator configuration, starting from the defaults
func (c *Config) AllocatorConfig() (allocator.Config, error) {
	cfg := allocator.DefaultConfig()

	setWeight(&cfg.Weights.Missing, c.Weights.Missing)
	setWeight(&cfg.Weights.Slack, c.Weights.Slack)
	setWeight(&cfg.Weights.Fairness, c.Weights.Fairness)
	setWeight(&cfg.Weights.NightLoad, c.Weights.NightLoad)
	setWeight(&cfg.Weights.RegularLoad, c.Weights.RegularLoad)

	if c.NightCoverage != "" {
		cfg.NightMode = allocator.NightMode(c.NightCoverage)
	}

	budget, err := c.timeBudget()
	if err != nil {
		return allocator.Config{}, err
	}
	cfg.Search = cpsat.Parameters{
		TimeBudget: budget,
		Workers:    max(c.Solver.Workers, 1),
		Seed:       c.Solver.Seed,
		NodeLimit:  c.Solver.NodeLimit,
	}

	return cfg, nil
}

// ResolverOptions returns the availability resolver options for this calendar
func (c *Config) ResolverOptions() availability.Options {
	always := make([]model.ShiftLabel, len(c.Availability.AlwaysAvailable))
	for i, label := range c.Availability.AlwaysAvailable {
		always[i] = model.ShiftLabel(label)
	}
	return availability.Options{
		Calendar:              c.ModelCalendar(),
		WeekendFullyAvailable: c.Availability.WeekendFullyAvailable,
		AlwaysAvailable:       always,
	}
}

func (c *Config) timeBudget() (time.Duration, error) {
	if c.Solver.TimeBudget == "" {
		return cpsat.DefaultTimeBudget, nil
	}
	budget, err := time.ParseDuration(c.Solver.TimeBudget)
	if err != nil {
		return 0, fmt.Errorf("invalid solver.timeBudget: %w", err)
	}
	if budget <= 0 {
		return 0, fmt.Errorf("solver.timeBudget must be positive, got %s", budget)
	}
	return budget, nil
}

func setWeight(dst *int64, value *int64) {
	if value != nil {
		*dst = *value
	}
}

// envFileName inserts env before the extension, e.g. ("scheduler_config", ".yaml", "test")
// gives "scheduler_config.test.yaml"
func envFileName(base, ext, env string) string {
	if env == "" {
		return base + ext
	}
	return base + "." + env + ext
}

// findFile looks for name in the current directory, then the home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
