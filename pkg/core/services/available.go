package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/internal/config"
	"github.com/jakechorley/adp-scheduler/pkg/core/availability"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
)

// AvailableResult lists who can take a shift label on one day
type AvailableResult struct {
	Day    model.Day
	Label  model.ShiftLabel
	People []model.Person
}

// Drivers returns how many of the available people can drive
func (r *AvailableResult) Drivers() int {
	n := 0
	for _, person := range r.People {
		if person.CanDrive {
			n++
		}
	}
	return n
}

// AvailablePeople loads the roster and returns everyone free for label on day,
// in roster order. The label may be a short form such as "8-11".
func AvailablePeople(
	ctx context.Context,
	path string,
	sheets RosterSource,
	cfg *config.Config,
	logger *zap.Logger,
	day model.Day,
	label string,
) (*AvailableResult, error) {
	if !day.IsValid() {
		return nil, fmt.Errorf("invalid day %d", day)
	}

	resolver, err := availability.NewResolver(cfg.ResolverOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create availability resolver: %w", err)
	}
	labels, err := resolver.NormalizeLabels([]string{label})
	if err != nil {
		return nil, fmt.Errorf("invalid slot: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no slot given")
	}

	r, err := LoadRoster(ctx, path, sheets, cfg, logger)
	if err != nil {
		return nil, err
	}

	result := &AvailableResult{Day: day, Label: labels[0]}
	for _, person := range r.People {
		if person.IsAvailable(day, result.Label) {
			result.People = append(result.People, person)
		}
	}

	logger.Debug("Listed available people",
		zap.Stringer("day", day),
		zap.String("label", string(result.Label)),
		zap.Int("available", len(result.People)),
		zap.Int("drivers", result.Drivers()))

	return result, nil
}
