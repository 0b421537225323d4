package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/internal/config"
	"github.com/jakechorley/adp-scheduler/pkg/core/availability"
	"github.com/jakechorley/adp-scheduler/pkg/core/model"
	"github.com/jakechorley/adp-scheduler/pkg/roster"
)

// RosterSource reads raw roster entries from a spreadsheet tab
type RosterSource interface {
	ListPeople(ctx context.Context, spreadsheetID, tab string) ([]availability.RawPerson, error)
}

// Roster is a resolved roster and where it came from
type Roster struct {
	People []model.Person
	Source string
}

// LoadRoster reads the roster from a file when path is set, otherwise from the
// configured Google Sheet, and resolves everyone's availability
func LoadRoster(ctx context.Context, path string, sheets RosterSource, cfg *config.Config, logger *zap.Logger) (*Roster, error) {
	var raws []availability.RawPerson
	var source string
	var err error

	switch {
	case path != "":
		logger.Debug("Reading roster file", zap.String("path", path))
		raws, err = roster.LoadFromPath(path)
		source = "file:" + path
	case sheets != nil && cfg.Sheets.RosterSheetID != "":
		logger.Debug("Reading roster sheet",
			zap.String("sheet_id", cfg.Sheets.RosterSheetID),
			zap.String("tab", cfg.Sheets.RosterTab))
		raws, err = sheets.ListPeople(ctx, cfg.Sheets.RosterSheetID, cfg.Sheets.RosterTab)
		source = "sheet:" + cfg.Sheets.RosterSheetID + "/" + cfg.Sheets.RosterTab
	default:
		return nil, fmt.Errorf("no roster given: pass --roster or configure sheets.rosterSheetID")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	resolver, err := availability.NewResolver(cfg.ResolverOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create availability resolver: %w", err)
	}

	people, err := resolver.ResolveAll(raws)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve availability: %w", err)
	}

	drivers := 0
	for _, person := range people {
		if person.CanDrive {
			drivers++
		}
	}
	logger.Debug("Resolved roster",
		zap.String("source", source),
		zap.Int("people", len(people)),
		zap.Int("drivers", drivers))

	return &Roster{People: people, Source: source}, nil
}

// NormalizeRoster resolves a roster and encodes it back as a roster file with
// full calendar labels on every day
func NormalizeRoster(ctx context.Context, path string, sheets RosterSource, cfg *config.Config, logger *zap.Logger) ([]byte, error) {
	r, err := LoadRoster(ctx, path, sheets, cfg, logger)
	if err != nil {
		return nil, err
	}
	return roster.Marshal(roster.FromPeople(r.People))
}
