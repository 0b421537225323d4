package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/internal/config"
	"github.com/jakechorley/adp-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/adp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

// SchedulePublisher writes a schedule to a spreadsheet
type SchedulePublisher interface {
	PublishSchedule(ctx context.Context, spreadsheetID string, schedule *sheetsclient.PublishedSchedule) error
}

// PublishSchedule writes a stored run to the configured schedule spreadsheet
// and marks it published. Runs without a schedule are refused.
func PublishSchedule(
	ctx context.Context,
	database db.Database,
	publisher SchedulePublisher,
	cfg *config.Config,
	logger *zap.Logger,
	runID string,
) (*sheetsclient.PublishedSchedule, error) {
	if cfg.Sheets.ScheduleSheetID == "" {
		return nil, fmt.Errorf("sheets.scheduleSheetID is not configured")
	}

	record, err := ShowRun(ctx, database, logger, runID)
	if err != nil {
		return nil, err
	}

	outcome, err := allocator.ParseOutcome(record.Run.Outcome)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", record.Run.ID, err)
	}
	if !outcome.HasSchedule() {
		return nil, fmt.Errorf("run %s has no schedule to publish: %s", record.Run.ID, outcome.Describe())
	}
	if record.Run.Conflicts > 0 {
		logger.Warn("Publishing a run with conflicts",
			zap.String("run_id", record.Run.ID),
			zap.Int("conflicts", record.Run.Conflicts))
	}

	published := buildPublishedSchedule(record)

	logger.Debug("Publishing schedule",
		zap.String("run_id", record.Run.ID),
		zap.Int("slots", len(published.Slots)))
	if err := publisher.PublishSchedule(ctx, cfg.Sheets.ScheduleSheetID, published); err != nil {
		return nil, fmt.Errorf("failed to publish schedule: %w", err)
	}

	if err := database.SetRunPublished(ctx, record.Run.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to mark run published: %w", err)
	}

	return published, nil
}

// buildPublishedSchedule expects a record already sorted by sortRecord
func buildPublishedSchedule(record *db.RunRecord) *sheetsclient.PublishedSchedule {
	type slotKey struct {
		day, label string
		instance   int
	}
	people := make(map[slotKey][]string)
	for _, a := range record.Assignments {
		key := slotKey{day: a.Day, label: a.Label, instance: a.Instance}
		people[key] = append(people[key], a.Person)
	}

	published := &sheetsclient.PublishedSchedule{
		WeekStart: record.Run.WeekStart,
		RunID:     record.Run.ID,
		Outcome:   record.Run.Outcome,
		Slots:     make([]sheetsclient.PublishedSlot, 0, len(record.Slots)),
		Loads:     make([]sheetsclient.PublishedLoad, 0, len(record.People)),
	}

	for _, slot := range record.Slots {
		shift := slot.Label
		if slot.Instance > 0 {
			shift = fmt.Sprintf("%s #%d", slot.Label, slot.Instance+1)
		}
		published.Slots = append(published.Slots, sheetsclient.PublishedSlot{
			Day:       slot.Day,
			Shift:     shift,
			Needed:    slot.Needed,
			People:    people[slotKey{day: slot.Day, label: slot.Label, instance: slot.Instance}],
			Drivers:   slot.Drivers,
			Shortfall: slot.Shortfall,
			Missing:   slot.Missing,
		})
	}

	for _, person := range record.People {
		published.Loads = append(published.Loads, sheetsclient.PublishedLoad{
			Name:   person.Name,
			Shifts: person.Shifts,
			Load:   person.Load,
		})
	}

	return published
}
