package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/pkg/db"
)

const runColumns = `id, week_start, created_at, source, calendar, outcome, objective,
	shortfall, fairness, conflict_count, nodes, wall_time_ms, published_at`

// InsertRun stores a run and all of its rows in one transaction
func (d *DB) InsertRun(ctx context.Context, record *db.RunRecord) error {
	run := record.Run
	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO run (`+runColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, run.ID, run.WeekStart, run.CreatedAt, run.Source, run.Calendar, run.Outcome, run.Objective,
			run.Shortfall, run.Fairness, run.Conflicts, run.Nodes, run.WallTimeMS, run.Published)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"run_person"},
			[]string{"run_id", "position", "name", "can_drive", "max_shifts", "availability", "shifts", "load"},
			pgx.CopyFromSlice(len(record.People), func(i int) ([]any, error) {
				p := record.People[i]
				return []any{run.ID, p.Position, p.Name, p.CanDrive, p.MaxShifts, p.Availability, p.Shifts, p.Load}, nil
			}),
		); err != nil {
			return fmt.Errorf("failed to insert run people: %w", err)
		}

		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"slot_result"},
			[]string{"run_id", "day", "instance", "label", "needed", "driver_min", "cap", "is_night",
				"assigned", "drivers", "shortfall", "missing"},
			pgx.CopyFromSlice(len(record.Slots), func(i int) ([]any, error) {
				s := record.Slots[i]
				return []any{run.ID, s.Day, s.Instance, s.Label, s.Needed, s.DriverMin, s.Cap, s.IsNight,
					s.Assigned, s.Drivers, s.Shortfall, s.Missing}, nil
			}),
		); err != nil {
			return fmt.Errorf("failed to insert slot results: %w", err)
		}

		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"assignment"},
			[]string{"id", "run_id", "person", "day", "instance", "label"},
			pgx.CopyFromSlice(len(record.Assignments), func(i int) ([]any, error) {
				a := record.Assignments[i]
				return []any{a.ID, run.ID, a.Person, a.Day, a.Instance, a.Label}, nil
			}),
		); err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}

		return insertConflicts(ctx, tx, run.ID, record.Conflicts)
	})
	if err != nil {
		return err
	}

	d.logger.Debug("Stored run",
		zap.String("run_id", run.ID),
		zap.Int("assignments", len(record.Assignments)),
		zap.Int("conflicts", len(record.Conflicts)))
	return nil
}

func insertConflicts(ctx context.Context, tx pgx.Tx, runID string, conflicts []db.Conflict) error {
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"conflict"},
		[]string{"id", "run_id", "person", "day", "slot", "check_name", "description"},
		pgx.CopyFromSlice(len(conflicts), func(i int) ([]any, error) {
			c := conflicts[i]
			return []any{c.ID, runID, c.Person, c.Day, c.Slot, c.CheckName, c.Description}, nil
		}),
	); err != nil {
		return fmt.Errorf("failed to insert conflicts: %w", err)
	}
	return nil
}

// GetRuns returns every stored run, newest first
func (d *DB) GetRuns(ctx context.Context) ([]db.Run, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+runColumns+` FROM run ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[db.Run])
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}
	return runs, nil
}

// GetRun loads a run and all of its rows
func (d *DB) GetRun(ctx context.Context, id string) (*db.RunRecord, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+runColumns+` FROM run WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[db.Run])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", db.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	record := &db.RunRecord{Run: run}

	if record.People, err = collect[db.RunPerson](ctx, d, `
		SELECT run_id, position, name, can_drive, max_shifts, availability, shifts, load
		FROM run_person WHERE run_id = $1 ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("failed to load run people: %w", err)
	}
	if record.Slots, err = collect[db.SlotResult](ctx, d, `
		SELECT run_id, day, instance, label, needed, driver_min, cap, is_night,
			assigned, drivers, shortfall, missing
		FROM slot_result WHERE run_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to load slot results: %w", err)
	}
	if record.Assignments, err = collect[db.Assignment](ctx, d, `
		SELECT id, run_id, person, day, instance, label
		FROM assignment WHERE run_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	if record.Conflicts, err = collect[db.Conflict](ctx, d, `
		SELECT id, run_id, person, day, slot, check_name, description
		FROM conflict WHERE run_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to load conflicts: %w", err)
	}

	return record, nil
}

func collect[T any](ctx context.Context, d *DB, query string, args ...any) ([]T, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// ReplaceConflicts swaps the stored conflicts of a run for a fresh verification result
func (d *DB) ReplaceConflicts(ctx context.Context, runID string, conflicts []db.Conflict) error {
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE run SET conflict_count = $2 WHERE id = $1`, runID, len(conflicts))
		if err != nil {
			return fmt.Errorf("failed to update run: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", db.ErrRunNotFound, runID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM conflict WHERE run_id = $1`, runID); err != nil {
			return fmt.Errorf("failed to delete conflicts: %w", err)
		}
		return insertConflicts(ctx, tx, runID, conflicts)
	})
}

// SetRunPublished records when a run was published
func (d *DB) SetRunPublished(ctx context.Context, runID string, at time.Time) error {
	tag, err := d.pool.Exec(ctx, `UPDATE run SET published_at = $2 WHERE id = $1`, runID, at)
	if err != nil {
		return fmt.Errorf("failed to set published time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", db.ErrRunNotFound, runID)
	}
	return nil
}

var _ db.Database = (*DB)(nil)
