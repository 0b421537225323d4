package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jakechorley/adp-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/adp-scheduler/pkg/core/availability"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

// mockRunStore implements db.Database in memory
type mockRunStore struct {
	mu        sync.Mutex
	records   map[string]*db.RunRecord
	insertErr error
	getErr    error
	replaced  int
}

func newMockRunStore() *mockRunStore {
	return &mockRunStore{records: make(map[string]*db.RunRecord)}
}

func copyRecord(r *db.RunRecord) *db.RunRecord {
	return &db.RunRecord{
		Run:         r.Run,
		People:      slices.Clone(r.People),
		Slots:       slices.Clone(r.Slots),
		Assignments: slices.Clone(r.Assignments),
		Conflicts:   slices.Clone(r.Conflicts),
	}
}

func (m *mockRunStore) InsertRun(ctx context.Context, record *db.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.records[record.Run.ID] = copyRecord(record)
	return nil
}

func (m *mockRunStore) GetRuns(ctx context.Context) ([]db.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	runs := make([]db.Run, 0, len(m.records))
	for _, r := range m.records {
		runs = append(runs, r.Run)
	}
	return runs, nil
}

func (m *mockRunStore) GetRun(ctx context.Context, id string) (*db.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", db.ErrRunNotFound, id)
	}
	return copyRecord(r), nil
}

func (m *mockRunStore) ReplaceConflicts(ctx context.Context, runID string, conflicts []db.Conflict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[runID]
	if !ok {
		return fmt.Errorf("%w: %s", db.ErrRunNotFound, runID)
	}
	r.Conflicts = slices.Clone(conflicts)
	r.Run.Conflicts = len(conflicts)
	m.replaced++
	return nil
}

func (m *mockRunStore) SetRunPublished(ctx context.Context, runID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[runID]
	if !ok {
		return fmt.Errorf("%w: %s", db.ErrRunNotFound, runID)
	}
	r.Run.Published = &at
	return nil
}

// mockPublisher implements SchedulePublisher
type mockPublisher struct {
	sheetID   string
	published *sheetsclient.PublishedSchedule
	err       error
}

func (m *mockPublisher) PublishSchedule(ctx context.Context, spreadsheetID string, schedule *sheetsclient.PublishedSchedule) error {
	if m.err != nil {
		return m.err
	}
	m.sheetID = spreadsheetID
	m.published = schedule
	return nil
}

// mockRosterSource implements RosterSource
type mockRosterSource struct {
	people  []availability.RawPerson
	listErr error
	calls   int
}

func (m *mockRosterSource) ListPeople(ctx context.Context, spreadsheetID, tab string) ([]availability.RawPerson, error) {
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.people, nil
}
