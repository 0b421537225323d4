package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations_AllPendingOnFreshDatabase(t *testing.T) {
	pending, err := pendingMigrations(map[string]bool{})
	require.NoError(t, err)

	require.NotEmpty(t, pending)
	assert.Equal(t, "001_runs.sql", pending[0])
	assert.IsIncreasing(t, pending)
}

func TestPendingMigrations_SkipsApplied(t *testing.T) {
	pending, err := pendingMigrations(map[string]bool{"001_runs.sql": true})
	require.NoError(t, err)

	assert.NotContains(t, pending, "001_runs.sql")
}
