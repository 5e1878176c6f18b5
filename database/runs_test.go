package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/describer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunsNewRunsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewRunsDBHandler", func(t *testing.T) {
		runsDbHandler, err := NewRunsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewRunsDBHandler to not return an error")
		require.NotNil(t, runsDbHandler, "Expected NewRunsDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewRunsDBHandler with nil database", func(t *testing.T) {
		_, err := NewRunsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating RunsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestRunsInsertAndSelect(t *testing.T) {
	database := initDB(t)

	runsDbHandler, err := NewRunsDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Insert and select run report", func(t *testing.T) {
		report := &model.RunReport{
			RunID:     uuid.New(),
			Generated: 3,
			Seeded:    1,
			Skipped:   5,
			Failed:    1,
			Failures: []model.GenerationFailure{
				{Identity: model.Identity{Kind: model.KindMetric, ID: "revenue"}, Reason: "rejected by validation"},
			},
			Persisted:  true,
			StartedAt:  time.Now().UTC().Add(-time.Minute),
			FinishedAt: time.Now().UTC(),
		}

		err := runsDbHandler.InsertRun(report)
		assert.NoError(t, err, "Expected InsertRun to not return an error")

		selected, err := runsDbHandler.SelectRun(report.RunID)
		assert.NoError(t, err, "Expected SelectRun to not return an error")
		require.NotNil(t, selected, "Expected SelectRun to return the inserted report")
		assert.Equal(t, report.Generated, selected.Generated)
		assert.Equal(t, report.Seeded, selected.Seeded)
		assert.Equal(t, report.Skipped, selected.Skipped)
		assert.Equal(t, report.Failed, selected.Failed)
		assert.True(t, selected.Persisted)
		require.Len(t, selected.Failures, 1)
		assert.Equal(t, "revenue", selected.Failures[0].Identity.ID)
		assert.Equal(t, "rejected by validation", selected.Failures[0].Reason)
	})

	t.Run("Select missing run returns nil", func(t *testing.T) {
		selected, err := runsDbHandler.SelectRun(uuid.New())
		assert.NoError(t, err, "Expected SelectRun of missing run to not return an error")
		assert.Nil(t, selected, "Expected SelectRun of missing run to return nil")
	})

	t.Run("Select all runs newest first", func(t *testing.T) {
		older := &model.RunReport{
			RunID:      uuid.New(),
			StartedAt:  time.Now().UTC().Add(-2 * time.Hour),
			FinishedAt: time.Now().UTC().Add(-2 * time.Hour),
		}
		newer := &model.RunReport{
			RunID:      uuid.New(),
			Generated:  2,
			StartedAt:  time.Now().UTC(),
			FinishedAt: time.Now().UTC(),
		}
		require.NoError(t, runsDbHandler.InsertRun(older))
		require.NoError(t, runsDbHandler.InsertRun(newer))

		reports, err := runsDbHandler.SelectAllRuns(100)
		assert.NoError(t, err)
		require.GreaterOrEqual(t, len(reports), 2, "Expected at least two run reports")
		assert.Equal(t, newer.RunID, reports[0].RunID, "Expected the most recent run first")
	})
}
