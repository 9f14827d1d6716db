package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agrid-Dev/radiantctl/internal/radiant"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "radiant.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec, err := s.StartRun(ctx, "hq")
	require.NoError(t, err)

	run, err := s.GetRun(ctx, rec.RunID)
	require.NoError(t, err)
	assert.Equal(t, "hq", run.BuildingID)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, s.FinishRun(ctx, rec.RunID, 960))
	run, err = s.GetRun(ctx, rec.RunID)
	require.NoError(t, err)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, 960, run.Steps)

	_, err = s.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.FinishRun(ctx, uuid.New(), 1), ErrRunNotFound)
}

func TestRecordDay(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rec, err := s.StartRun(ctx, "hq")
	require.NoError(t, err)

	design := radiant.DaySummary{Environment: "design day 1", Zone: "North", Day: 0, DesignDay: true, SlabSetpoint: 20}
	require.NoError(t, rec.RecordDay(ctx, design))
	for day := 2; day >= 0; day-- {
		require.NoError(t, rec.RecordDay(ctx, radiant.DaySummary{
			Environment:  "run period",
			Zone:         "North",
			Day:          day,
			DayOfWeek:    radiant.Monday + day,
			Mode:         radiant.ModeHeating,
			SlabSetpoint: 21.5 + float64(day),
			HeatingError: 0.4,
			HeatHours:    6.25,
			Setback:      day == 1,
		}))
	}
	require.NoError(t, rec.RecordDay(ctx, radiant.DaySummary{Environment: "run period", Zone: "South", Day: 0}))

	days, err := s.DaySummaries(ctx, rec.RunID, "North")
	require.NoError(t, err)
	require.Len(t, days, 3)
	for i, d := range days {
		assert.Equal(t, i, d.Day)
		assert.False(t, d.DesignDay)
		assert.Equal(t, radiant.ModeHeating, d.Mode)
		assert.InDelta(t, 21.5+float64(i), d.SlabSetpoint, 1e-12)
	}
	assert.True(t, days[1].Setback)
	assert.Equal(t, 6.25, days[0].HeatHours)

	// re-recording a day replaces it
	require.NoError(t, rec.RecordDay(ctx, radiant.DaySummary{Environment: "run period", Zone: "North", Day: 0, SlabSetpoint: 19}))
	days, err = s.DaySummaries(ctx, rec.RunID, "North")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, 19.0, days[0].SlabSetpoint)
}

func TestRecordDay_EnvironmentsKeptApart(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rec, err := s.StartRun(ctx, "hq")
	require.NoError(t, err)

	for i, env := range []string{"winter design", "summer design"} {
		require.NoError(t, rec.RecordDay(ctx, radiant.DaySummary{
			Environment:  env,
			Zone:         "North",
			Day:          0,
			DesignDay:    true,
			SlabSetpoint: 20 + float64(i),
		}))
	}
	require.NoError(t, rec.RecordDay(ctx, radiant.DaySummary{Environment: "run period", Zone: "North", Day: 0, SlabSetpoint: 23}))

	winter, err := s.EnvironmentSummaries(ctx, rec.RunID, "winter design")
	require.NoError(t, err)
	require.Len(t, winter, 1)
	assert.Equal(t, 20.0, winter[0].SlabSetpoint)
	assert.True(t, winter[0].DesignDay)

	summer, err := s.EnvironmentSummaries(ctx, rec.RunID, "summer design")
	require.NoError(t, err)
	require.Len(t, summer, 1)
	assert.Equal(t, 21.0, summer[0].SlabSetpoint)
	assert.Equal(t, "summer design", summer[0].Environment)

	days, err := s.DaySummaries(ctx, rec.RunID, "North")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 23.0, days[0].SlabSetpoint)
}
