package db

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/stride.report/internal/energy"
	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/session"
	"github.com/banshee-data/stride.report/internal/testutil"
)

var walker = energy.BodyMetrics{HeightCm: 175, WeightKg: 75, Gender: energy.Male}

func walkSummary(start time.Time) session.Summary {
	path := testutil.Walk(7, 90, 83.0/6, 10*time.Second, 5)
	offset := start.Sub(testutil.Epoch)
	for i := range path {
		path[i].Time = path[i].Time.Add(offset)
	}
	path[2].SpeedMps = testutil.Float(1.4)
	path[3].Altitude = testutil.Float(12.5)
	return session.Summary{
		StartTime:           start,
		EndTime:             start.Add(90 * time.Second),
		TotalDistanceKm:     geo.PathDistanceKm(path),
		TotalSteps:          110,
		TotalCalories:       7,
		AverageSpeedKmh:     4.98,
		MaxSpeedKmh:         4.98,
		MaxReportedSpeedKmh: 5.04,
		Metrics:             walker,
		Path:                path,
	}
}

func TestSaveAndGetSession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	want := walkSummary(testutil.Epoch)

	id, err := db.Save(ctx, want)
	require.NoError(t, err)
	assert.Len(t, id, 36, "expected a uuid")

	got, err := db.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, len(want.Path), got.PointCount)
	assert.False(t, got.CreatedAt.IsZero())
	if diff := cmp.Diff(want, got.Summary); diff != "" {
		t.Errorf("stored session mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAssignsDistinctIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a, err := db.Save(ctx, walkSummary(testutil.Epoch))
	require.NoError(t, err)
	b, err := db.Save(ctx, walkSummary(testutil.Epoch.Add(time.Hour)))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSaveRejectsInvalidSessions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*session.Summary)
	}{
		{"negative distance", func(s *session.Summary) { s.TotalDistanceKm = -1; s.Path = nil }},
		{"nan average speed", func(s *session.Summary) { s.AverageSpeedKmh = math.NaN() }},
		{"negative max speed", func(s *session.Summary) { s.MaxSpeedKmh = -0.1 }},
		{"end before start", func(s *session.Summary) { s.EndTime = s.StartTime.Add(-time.Second) }},
		{"distance mismatch", func(s *session.Summary) { s.TotalDistanceKm += 0.01 }},
		{"invalid point", func(s *session.Summary) { s.Path[1].Latitude = 91 }},
		{"out of order path", func(s *session.Summary) { s.Path[1].Time = s.Path[0].Time }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			s := walkSummary(testutil.Epoch)
			tt.mutate(&s)

			_, err := db.Save(context.Background(), s)
			assert.ErrorIs(t, err, ErrInvalidSession)

			var n int
			require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n))
			assert.Zero(t, n, "nothing should be stored")
		})
	}
}

func TestSaveCancelledContext(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.Save(ctx, walkSummary(testutil.Epoch))
	assert.Error(t, err)
}

func TestGetSessionNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetSession(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var ids []string
	for _, offset := range []time.Duration{2 * time.Hour, 0, 24 * time.Hour} {
		id, err := db.Save(ctx, walkSummary(testutil.Epoch.Add(offset)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	got, err := db.ListSessions(ctx, testutil.Epoch, testutil.Epoch.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[1], got[0].ID, "oldest first")
	assert.Equal(t, ids[0], got[1].ID)
	assert.Nil(t, got[0].Path, "list does not load paths")
	assert.Equal(t, 7, got[0].PointCount)
}

func TestDeleteSession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.Save(ctx, walkSummary(testutil.Epoch))
	require.NoError(t, err)

	require.NoError(t, db.DeleteSession(ctx, id))
	_, err = db.GetSession(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	var points int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM session_points WHERE session_id = ?`, id).Scan(&points))
	assert.Zero(t, points, "points are removed with their session")

	assert.ErrorIs(t, db.DeleteSession(ctx, id), ErrNotFound)
}
