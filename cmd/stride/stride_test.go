package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/stride.report/internal/config"
	"github.com/banshee-data/stride.report/internal/db"
	"github.com/banshee-data/stride.report/internal/filter"
	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/geosource"
	"github.com/banshee-data/stride.report/internal/session"
	"github.com/banshee-data/stride.report/internal/testutil"
)

func writeReplay(t *testing.T, fixes []geo.Fix, extra ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("# recorded walk\n")
	for _, f := range fixes {
		line, err := geosource.EncodeJSON(f)
		require.NoError(t, err)
		b.WriteString(line + "\n")
	}
	for _, l := range extra {
		b.WriteString(l + "\n")
	}
	path := filepath.Join(t.TempDir(), "walk.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func tuning(t *testing.T) *config.TuningConfig {
	t.Helper()
	c := config.DefaultTuningConfig()
	h, w, g := 175.0, 75.0, "male"
	c.DefaultHeightCm, c.DefaultWeightKg, c.DefaultGender = &h, &w, &g
	return c
}

func TestReplayEndToEnd(t *testing.T) {
	walk := testutil.Walk(7, 90, 83.0/6, 10*time.Second, 5)
	path := writeReplay(t, walk, geosource.EncodeJSONError(geosource.ErrTimeout), "not json")

	store, err := db.NewDB(filepath.Join(t.TempDir(), "stride.db"))
	require.NoError(t, err)
	defer store.Close()

	rcv, err := openReplay(path, "json", tuning(t))
	require.NoError(t, err)
	defer rcv.Close()

	res, err := newEngine(tuning(t), rcv, store).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	require.NotEmpty(t, res.SessionID)

	assert.Equal(t, testutil.Epoch, res.Summary.StartTime)
	assert.Equal(t, walk[len(walk)-1].Time, res.Summary.EndTime)
	assert.Equal(t, uint32(110), res.Summary.TotalSteps)
	assert.InDelta(t, 0.083, res.Summary.TotalDistanceKm, 1e-3)

	stored, err := store.GetSession(context.Background(), res.SessionID)
	require.NoError(t, err)
	if diff := cmp.Diff(*res.Summary, stored.Summary); diff != "" {
		t.Errorf("stored session mismatch (-want +got):\n%s", diff)
	}

	st := rcv.Stats()
	assert.Equal(t, int64(1), st.Malformed)
	assert.Equal(t, int64(1), st.Errors)
}

func TestReplayStopsOnContext(t *testing.T) {
	path := writeReplay(t, testutil.Walk(3, 0, 20, 5*time.Second, 5))
	rcv, err := openReplay(path, "json", tuning(t))
	require.NoError(t, err)
	defer rcv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := newEngine(tuning(t), rcv, nil).Run(ctx)
	require.NoError(t, err)
	// Fixes may or may not have been read before the stop; either way
	// nothing is saved without a store.
	assert.Empty(t, res.SessionID)
}

func TestOpenReplayErrors(t *testing.T) {
	_, err := openReplay(filepath.Join(t.TempDir(), "missing.jsonl"), "json", tuning(t))
	assert.Error(t, err)

	empty := writeReplay(t, nil)
	_, err = openReplay(empty, "json", tuning(t))
	assert.ErrorContains(t, err, "no fix")

	_, err = openReplay(empty, "gpx", tuning(t))
	assert.ErrorContains(t, err, "unknown replay format")
}

func TestOpenReceiverMissingDevice(t *testing.T) {
	rcv, err := openReceiver(filepath.Join(t.TempDir(), "ttyNONE"), tuning(t))
	require.NoError(t, err)
	_, ok := rcv.(disabledReceiver)
	require.True(t, ok, "expected a disabled receiver, got %T", rcv)

	_, err = newEngine(tuning(t), rcv, nil).Run(context.Background())
	assert.ErrorIs(t, err, geosource.ErrUnsupported)
}

func TestSessionConfig(t *testing.T) {
	got := sessionConfig(config.DefaultTuningConfig())
	want := session.Config{
		Filter:       filter.New(20, 0.005),
		SpeedWindow:  5,
		QueueSize:    64,
		TickInterval: time.Second,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("session config mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFlag(t *testing.T) {
	c := config.DefaultTuningConfig()
	*height, *weight, *gender = 180, 82, "female"
	*maxAccuracy, *fixTimeout, *baudRate = 15, "0s", 4800
	t.Cleanup(func() {
		*height, *weight, *gender = 0, 0, ""
		*maxAccuracy, *fixTimeout, *baudRate = 0, "", 0
	})
	for _, name := range []string{"height", "weight", "gender", "max-accuracy", "fix-timeout", "baud", "unknown"} {
		applyFlag(c, name)
	}

	require.NoError(t, c.Validate())
	assert.Equal(t, 180.0, c.GetBodyMetrics().HeightCm)
	assert.Equal(t, 82.0, c.GetBodyMetrics().WeightKg)
	assert.Equal(t, "female", string(c.GetBodyMetrics().Gender))
	assert.Equal(t, 15.0, c.GetMaxAccuracyMeters())
	assert.Zero(t, c.GetFixTimeout())
	assert.Equal(t, 4800, c.GetBaudRate())
}

func TestLoadTuningFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	c, err := loadTuning(config.DefaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 20.0, c.GetMaxAccuracyMeters())

	_, err = loadTuning(filepath.Join(dir, "other.json"))
	assert.Error(t, err, "only the default path may be missing")
}
