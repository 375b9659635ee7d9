package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/s2"
	"github.com/google/uuid"

	"github.com/banshee-data/stride.report/internal/energy"
	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/session"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrInvalidSession = errors.New("invalid session")
)

// pathTolerance bounds the difference between the stored distance and the
// distance recomputed from the stored path.
const pathTolerance = 1e-6

// Session is a stored session. Path is only populated by GetSession.
type Session struct {
	ID string `json:"session_id"`
	session.Summary
	PointCount int       `json:"point_count"`
	CreatedAt  time.Time `json:"created_at"`
}

var _ session.Persister = (*DB)(nil)

// Save validates and stores a completed session and its path in one
// transaction, returning the new session id.
func (db *DB) Save(ctx context.Context, s session.Summary) (string, error) {
	if err := validateSummary(s); err != nil {
		return "", err
	}
	id := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (
			  session_id
			, start_unix_nanos
			, end_unix_nanos
			, total_distance_km
			, total_steps
			, total_calories
			, average_speed_kmh
			, max_speed_kmh
			, max_reported_speed_kmh
			, height_cm
			, weight_kg
			, gender
			, point_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		s.StartTime.UnixNano(),
		s.EndTime.UnixNano(),
		s.TotalDistanceKm,
		s.TotalSteps,
		s.TotalCalories,
		s.AverageSpeedKmh,
		s.MaxSpeedKmh,
		s.MaxReportedSpeedKmh,
		s.Metrics.HeightCm,
		s.Metrics.WeightKg,
		string(s.Metrics.Gender),
		len(s.Path),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_points (
			  session_id, seq, latitude, longitude, unix_nanos, accuracy_m, speed_mps, altitude_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare point insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range s.Path {
		if _, err := stmt.ExecContext(ctx, id, i, f.Latitude, f.Longitude, f.Time.UnixNano(),
			f.AccuracyMeters, nullFloat(f.SpeedMps), nullFloat(f.Altitude)); err != nil {
			return "", fmt.Errorf("failed to insert point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit session: %w", err)
	}
	return id, nil
}

func validateSummary(s session.Summary) error {
	if s.EndTime.Before(s.StartTime) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidSession, s.EndTime, s.StartTime)
	}
	for _, field := range []struct {
		name string
		v    float64
	}{
		{"total_distance_km", s.TotalDistanceKm},
		{"average_speed_kmh", s.AverageSpeedKmh},
		{"max_speed_kmh", s.MaxSpeedKmh},
	} {
		if math.IsNaN(field.v) || math.IsInf(field.v, 0) || field.v < 0 {
			return fmt.Errorf("%w: %s is %v", ErrInvalidSession, field.name, field.v)
		}
	}
	for i, f := range s.Path {
		if !s2.LatLngFromDegrees(f.Latitude, f.Longitude).IsValid() {
			return fmt.Errorf("%w: point %d has invalid position %.6f,%.6f", ErrInvalidSession, i, f.Latitude, f.Longitude)
		}
		if i > 0 && !f.Time.After(s.Path[i-1].Time) {
			return fmt.Errorf("%w: point %d is not after point %d", ErrInvalidSession, i, i-1)
		}
	}
	if d := geo.PathDistanceKm(s.Path); math.Abs(d-s.TotalDistanceKm) > pathTolerance {
		return fmt.Errorf("%w: distance %.6f km does not match path %.6f km", ErrInvalidSession, s.TotalDistanceKm, d)
	}
	return nil
}

const sessionColumns = `
	  session_id
	, start_unix_nanos
	, end_unix_nanos
	, total_distance_km
	, total_steps
	, total_calories
	, average_speed_kmh
	, max_speed_kmh
	, max_reported_speed_kmh
	, height_cm
	, weight_kg
	, gender
	, point_count
	, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		s          Session
		start, end int64
		gender     string
		createdAt  int64
	)
	err := row.Scan(
		&s.ID,
		&start,
		&end,
		&s.TotalDistanceKm,
		&s.TotalSteps,
		&s.TotalCalories,
		&s.AverageSpeedKmh,
		&s.MaxSpeedKmh,
		&s.MaxReportedSpeedKmh,
		&s.Metrics.HeightCm,
		&s.Metrics.WeightKg,
		&gender,
		&s.PointCount,
		&createdAt,
	)
	if err != nil {
		return Session{}, err
	}
	s.StartTime = time.Unix(0, start).UTC()
	s.EndTime = time.Unix(0, end).UTC()
	s.Metrics.Gender = energy.ParseGender(gender)
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	return s, nil
}

// GetSession loads a session with its full path.
func (db *DB) GetSession(ctx context.Context, id string) (Session, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	path, err := db.sessionPath(ctx, id)
	if err != nil {
		return Session{}, err
	}
	s.Path = path
	return s, nil
}

func (db *DB) sessionPath(ctx context.Context, id string) ([]geo.Fix, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT latitude, longitude, unix_nanos, accuracy_m, speed_mps, altitude_m
		  FROM session_points
		 WHERE session_id = ?
		 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query path: %w", err)
	}
	defer rows.Close()

	var path []geo.Fix
	for rows.Next() {
		var (
			f               geo.Fix
			at              int64
			speed, altitude sql.NullFloat64
		)
		if err := rows.Scan(&f.Latitude, &f.Longitude, &at, &f.AccuracyMeters, &speed, &altitude); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		f.Time = time.Unix(0, at).UTC()
		f.SpeedMps = floatPtr(speed)
		f.Altitude = floatPtr(altitude)
		path = append(path, f)
	}
	return path, rows.Err()
}

// ListSessions returns sessions that started in [from, to), oldest first,
// without their paths.
func (db *DB) ListSessions(ctx context.Context, from, to time.Time) ([]Session, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+sessionColumns+`
		  FROM sessions
		 WHERE start_unix_nanos >= ? AND start_unix_nanos < ?
		 ORDER BY start_unix_nanos`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its path.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
