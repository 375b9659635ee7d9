package db

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// DailyTotal aggregates the sessions that started on one local calendar day.
type DailyTotal struct {
	Date       string  `json:"date"`
	Sessions   int     `json:"sessions"`
	Steps      uint64  `json:"steps"`
	Calories   uint64  `json:"calories"`
	DistanceKm float64 `json:"distance_km"`
}

// PeriodStats summarizes the tracked days of a period. Days without a
// session do not count towards the average.
type PeriodStats struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	TotalSteps      uint64    `json:"total_steps"`
	AverageSteps    uint64    `json:"avg_steps"`
	MaxSteps        uint64    `json:"max_steps"`
	TotalCalories   uint64    `json:"total_calories"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	DaysTracked     int       `json:"days_tracked"`
}

// DailyTotals groups sessions that started in [from, to) by their start date
// in loc, oldest day first.
func (db *DB) DailyTotals(ctx context.Context, from, to time.Time, loc *time.Location) ([]DailyTotal, error) {
	if loc == nil {
		loc = time.UTC
	}
	rows, err := db.QueryContext(ctx, `
		SELECT start_unix_nanos, total_steps, total_calories, total_distance_km
		  FROM sessions
		 WHERE start_unix_nanos >= ? AND start_unix_nanos < ?`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	byDate := make(map[string]*DailyTotal)
	for rows.Next() {
		var (
			start           int64
			steps, calories uint64
			km              float64
		)
		if err := rows.Scan(&start, &steps, &calories, &km); err != nil {
			return nil, fmt.Errorf("failed to scan daily totals: %w", err)
		}
		date := time.Unix(0, start).In(loc).Format(time.DateOnly)
		d, ok := byDate[date]
		if !ok {
			d = &DailyTotal{Date: date}
			byDate[date] = d
		}
		d.Sessions++
		d.Steps += steps
		d.Calories += calories
		d.DistanceKm += km
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]DailyTotal, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// SummarizeDays folds daily totals into period statistics.
func SummarizeDays(days []DailyTotal) PeriodStats {
	var p PeriodStats
	for _, d := range days {
		p.TotalSteps += d.Steps
		p.TotalCalories += d.Calories
		p.TotalDistanceKm += d.DistanceKm
		p.MaxSteps = max(p.MaxSteps, d.Steps)
	}
	p.DaysTracked = len(days)
	if p.DaysTracked > 0 {
		p.AverageSteps = uint64(math.Round(float64(p.TotalSteps) / float64(p.DaysTracked)))
	}
	return p
}

// StatsForLastDays covers the n calendar days in loc ending with the day of
// now, today included.
func (db *DB) StatsForLastDays(ctx context.Context, now time.Time, n int, loc *time.Location) (PeriodStats, error) {
	if n <= 0 {
		return PeriodStats{}, fmt.Errorf("invalid period of %d days", n)
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day()-(n-1), 0, 0, 0, 0, loc)
	to := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)

	days, err := db.DailyTotals(ctx, from, to, loc)
	if err != nil {
		return PeriodStats{}, err
	}
	p := SummarizeDays(days)
	p.From, p.To = from, to
	return p, nil
}

// WeeklyStats is StatsForLastDays over 7 days.
func (db *DB) WeeklyStats(ctx context.Context, now time.Time, loc *time.Location) (PeriodStats, error) {
	return db.StatsForLastDays(ctx, now, 7, loc)
}

// MonthlyStats is StatsForLastDays over 30 days.
func (db *DB) MonthlyStats(ctx context.Context, now time.Time, loc *time.Location) (PeriodStats, error) {
	return db.StatsForLastDays(ctx, now, 30, loc)
}
