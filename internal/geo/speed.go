package geo

// DefaultSpeedWindow is the number of trailing fixes used for speed.
const DefaultSpeedWindow = 5

// WindowedSpeedKmh estimates the current speed from the last window fixes.
// The second return is false when fewer than two fixes are available or when
// the window spans no time.
func WindowedSpeedKmh(fixes []Fix, window int) (float64, bool) {
	if window <= 0 {
		window = DefaultSpeedWindow
	}
	n := min(window, len(fixes))
	if n < 2 {
		return 0, false
	}

	recent := fixes[len(fixes)-n:]
	distKm := 0.0
	seconds := 0.0
	for i := 1; i < len(recent); i++ {
		distKm += DistanceKm(recent[i-1], recent[i])
		seconds += recent[i].Time.Sub(recent[i-1].Time).Seconds()
	}
	if seconds <= 0 {
		return 0, false
	}
	return distKm / (seconds / 3600), true
}
