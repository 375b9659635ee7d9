package geo

// Accumulator keeps a running path distance. Each Add costs one haversine
// evaluation regardless of how many fixes came before.
type Accumulator struct {
	last    Fix
	hasLast bool
	total   float64
	count   int
}

// Add appends a fix to the path and returns the distance of the new leg.
func (a *Accumulator) Add(f Fix) float64 {
	leg := 0.0
	if a.hasLast {
		leg = DistanceKm(a.last, f)
		a.total += leg
	}
	a.last = f
	a.hasLast = true
	a.count++
	return leg
}

// TotalKm returns the cumulative distance so far.
func (a *Accumulator) TotalKm() float64 { return a.total }

// Count returns how many fixes have been added.
func (a *Accumulator) Count() int { return a.count }

// Last returns the most recently added fix, if any.
func (a *Accumulator) Last() (Fix, bool) { return a.last, a.hasLast }
