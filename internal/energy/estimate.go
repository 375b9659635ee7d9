package energy

// EstimateInput carries whatever is known about an effort. Optional fields
// are pointers; nil means unknown.
type EstimateInput struct {
	WeightKg   float64
	HeightCm   float64
	Gender     Gender
	Steps      *uint32
	DistanceKm *float64
	SpeedKmh   *float64
	// MET overrides the speed lookup when set and positive.
	MET *float64
}

// EstimateResult is the result of Estimate.
type EstimateResult struct {
	Calories        uint32
	DistanceKm      *float64
	DurationMinutes *float64
	MET             float64
}

// Estimate combines the model functions. Distance is derived from steps and
// stride when absent, duration from distance and speed, and calories from
// duration, falling back to the step heuristic when no duration exists.
// A non-positive weight returns a zero estimate.
func Estimate(in EstimateInput) EstimateResult {
	if in.WeightKg <= 0 {
		out := EstimateResult{}
		if in.MET != nil && *in.MET > 0 {
			out.MET = *in.MET
		}
		return out
	}

	distance := in.DistanceKm
	if distance == nil && in.Steps != nil && *in.Steps > 0 && in.HeightCm > 0 {
		stride := StrideLengthKm(BodyMetrics{HeightCm: in.HeightCm, WeightKg: in.WeightKg, Gender: in.Gender})
		d := stride * float64(*in.Steps)
		distance = &d
	}

	met := MetForSpeed(in.SpeedKmh)
	if in.MET != nil && *in.MET > 0 {
		met = *in.MET
	}

	out := EstimateResult{DistanceKm: distance, MET: met}
	if distance != nil {
		d := DurationMinutes(*distance, in.SpeedKmh)
		out.DurationMinutes = &d
	}

	switch {
	case out.DurationMinutes != nil && *out.DurationMinutes > 0:
		out.Calories = Calories(in.WeightKg, met, *out.DurationMinutes)
	case in.Steps != nil:
		out.Calories = CaloriesFromSteps(*in.Steps, in.WeightKg)
	}
	return out
}

// ForDistance is the live-session shortcut: calories, MET and steps for a
// walked distance at an optional speed.
func ForDistance(distanceKm float64, speedKmh *float64, m BodyMetrics) (steps, calories uint32, met float64) {
	est := Estimate(EstimateInput{
		WeightKg:   m.WeightKg,
		HeightCm:   m.HeightCm,
		Gender:     m.Gender,
		DistanceKm: &distanceKm,
		SpeedKmh:   speedKmh,
	})
	if !m.valid() {
		return 0, 0, est.MET
	}
	return StepsFromDistance(distanceKm, m), est.Calories, est.MET
}
