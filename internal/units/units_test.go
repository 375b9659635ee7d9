package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name      string
		speedKmph float64
		units     string
		expected  float64
	}{
		{"36 km/h to mps", 36.0, MPS, 10.0},
		{"36 km/h to kmph", 36.0, KMPH, 36.0},
		{"36 km/h to kph", 36.0, KPH, 36.0},
		{"5 km/h to mph", 5.0, MPH, 3.10686},
		{"unknown units are unchanged", 5.0, "unknown", 5.0},
		{"0 km/h to mph", 0.0, MPH, 0.0},
		{"brisk walk 6.4 km/h to mph", 6.4, MPH, 3.97678},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedKmph, tt.units)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedKmph, tt.units, result, tt.expected)
			}
		})
	}
}

func TestMPSToKmph(t *testing.T) {
	if got := MPSToKmph(1.4); math.Abs(got-5.04) > 1e-9 {
		t.Errorf("MPSToKmph(1.4) = %f, want 5.04", got)
	}
	if got := MPSToKmph(0); got != 0 {
		t.Errorf("MPSToKmph(0) = %f, want 0", got)
	}
}

func TestKnotsToMPS(t *testing.T) {
	if got := KnotsToMPS(1); math.Abs(got-0.514444) > 1e-6 {
		t.Errorf("KnotsToMPS(1) = %f, want 0.514444", got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "invalid", false},
		{"empty unit", "", false},
		{"uppercase MPS", "MPS", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestConvertDistance(t *testing.T) {
	if got := ConvertDistance(1.5, Meter); got != 1500 {
		t.Errorf("ConvertDistance(1.5, m) = %f, want 1500", got)
	}
	if got := ConvertDistance(10, MI); math.Abs(got-6.21371) > 0.0001 {
		t.Errorf("ConvertDistance(10, mi) = %f, want 6.21371", got)
	}
	if got := ConvertDistance(3, "furlong"); got != 3 {
		t.Errorf("ConvertDistance(3, furlong) = %f, want 3", got)
	}
}

func TestFormat(t *testing.T) {
	if got := FormatSpeed(5.0, KMPH); got != "5.0 kmph" {
		t.Errorf("FormatSpeed = %q", got)
	}
	if got := FormatSpeed(5.0, "bogus"); got != "5.0 kmph" {
		t.Errorf("FormatSpeed with bad unit = %q", got)
	}
	if got := FormatDistance(0.083, Meter); got != "83 m" {
		t.Errorf("FormatDistance = %q", got)
	}
	if got := FormatDistance(2.345, KM); got != "2.35 km" && got != "2.34 km" {
		t.Errorf("FormatDistance = %q", got)
	}
}
