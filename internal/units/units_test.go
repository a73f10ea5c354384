package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		unit string
		want bool
	}{
		{MPS, true},
		{MPH, true},
		{KMPH, true},
		{KPH, true},
		{"knots", false},
		{"", false},
		{"MPH", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.unit); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.want)
		}
	}
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		unit  string
		want  float64
	}{
		{"mps passthrough", 15.0, MPS, 15.0},
		{"mph", 10.0, MPH, 22.369362920544},
		{"kmph", 10.0, KMPH, 36.0},
		{"kph same as kmph", 10.0, KPH, 36.0},
		{"unknown passes through", 5.0, "furlongs", 5.0},
		{"zero", 0, MPH, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertSpeed(tt.speed, tt.unit); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertSpeed(%v, %q) = %v, want %v", tt.speed, tt.unit, got, tt.want)
			}
		})
	}
}
