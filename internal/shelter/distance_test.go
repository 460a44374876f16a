package shelter

import (
	"math"
	"testing"
)

func TestHaversineSamePointIsZero(t *testing.T) {
	points := []Position{
		{59.9139, 10.7522},
		{0, 0},
		{-33.8688, 151.2093},
		{90, 0},
		{-90, 180},
		{12.5, -179.99},
	}
	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(%v, %v) = %v; want 0", p, p, d)
		}
	}
	if d := Haversine(59.9139, 10.7522, 59.9139, 10.7522); d != 0 {
		t.Errorf("Oslo to itself = %v; want 0", d)
	}
}

func TestHaversineOsloBergen(t *testing.T) {
	d := Haversine(59.9139, 10.7522, 60.3913, 5.3221)
	if math.Abs(d-305) > 305*0.01 {
		t.Errorf("Oslo-Bergen = %.2f km; want 305 ±1%%", d)
	}
}

func TestHaversineSymmetricAndMeridional(t *testing.T) {
	a := Haversine(59.9139, 10.7522, 63.4305, 10.3951)
	b := Haversine(63.4305, 10.3951, 59.9139, 10.7522)
	if a != b {
		t.Errorf("asymmetric: %v vs %v", a, b)
	}
	// 沿经线 1 度 = R·π/180
	want := EarthRadiusKm * math.Pi / 180
	if got := Haversine(10, 20, 11, 20); math.Abs(got-want) > 1e-9 {
		t.Errorf("one degree of latitude = %v; want %v", got, want)
	}
}
