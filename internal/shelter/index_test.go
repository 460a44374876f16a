package shelter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
)

// 沿经线 1 千米对应的纬度差
const degPerKm = 180 / (math.Pi * EarthRadiusKm)

func mustShelter(t *testing.T, lat, lon float64, municipality string) Shelter {
	t.Helper()
	s, err := New(Position{Lat: lat, Lon: lon}, Attrs{Municipality: municipality})
	if err != nil {
		t.Fatalf("New(%v, %v): %v", lat, lon, err)
	}
	return s
}

func TestNearestPicksClosest(t *testing.T) {
	user := Position{Lat: 59.0, Lon: 10.0}
	idx := NewIndex([]Shelter{
		mustShelter(t, 59.0+5*degPerKm, 10.0, "A"),
		mustShelter(t, 59.0+2*degPerKm, 10.0, "B"),
		mustShelter(t, 59.0+8*degPerKm, 10.0, "C"),
	})

	m, ok := idx.Nearest(user)
	if !ok {
		t.Fatal("Nearest returned no match")
	}
	if m.Shelter.ID != 1 || m.Shelter.Municipality != "B" {
		t.Errorf("nearest = %+v; want shelter B (id 1)", m.Shelter)
	}
	if math.Abs(m.DistanceKm-2) > 1e-6 {
		t.Errorf("distance = %v; want 2", m.DistanceKm)
	}
}

func TestNearestNoResult(t *testing.T) {
	if _, ok := Empty().Nearest(Position{Lat: 59, Lon: 10}); ok {
		t.Error("empty index returned a match")
	}
	idx := NewIndex([]Shelter{mustShelter(t, 59, 10, "A")})
	if _, ok := idx.Nearest(Position{Lat: math.NaN(), Lon: 10}); ok {
		t.Error("NaN position returned a match")
	}
	if _, ok := idx.Nearest(Position{Lat: 200, Lon: 10}); ok {
		t.Error("out-of-range position returned a match")
	}
}

func TestNearestTieKeepsFirst(t *testing.T) {
	user := Position{Lat: 0, Lon: 0}
	idx := NewIndex([]Shelter{
		mustShelter(t, 1, 0, "north"),
		mustShelter(t, -1, 0, "south"),
		mustShelter(t, 1, 0, "north again"),
	})
	for _, find := range []func(Position) (Match, bool){idx.Nearest, idx.NearestLinear} {
		m, ok := find(user)
		if !ok || m.Shelter.ID != 0 {
			t.Errorf("tie resolved to %+v; want id 0", m.Shelter)
		}
	}
}

func TestNearestMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	regions := []struct {
		name                           string
		minLat, maxLat, minLon, maxLon float64
	}{
		{"norway", 57.9, 71.2, 4.5, 31.1},
		{"world", -89, 89, -180, 179.999},
		{"antimeridian", -20, 20, 170, 179.999},
	}
	for _, r := range regions {
		t.Run(r.name, func(t *testing.T) {
			var ss []Shelter
			for i := 0; i < 400; i++ {
				lat := r.minLat + rng.Float64()*(r.maxLat-r.minLat)
				lon := r.minLon + rng.Float64()*(r.maxLon-r.minLon)
				ss = append(ss, mustShelter(t, lat, lon, "x"))
				if i%50 == 0 {
					ss = append(ss, mustShelter(t, lat, lon, "duplicate"))
				}
			}
			idx := NewIndex(ss)
			for q := 0; q < 300; q++ {
				user := Position{
					Lat: -89 + rng.Float64()*178,
					Lon: -180 + rng.Float64()*359.999,
				}
				if q%2 == 0 {
					user = Position{
						Lat: r.minLat + rng.Float64()*(r.maxLat-r.minLat),
						Lon: r.minLon + rng.Float64()*(r.maxLon-r.minLon),
					}
				}
				got, _ := idx.Nearest(user)
				want, _ := idx.NearestLinear(user)
				if got.Shelter.ID != want.Shelter.ID || got.DistanceKm != want.DistanceKm {
					t.Fatalf("user %+v: kd = (%d, %v), linear = (%d, %v)",
						user, got.Shelter.ID, got.DistanceKm, want.Shelter.ID, want.DistanceKm)
				}
			}
		})
	}
}

func TestNewIndexAssignsDenseIDs(t *testing.T) {
	bad := Shelter{Position: Position{Lat: 100, Lon: 0}}
	idx := NewIndex([]Shelter{mustShelter(t, 1, 1, "a"), bad, mustShelter(t, 2, 2, "b")})
	if idx.Len() != 2 {
		t.Fatalf("Len = %d; want 2", idx.Len())
	}
	for i, s := range idx.All() {
		if s.ID != i {
			t.Errorf("All()[%d].ID = %d", i, s.ID)
		}
	}
	if s, ok := idx.Get(1); !ok || s.Municipality != "b" {
		t.Errorf("Get(1) = %+v, %v", s, ok)
	}
	if _, ok := idx.Get(2); ok {
		t.Error("Get(2) should be out of range")
	}
}

func TestWithinBound(t *testing.T) {
	idx := NewIndex([]Shelter{
		mustShelter(t, 59.91, 10.75, "Oslo"),
		mustShelter(t, 60.39, 5.32, "Bergen"),
		mustShelter(t, 63.43, 10.39, "Trondheim"),
	})
	b := orb.Bound{Min: orb.Point{4, 59}, Max: orb.Point{11, 61}}
	got := idx.Within(b)
	if len(got) != 2 || got[0].Municipality != "Oslo" || got[1].Municipality != "Bergen" {
		t.Errorf("Within = %+v; want Oslo, Bergen", got)
	}
}

func TestFingerprintTracksContent(t *testing.T) {
	a := NewIndex([]Shelter{mustShelter(t, 1, 1, "a")})
	b := NewIndex([]Shelter{mustShelter(t, 1, 1, "a")})
	c := NewIndex([]Shelter{mustShelter(t, 1, 1, "b")})
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical content produced different fingerprints")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different content produced the same fingerprint")
	}
}
