package nearcache

import (
	"context"
	"testing"
	"time"

	"shelter-map/internal/shelter"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("len = %d", c.Len())
	}
}

func TestLRUExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewLRU[string](4, time.Second)
	c.now = func() time.Time { return now }
	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, len = %d", c.Len())
	}
}

func TestLRUZeroCapacity(t *testing.T) {
	c := NewLRU[int](0, time.Minute)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("zero-capacity cache stored a value")
	}
}

func TestKeyUsesExactCoordinates(t *testing.T) {
	a := Key("fp", shelter.Position{Lat: 59.91391, Lon: 10.7522})
	b := Key("fp", shelter.Position{Lat: 59.91392, Lon: 10.7522})
	if a == b {
		t.Errorf("distinct positions share key %q", a)
	}
	if Key("other", shelter.Position{Lat: 59.91391, Lon: 10.7522}) == a {
		t.Error("fingerprint not part of key")
	}
}

func TestCacheNearest(t *testing.T) {
	mk := func(lat, lon float64) shelter.Shelter {
		s, err := shelter.New(shelter.Position{Lat: lat, Lon: lon}, shelter.Attrs{Municipality: "Oslo"})
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	idx := shelter.NewIndex([]shelter.Shelter{mk(59.0, 10.0), mk(60.0, 10.0)})
	c := New(16, time.Minute, nil)
	ctx := context.Background()
	user := shelter.Position{Lat: 59.9, Lon: 10.0}

	m1, ok := c.Nearest(ctx, idx, user)
	if !ok || m1.Shelter.ID != 1 {
		t.Fatalf("first lookup = %+v %v", m1, ok)
	}
	if c.mem.Len() != 1 {
		t.Fatalf("result not cached")
	}
	m2, ok := c.Nearest(ctx, idx, user)
	if !ok || m2.Shelter.ID != m1.Shelter.ID || m2.DistanceKm != m1.DistanceKm {
		t.Errorf("cached lookup = %+v; want %+v", m2, m1)
	}

	if _, ok := c.Nearest(ctx, shelter.Empty(), user); ok {
		t.Error("empty index returned a match")
	}
	if _, ok := c.Nearest(ctx, idx, shelter.Position{Lat: 91, Lon: 0}); ok {
		t.Error("invalid position returned a match")
	}
}
