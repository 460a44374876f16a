package dataset

import (
	"errors"
	"strings"
	"testing"

	"shelter-map/internal/shelter"
)

const sampleDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [10.75, 59.91]},
     "properties": {"adresse": "Karl Johans gate 1", "kommune": "Oslo", "plasser": 120}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [5.32]},
     "properties": {"kommune": "Bergen"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [5.32, 60.39, 12]},
     "properties": {"kommune": "Bergen"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [5.32, 60.39]},
     "properties": {"adresse": "", "kommune": "Bergen", "plasser": 0}},
    {"type": "Feature", "geometry": null, "properties": {"kommune": "Nowhere"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [null, 59.0]}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": ["10", "59"]}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [200, 59]}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [10.2, 59.74]},
     "properties": {"address": "Bragernes torg", "municipality": "Drammen", "capacity": "80"}}
  ]
}`

func TestParseFeatureCollection(t *testing.T) {
	ss, st, err := ParseFeatureCollection(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if st.Features != 9 || st.Loaded != 3 || st.Dropped != 6 {
		t.Fatalf("stats = %+v; want 9 features, 3 loaded, 6 dropped", st)
	}
	want := []struct {
		lat, lon     float64
		address      string
		municipality string
		capacity     string
	}{
		{59.91, 10.75, "Karl Johans gate 1", "Oslo", "120"},
		{60.39, 5.32, shelter.Unknown, "Bergen", shelter.Unknown},
		{59.74, 10.2, "Bragernes torg", "Drammen", "80"},
	}
	for i, w := range want {
		s := ss[i]
		if s.Position.Lat != w.lat || s.Position.Lon != w.lon {
			t.Errorf("[%d] position = %+v; want lat %v lon %v", i, s.Position, w.lat, w.lon)
		}
		if s.Address != w.address || s.Municipality != w.municipality || s.Capacity.String() != w.capacity {
			t.Errorf("[%d] = %q %q %q; want %q %q %q", i, s.Address, s.Municipality, s.Capacity.String(), w.address, w.municipality, w.capacity)
		}
	}
}

func TestParseFeatureCollectionFailures(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"not json", `<html>`, nil},
		{"missing features", `{"type":"FeatureCollection"}`, ErrNoFeatures},
		{"null features", `{"features":null}`, ErrNoFeatures},
		{"features not array", `{"features":{"a":1}}`, nil},
		{"trailing garbage", `{"features":[]} trailing-garbage`, nil},
		{"second document", `{"features":[]}{"features":[]}`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ss, _, err := ParseFeatureCollection(strings.NewReader(tc.doc))
			if err == nil {
				t.Fatalf("expected error, got %d shelters", len(ss))
			}
			if ss != nil {
				t.Errorf("partial result returned: %v", ss)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("err = %v; want %v", err, tc.want)
			}
		})
	}
}

func TestParseEmptyFeatures(t *testing.T) {
	ss, st, err := ParseFeatureCollection(strings.NewReader("{\"features\":[]}\n\t "))
	if err != nil {
		t.Fatal(err)
	}
	if len(ss) != 0 || st.Features != 0 {
		t.Errorf("got %d shelters, stats %+v", len(ss), st)
	}
}

func TestPropCapacity(t *testing.T) {
	cases := []struct {
		v     any
		known bool
		n     int
	}{
		{float64(40), true, 40},
		{float64(0), false, 0},
		{float64(-3), false, 0},
		{float64(2.5), false, 0},
		{"15", true, 15},
		{" 7 ", true, 7},
		{"many", false, 0},
		{true, false, 0},
		{nil, false, 0},
	}
	for _, tc := range cases {
		got := propCapacity(map[string]any{"plasser": tc.v}, capacityKeys)
		if got.Known != tc.known || got.People != tc.n {
			t.Errorf("propCapacity(%v) = %+v; want known=%v n=%d", tc.v, got, tc.known, tc.n)
		}
	}
}
