package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shelters.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	ss, st, err := DocumentLoader{Source: FileSource{Path: path}}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ss) != 3 || st.Dropped != 6 {
		t.Errorf("got %d shelters, stats %+v", len(ss), st)
	}
}

func TestFileSourceMissing(t *testing.T) {
	_, _, err := DocumentLoader{Source: FileSource{Path: filepath.Join(t.TempDir(), "nope.json")}}.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shelters.json":
			w.Header().Set("content-type", "application/geo+json")
			_, _ = w.Write([]byte(sampleDoc))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ss, _, err := DocumentLoader{Source: HTTPSource{URL: srv.URL + "/shelters.json", Client: srv.Client()}}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ss) != 3 {
		t.Errorf("got %d shelters; want 3", len(ss))
	}

	if _, _, err := (DocumentLoader{Source: HTTPSource{URL: srv.URL + "/missing.json"}}).Load(context.Background()); err == nil {
		t.Error("expected error on 404")
	}
}

func TestConvertOverpassNodes(t *testing.T) {
	nodes := []nodeTags{
		{ID: 30, Lat: 60.39, Lon: 5.32, Tags: map[string]string{"addr:street": "Torget", "addr:housenumber": "2", "addr:city": "Bergen", "capacity": "200"}},
		{ID: 10, Lat: 59.91, Lon: 10.75, Tags: map[string]string{"name": "Tilfluktsrom Sentrum", "addr:municipality": "Oslo", "addr:city": "Sentrum"}},
		{ID: 20, Lat: 95, Lon: 10, Tags: map[string]string{"addr:city": "Nowhere"}},
	}
	ss, st, err := convertNodes(nodes)
	if err != nil {
		t.Fatal(err)
	}
	if st.Loaded != 2 || st.Dropped != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if ss[0].Municipality != "Oslo" || ss[0].Address != "Tilfluktsrom Sentrum" || ss[0].Capacity.Known {
		t.Errorf("first = %+v", ss[0])
	}
	if ss[1].Municipality != "Bergen" || ss[1].Address != "Torget 2" || ss[1].Capacity.People != 200 {
		t.Errorf("second = %+v", ss[1])
	}
}

func TestBuildOverpassQuery(t *testing.T) {
	got := buildQuery(`node["amenity"="shelter"]`, "57.9,4.5,71.2,31.1", 0)
	want := "[out:json][timeout:60];\nnode[\"amenity\"=\"shelter\"](57.9,4.5,71.2,31.1);\nout body;"
	if got != want {
		t.Errorf("query = %q; want %q", got, want)
	}
}
