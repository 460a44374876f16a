package dataset

import (
	"context"
	"errors"
	"testing"
	"time"

	"shelter-map/internal/shelter"
)

type stubLoader struct {
	gate chan struct{}
	ss   []shelter.Shelter
	err  error
}

func (s stubLoader) Name() string { return "stub" }

func (s stubLoader) Load(ctx context.Context) ([]shelter.Shelter, Stats, error) {
	if s.gate != nil {
		<-s.gate
	}
	return s.ss, Stats{Features: len(s.ss), Loaded: len(s.ss)}, s.err
}

func TestPendingReady(t *testing.T) {
	s, err := shelter.New(shelter.Position{Lat: 59.91, Lon: 10.75}, shelter.Attrs{Municipality: "Oslo"})
	if err != nil {
		t.Fatal(err)
	}
	gate := make(chan struct{})
	p := Start(context.Background(), stubLoader{gate: gate, ss: []shelter.Shelter{s}})
	if p.State() != StateLoading {
		t.Fatalf("state = %s; want loading", p.State())
	}
	if p.Index().Len() != 0 {
		t.Fatal("index should be empty while loading")
	}
	close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	idx, err := p.Await(ctx)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if idx.Len() != 1 || p.State() != StateReady || p.Index() != idx {
		t.Errorf("len=%d state=%s", idx.Len(), p.State())
	}
}

func TestPendingFailureYieldsEmptyIndex(t *testing.T) {
	boom := errors.New("boom")
	p := Start(context.Background(), stubLoader{err: boom})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	idx, err := p.Await(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v; want boom", err)
	}
	if idx == nil || idx.Len() != 0 {
		t.Fatalf("want empty index, got %v", idx)
	}
	if p.State() != StateFailed {
		t.Errorf("state = %s; want failed", p.State())
	}
	// 二次等待返回同一结果，不会重新装载
	idx2, err2 := p.Await(ctx)
	if idx2 != idx || !errors.Is(err2, boom) {
		t.Error("second await should return the same outcome")
	}
}

func TestPendingAwaitHonoursContext(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	p := Start(context.Background(), stubLoader{gate: gate})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v; want deadline exceeded", err)
	}
}

func TestResolved(t *testing.T) {
	p := Resolved(nil)
	idx, err := p.Await(context.Background())
	if err != nil || idx.Len() != 0 || p.State() != StateReady {
		t.Fatalf("idx=%v err=%v state=%s", idx, err, p.State())
	}
}

func TestFailedReportsFailedState(t *testing.T) {
	boom := errors.New("unknown source")
	p := Failed("ftp", boom)
	idx, err := p.Await(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v; want %v", err, boom)
	}
	if idx == nil || idx.Len() != 0 || p.State() != StateFailed {
		t.Fatalf("idx=%v state=%s; want empty index and failed", idx, p.State())
	}
}
