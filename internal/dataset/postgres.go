package dataset

import (
	"context"

	"shelter-map/internal/shelter"
)

// ShelterLister 由 store.Store 实现
type ShelterLister interface {
	ListShelters(ctx context.Context) ([]shelter.Shelter, int, error)
}

// PostgresLoader 读取 cmd/shelter-import 写入的 _shelters 表
type PostgresLoader struct {
	Store ShelterLister
}

func (l PostgresLoader) Name() string { return "postgres" }

func (l PostgresLoader) Load(ctx context.Context) ([]shelter.Shelter, Stats, error) {
	ss, dropped, err := l.Store.ListShelters(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	return ss, Stats{Features: len(ss) + dropped, Loaded: len(ss), Dropped: dropped}, nil
}
