package api

import (
	"context"
	"sync"
	"time"

	"shelter-map/internal/logger"
	"shelter-map/internal/store"
)

// 查询类别
const (
	kindNearest = "nearest"
	kindFilter  = "filter"
)

// StatsStore 由 store.Store 实现
type StatsStore interface {
	IncrStats(ctx context.Context, kind string) error
	GetTotals(ctx context.Context) (map[string]store.Totals, error)
}

// counters 进程内计数；未配置数据库时作为 /stats 的数据来源
type counters struct {
	mu    sync.Mutex
	day   string
	now   func() time.Time
	total map[string]int64
	today map[string]int64
}

func newCounters() *counters {
	return &counters{now: time.Now, total: map[string]int64{}, today: map[string]int64{}}
}

func (c *counters) incr(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDay()
	c.total[kind]++
	c.today[kind]++
}

func (c *counters) rollDay() {
	d := c.now().Format(time.DateOnly)
	if d != c.day {
		c.day = d
		c.today = map[string]int64{}
	}
}

func (c *counters) snapshot() map[string]store.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDay()
	out := map[string]store.Totals{}
	for _, k := range []string{kindNearest, kindFilter} {
		out[k] = store.Totals{Total: c.total[k], Today: c.today[k]}
	}
	return out
}

// record 进程计数总是递增；数据库计数失败只记日志
func (a *API) record(ctx context.Context, kind string) {
	a.counters.incr(kind)
	if a.stats == nil {
		return
	}
	if err := a.stats.IncrStats(ctx, kind); err != nil {
		logger.L().Debug("stats_incr_error", "kind", kind, "err", err)
	}
}

// totals 优先数据库；读取失败时退回进程计数
func (a *API) totals(ctx context.Context) (map[string]store.Totals, string) {
	if a.stats != nil {
		t, err := a.stats.GetTotals(ctx)
		if err == nil {
			for _, k := range []string{kindNearest, kindFilter} {
				if _, ok := t[k]; !ok {
					t[k] = store.Totals{}
				}
			}
			return t, "db"
		}
		logger.L().Warn("stats_totals_error", "err", err)
	}
	return a.counters.snapshot(), "process"
}
