package dataset

import (
	"context"
	"sync"
	"time"

	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
	"shelter-map/internal/shelter"
)

// State 装载状态
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

var emptyIndex = shelter.Empty()

// Pending 一次性异步装载
// 约束：只装载一次、不重试；失败时结果为空索引，错误只记录一次。
type Pending struct {
	done  chan struct{}
	mu    sync.RWMutex
	state State
	idx   *shelter.Index
	stats Stats
	err   error
}

// Start 在后台协程中执行 loader
func Start(ctx context.Context, l Loader) *Pending {
	p := &Pending{done: make(chan struct{}), state: StateLoading}
	go p.run(ctx, l)
	return p
}

// Resolved 已完成的装载，用于测试与同步场景
func Resolved(idx *shelter.Index) *Pending {
	p := &Pending{done: make(chan struct{}), state: StateReady, idx: idx}
	if idx == nil {
		p.idx = shelter.Empty()
	}
	p.stats = Stats{Features: p.idx.Len(), Loaded: p.idx.Len()}
	close(p.done)
	return p
}

// Failed 未能启动装载（如数据源配置错误）；结果为空索引，状态为 failed，错误只记录一次
func Failed(source string, err error) *Pending {
	metrics.DatasetLoadsTotal.WithLabelValues(source, "error").Inc()
	metrics.SheltersLoaded.Set(0)
	logger.L().Error("dataset_load_error", "source", source, "err", err)
	p := &Pending{done: make(chan struct{}), state: StateFailed, idx: emptyIndex, err: err}
	close(p.done)
	return p
}

func (p *Pending) run(ctx context.Context, l Loader) {
	t0 := time.Now()
	ss, st, err := l.Load(ctx)
	metrics.DatasetLoadDurationMs.Observe(float64(time.Since(t0).Microseconds()) / 1000.0)

	p.mu.Lock()
	defer close(p.done)
	defer p.mu.Unlock()
	p.stats = st
	if err != nil {
		p.state = StateFailed
		p.err = err
		p.idx = shelter.Empty()
		metrics.DatasetLoadsTotal.WithLabelValues(l.Name(), "error").Inc()
		metrics.SheltersLoaded.Set(0)
		logger.L().Error("dataset_load_error", "source", l.Name(), "err", err)
		return
	}
	p.idx = shelter.NewIndex(ss)
	p.state = StateReady
	metrics.DatasetLoadsTotal.WithLabelValues(l.Name(), "ok").Inc()
	metrics.SheltersLoaded.Set(float64(p.idx.Len()))
	metrics.DroppedFeaturesTotal.Add(float64(st.Dropped))
	logger.L().Info("dataset_load_ok", "source", l.Name(), "loaded", p.idx.Len(), "dropped", st.Dropped, "ms", time.Since(t0).Milliseconds())
}

// Await 等待装载结束；ctx 取消时返回 ctx 错误且不影响后台装载
func (p *Pending) Await(ctx context.Context) (*shelter.Index, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.idx, p.err
}

// Index 非阻塞读取；装载未完成时返回空索引
func (p *Pending) Index() *shelter.Index {
	select {
	case <-p.done:
	default:
		return emptyIndex
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.idx
}

func (p *Pending) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Pending) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// Done 装载结束时关闭
func (p *Pending) Done() <-chan struct{} { return p.done }
