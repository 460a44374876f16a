package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
	"shelter-map/internal/shelter"
)

// opRecorder 把地图组件调用记录为操作序列，由前端按序重放
type opRecorder struct {
	ops []op
}

func (r *opRecorder) AddMarker(s shelter.Shelter) {
	r.ops = append(r.ops, op{Op: "add", ID: s.ID})
}

func (r *opRecorder) RemoveMarker(s shelter.Shelter) {
	r.ops = append(r.ops, op{Op: "remove", ID: s.ID})
}

func (r *opRecorder) OpenPopup(s shelter.Shelter, distanceKm float64) {
	d := distanceKm
	r.ops = append(r.ops, op{Op: "open_popup", ID: s.ID, DistanceKm: &d, Popup: shelter.Popup(s)})
}

// take 取走已记录的操作；无操作时返回空切片而非 nil
func (r *opRecorder) take() []op {
	out := r.ops
	r.ops = nil
	if out == nil {
		out = []op{}
	}
	return out
}

// viewSession 单次页面视图
// 约束：mu 串行化同一视图上的过滤请求，保证操作记录不交错
type viewSession struct {
	mu      sync.Mutex
	view    *shelter.View
	rec     *opRecorder
	expires time.Time
}

// run 在会话锁内执行 fn 并返回其产生的操作
func (s *viewSession) run(fn func(v *shelter.View)) []op {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.view)
	return s.rec.take()
}

// 默认视图上限；每个视图持有与索引等长的可见位图
const defaultMaxViews = 10000

// viewRegistry 进程内视图表，按最近访问时间续期
// 约束：视图数达到上限时先清理过期视图，仍满则淘汰最早到期的视图
type viewRegistry struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	now   func() time.Time
	items map[string]*viewSession
}

func newViewRegistry(ttl time.Duration, maxViews int) *viewRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxViews <= 0 {
		maxViews = defaultMaxViews
	}
	return &viewRegistry{ttl: ttl, max: maxViews, now: time.Now, items: make(map[string]*viewSession)}
}

func (r *viewRegistry) create(idx *shelter.Index) (string, *viewSession) {
	rec := &opRecorder{}
	s := &viewSession{view: shelter.NewView(idx, rec), rec: rec}
	id := uuid.NewString()
	r.mu.Lock()
	if len(r.items) >= r.max {
		r.makeRoomLocked()
	}
	s.expires = r.now().Add(r.ttl)
	r.items[id] = s
	n := len(r.items)
	r.mu.Unlock()
	metrics.ViewsActive.Set(float64(n))
	return id, s
}

// get 命中时续期；已过期视同不存在
func (r *viewRegistry) get(id string) (*viewSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if !now.Before(s.expires) {
		delete(r.items, id)
		metrics.ViewsActive.Set(float64(len(r.items)))
		return nil, false
	}
	s.expires = now.Add(r.ttl)
	return s, true
}

func (r *viewRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[id]
	delete(r.items, id)
	metrics.ViewsActive.Set(float64(len(r.items)))
	return ok
}

// makeRoomLocked 调用方持有 r.mu
func (r *viewRegistry) makeRoomLocked() {
	if r.sweepLocked() > 0 && len(r.items) < r.max {
		return
	}
	for len(r.items) >= r.max {
		var oldest string
		var at time.Time
		for id, s := range r.items {
			if oldest == "" || s.expires.Before(at) {
				oldest, at = id, s.expires
			}
		}
		delete(r.items, oldest)
		logger.L().Debug("view_evicted", "id", oldest)
	}
}

// sweep 清理过期视图，返回清理数量
func (r *viewRegistry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *viewRegistry) sweepLocked() int {
	now := r.now()
	n := 0
	for id, s := range r.items {
		if !now.Before(s.expires) {
			delete(r.items, id)
			n++
		}
	}
	metrics.ViewsActive.Set(float64(len(r.items)))
	return n
}

func (r *viewRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
