package shelter

import "sync"

// Presenter 地图组件：按避难所增删标记、打开弹窗
type Presenter interface {
	AddMarker(s Shelter)
	RemoveMarker(s Shelter)
	OpenPopup(s Shelter, distanceKm float64)
}

// Diff 一次过滤引起的可见性变化（ID 升序）
type Diff struct {
	Added   []int `json:"added"`
	Removed []int `json:"removed"`
}

// Empty 无变化
func (d Diff) Empty() bool { return len(d.Added) == 0 && len(d.Removed) == 0 }

// View 单次页面视图的可见集合，初始为全部可见
// 约束：索引只读共享；可见集合归视图独占，由互斥锁保护。
type View struct {
	mu      sync.Mutex
	idx     *Index
	p       Presenter
	visible []bool
	n       int
	query   string
}

// NewView 创建视图；p 为 nil 时仅维护可见集合
func NewView(idx *Index, p Presenter) *View {
	if idx == nil {
		idx = Empty()
	}
	v := &View{idx: idx, p: p, visible: make([]bool, idx.Len()), n: idx.Len()}
	for i := range v.visible {
		v.visible[i] = true
	}
	return v
}

// Render 将当前可见集合全部交给地图组件
func (v *View) Render() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.p == nil {
		return
	}
	for i, ok := range v.visible {
		if ok {
			v.p.AddMarker(v.idx.shelters[i])
		}
	}
}

// ApplyFilter 以查询串重新计算可见集合，只对状态改变的标记调用地图组件
func (v *View) ApplyFilter(query string) Diff {
	v.mu.Lock()
	defer v.mu.Unlock()
	q := Normalize(query)
	var d Diff
	for i, s := range v.idx.shelters {
		want := Matches(s, q)
		if want == v.visible[i] {
			continue
		}
		v.visible[i] = want
		if want {
			v.n++
			d.Added = append(d.Added, i)
			if v.p != nil {
				v.p.AddMarker(s)
			}
		} else {
			v.n--
			d.Removed = append(d.Removed, i)
			if v.p != nil {
				v.p.RemoveMarker(s)
			}
		}
	}
	v.query = query
	return d
}

// Highlight 为最近的避难所打开弹窗；该标记当前不可见时不做任何事
func (v *View) Highlight(m Match) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := m.Shelter.ID
	if id < 0 || id >= len(v.visible) || !v.visible[id] {
		return false
	}
	if v.p != nil {
		v.p.OpenPopup(v.idx.shelters[id], m.DistanceKm)
	}
	return true
}

// Visible 当前可见的避难所 ID（升序）
func (v *View) Visible() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]int, 0, v.n)
	for i, ok := range v.visible {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// VisibleCount 当前可见数量
func (v *View) VisibleCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.n
}

// Query 最近一次应用的查询串
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Index 视图所基于的索引
func (v *View) Index() *Index { return v.idx }
