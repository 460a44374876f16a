// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"shelter-map/internal/config"
	"shelter-map/internal/dataset"
	"shelter-map/internal/geoip"
	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
	"shelter-map/internal/nearcache"
	"shelter-map/internal/shelter"
)

// Deps 路由依赖；Stats 与 GeoIP 可为 nil
type Deps struct {
	Dataset  *dataset.Pending
	Cache    *nearcache.Cache
	Stats    StatsStore
	GeoIP    *geoip.Locator
	Map      config.Map
	HintZoom int
	ViewTTL  time.Duration
	MaxViews int
	// LoadWait 请求等待首次装载的上限，超时返回 503
	LoadWait time.Duration
}

// API 持有视图表与计数器
type API struct {
	ds       *dataset.Pending
	cache    *nearcache.Cache
	stats    StatsStore
	geo      *geoip.Locator
	mapCfg   config.Map
	hintZoom int
	views    *viewRegistry
	counters *counters
	loadWait time.Duration
}

func New(d Deps) *API {
	c := d.Cache
	if c == nil {
		c = nearcache.New(0, 0, nil)
	}
	ds := d.Dataset
	if ds == nil {
		ds = dataset.Resolved(nil)
	}
	loadWait := d.LoadWait
	if loadWait <= 0 {
		loadWait = 30 * time.Second
	}
	return &API{
		ds:       ds,
		cache:    c,
		stats:    d.Stats,
		geo:      d.GeoIP,
		mapCfg:   d.Map,
		hintZoom: d.HintZoom,
		views:    newViewRegistry(d.ViewTTL, d.MaxViews),
		counters: newCounters(),
		loadWait: loadWait,
	}
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /shelters", a.handleShelters)
	mux.HandleFunc("GET /nearest", a.handleNearest)
	mux.HandleFunc("GET /map-config", a.handleMapConfig)
	mux.HandleFunc("POST /views", a.handleCreateView)
	mux.HandleFunc("GET /views/{id}/filter", a.handleFilterView)
	mux.HandleFunc("DELETE /views/{id}", a.handleDeleteView)
	mux.HandleFunc("GET /stats", a.handleStats)
	mux.HandleFunc("GET /healthz", a.handleHealth)
	return mux
}

// RunJanitor 周期清理过期视图，ctx 取消时退出
func (a *API) RunJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.views.sweep(); n > 0 {
				logger.L().Debug("views_swept", "count", n, "active", a.views.len())
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// index 等待一次性装载结束；装载失败时得到空索引，等待超时或请求取消时返回 false
// 约束：装载完成前不返回任何部分结果
func (a *API) index(ctx context.Context) (*shelter.Index, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.loadWait)
	defer cancel()
	idx, _ := a.ds.Await(ctx)
	return idx, idx != nil
}

func writeLoading(w http.ResponseWriter) {
	w.Header().Set("retry-after", "1")
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{"state": dataset.StateLoading, "error": "dataset loading"})
}

// parseBBox "minLon,minLat,maxLon,maxLat"；空串表示不限制
func parseBBox(s string) (orb.Bound, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return orb.Bound{}, false, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, false, errors.New("bbox needs minLon,minLat,maxLon,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, false, errors.New("bbox values must be numbers")
		}
		v[i] = f
	}
	lo := shelter.Position{Lat: v[1], Lon: v[0]}
	hi := shelter.Position{Lat: v[3], Lon: v[2]}
	if !lo.Valid() || !hi.Valid() || lo.Lat > hi.Lat || lo.Lon > hi.Lon {
		return orb.Bound{}, false, errors.New("bbox out of range")
	}
	return orb.Bound{Min: lo.Point(), Max: hi.Point()}, true, nil
}

// GET /shelters?q=&bbox=
func (a *API) handleShelters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	b, hasBox, err := parseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	idx, ready := a.index(r.Context())
	if !ready {
		writeLoading(w)
		return
	}
	ss := idx.All()
	if hasBox {
		ss = idx.Within(b)
	}
	if strings.TrimSpace(q) != "" {
		metrics.FilterRequestsTotal.Inc()
		a.record(r.Context(), kindFilter)
	}
	ss = shelter.Filter(ss, q)
	out := make([]shelterJSON, len(ss))
	for i, s := range ss {
		out[i] = toShelterJSON(s)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "query": q, "shelters": out})
}

// nearest 缓存优先；任何失败都退化为“无结果”
func (a *API) nearest(ctx context.Context, idx *shelter.Index, pos shelter.Position, ok bool) (shelter.Match, bool) {
	t0 := time.Now()
	defer func() { metrics.NearestDurationMs.Observe(float64(time.Since(t0).Microseconds()) / 1000.0) }()
	if !ok {
		metrics.NearestRequestsTotal.WithLabelValues("none").Inc()
		return shelter.Match{}, false
	}
	a.record(ctx, kindNearest)
	m, found := a.cache.Nearest(ctx, idx, pos)
	if !found {
		metrics.NearestRequestsTotal.WithLabelValues("none").Inc()
		return shelter.Match{}, false
	}
	metrics.NearestRequestsTotal.WithLabelValues("found").Inc()
	logger.L().Debug("nearest_ok", "id", m.Shelter.ID, "km", m.DistanceKm)
	return m, true
}

// GET /nearest?lat=&lon=
// 约束：参数缺失或非法一律返回 {"nearest": null}，不返回 400
func (a *API) handleNearest(w http.ResponseWriter, r *http.Request) {
	pos, ok := shelter.ParsePosition(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	idx, ready := a.index(r.Context())
	if !ready {
		writeLoading(w)
		return
	}
	m, found := a.nearest(r.Context(), idx, pos, ok)
	var res struct {
		Nearest *nearestJSON `json:"nearest"`
	}
	if found {
		res.Nearest = toNearestJSON(m)
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /map-config
func (a *API) handleMapConfig(w http.ResponseWriter, r *http.Request) {
	out := mapConfigJSON{
		Center:      latLon{Lat: a.mapCfg.CenterLat, Lon: a.mapCfg.CenterLon},
		Zoom:        a.mapCfg.Zoom,
		TileURL:     a.mapCfg.TileURL,
		Attribution: a.mapCfg.Attribution,
	}
	if p, ok := a.geo.Hint(getClientIP(r)); ok {
		out.Hint = &mapHint{latLon: latLon{Lat: p.Lat, Lon: p.Lon}, Zoom: a.hintZoom}
	}
	writeJSON(w, http.StatusOK, out)
}

// createViewReq 坐标保留原始 JSON，数值或数字文本均可，其余按“无位置”处理
type createViewReq struct {
	Lat json.RawMessage `json:"lat"`
	Lon json.RawMessage `json:"lon"`
}

// coordText 把 JSON 数值或字符串转为文本交给 ParsePosition；其他类型返回空串
func coordText(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	}
	return ""
}

// POST /views
// 背景：视图初始全部可见；带位置时查询最近避难所并记录 open_popup 操作。
// 约束：请求体可为空；位置非法按“无位置”处理。
func (a *API) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var req createViewReq
	if r.Body != nil {
		if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
	}
	pos, ok := shelter.ParsePosition(coordText(req.Lat), coordText(req.Lon))

	idx, ready := a.index(r.Context())
	if !ready {
		writeLoading(w)
		return
	}
	id, sess := a.views.create(idx)
	res := struct {
		ID      string       `json:"id"`
		Visible int          `json:"visible"`
		Nearest *nearestJSON `json:"nearest"`
		Ops     []op         `json:"ops"`
	}{ID: id}

	m, found := a.nearest(r.Context(), idx, pos, ok)
	res.Ops = sess.run(func(v *shelter.View) {
		res.Visible = v.VisibleCount()
		if found {
			v.Highlight(m)
		}
	})
	if found {
		res.Nearest = toNearestJSON(m)
	}
	logger.L().Debug("view_created", "id", id, "visible", res.Visible, "nearest", found)
	writeJSON(w, http.StatusCreated, res)
}

// GET /views/{id}/filter?q=
func (a *API) handleFilterView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := a.views.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "view not found")
		return
	}
	q := r.URL.Query().Get("q")
	metrics.FilterRequestsTotal.Inc()
	a.record(r.Context(), kindFilter)

	var visible int
	ops := sess.run(func(v *shelter.View) {
		v.ApplyFilter(q)
		visible = v.VisibleCount()
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "query": q, "visible": visible, "ops": ops})
}

// DELETE /views/{id}
func (a *API) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if !a.views.remove(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "view not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /stats
func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	t, src := a.totals(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"source":  src,
		"nearest": t[kindNearest],
		"filter":  t[kindFilter],
	})
}

// GET /healthz
// 约束：装载失败时仍返回 200，服务以空地图继续运行
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := a.ds.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    a.ds.State(),
		"shelters": a.ds.Index().Len(),
		"dropped":  st.Dropped,
		"views":    a.views.len(),
	})
}
