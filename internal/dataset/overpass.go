package dataset

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/serjvanilla/go-overpass"

	"shelter-map/internal/config"
	"shelter-map/internal/logger"
	"shelter-map/internal/shelter"
)

// OverpassLoader 从 OpenStreetMap 拉取避难所节点
// 约束：只取 node；结果按节点 ID 升序，保证多次装载顺序一致
type OverpassLoader struct {
	client  *overpass.Client
	filter  string
	bbox    string
	timeout time.Duration
}

func NewOverpassLoader(c config.Overpass) *OverpassLoader {
	httpClient := &http.Client{Timeout: c.Timeout}
	client := overpass.NewWithSettings(c.Endpoint, max(c.MaxParallel, 1), httpClient)
	return &OverpassLoader{client: &client, filter: c.Query, bbox: c.BBox, timeout: c.Timeout}
}

func (l *OverpassLoader) Name() string { return "overpass" }

// buildQuery bbox 为 "south,west,north,east"，空串表示全局
func buildQuery(filter, bbox string, timeout time.Duration) string {
	sel := filter
	if bbox != "" {
		sel += "(" + bbox + ")"
	}
	secs := int(timeout / time.Second)
	if secs <= 0 {
		secs = 60
	}
	return fmt.Sprintf("[out:json][timeout:%d];\n%s;\nout body;", secs, sel)
}

func (l *OverpassLoader) Load(ctx context.Context) ([]shelter.Shelter, Stats, error) {
	q := buildQuery(l.filter, l.bbox, l.timeout)
	logger.L().Debug("overpass_query", "query", q)

	type answer struct {
		res overpass.Result
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		res, err := l.client.Query(q)
		ch <- answer{res, err}
	}()
	var a answer
	select {
	case <-ctx.Done():
		return nil, Stats{}, ctx.Err()
	case a = <-ch:
	}
	if a.err != nil {
		return nil, Stats{}, fmt.Errorf("dataset: overpass query failed: %w", a.err)
	}
	nodes := make([]nodeTags, 0, len(a.res.Nodes))
	for _, n := range a.res.Nodes {
		if n == nil {
			continue
		}
		nodes = append(nodes, nodeTags{ID: n.ID, Lat: n.Lat, Lon: n.Lon, Tags: n.Tags})
	}
	return convertNodes(nodes)
}

// nodeTags overpass.Node 的最小投影，便于测试
type nodeTags struct {
	ID       int64
	Lat, Lon float64
	Tags     map[string]string
}

func convertNodes(nodes []nodeTags) ([]shelter.Shelter, Stats, error) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	st := Stats{Features: len(nodes)}
	out := make([]shelter.Shelter, 0, len(nodes))
	for _, n := range nodes {
		s, err := shelter.New(shelter.Position{Lat: n.Lat, Lon: n.Lon}, shelter.Attrs{
			Address:      osmAddress(n.Tags),
			Municipality: firstTag(n.Tags, "addr:municipality", "addr:city"),
			Capacity:     osmCapacity(n.Tags["capacity"]),
		})
		if err != nil {
			st.Dropped++
			logger.L().Debug("dataset_feature_dropped", "osm_id", n.ID, "err", err)
			continue
		}
		out = append(out, s)
	}
	st.Loaded = len(out)
	return out, st, nil
}

// osmAddress 街道与门牌拼接；缺街道时退回 name
func osmAddress(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:street"])
	if street == "" {
		return strings.TrimSpace(tags["name"])
	}
	if hn := strings.TrimSpace(tags["addr:housenumber"]); hn != "" {
		return street + " " + hn
	}
	return street
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

func osmCapacity(v string) shelter.Capacity {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return shelter.Capacity{}
	}
	return shelter.CapacityOf(n)
}
