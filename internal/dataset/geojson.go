// 包 dataset：从静态资源（文件、HTTP、S3）、数据库或 Overpass 读取避难所并构建只读索引。
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"shelter-map/internal/logger"
	"shelter-map/internal/shelter"
)

// ErrNoFeatures 文档缺少 features 数组
var ErrNoFeatures = errors.New("dataset: document has no features array")

// Stats 一次装载的计数
type Stats struct {
	Features int `json:"features"`
	Loaded   int `json:"loaded"`
	Dropped  int `json:"dropped"`
}

type rawCollection struct {
	Features json.RawMessage `json:"features"`
}

type rawFeature struct {
	Geometry *struct {
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// 属性键：数据集使用挪威语键名，同时接受英文别名
var (
	addressKeys      = []string{"adresse", "address"}
	municipalityKeys = []string{"kommune", "municipality"}
	capacityKeys     = []string{"plasser", "capacity"}
)

// 文档注释：解析 GeoJSON FeatureCollection
// 约束：坐标按 [lon, lat] 读取且必须恰为两个数值；不合格要素静默丢弃（仅计数与 debug 日志），
// 文档本身不可解析或缺少 features 数组时整体失败，不返回部分结果。
func ParseFeatureCollection(r io.Reader) ([]shelter.Shelter, Stats, error) {
	var st Stats
	var fc rawCollection
	dec := json.NewDecoder(r)
	if err := dec.Decode(&fc); err != nil {
		return nil, st, fmt.Errorf("dataset: decode document: %w", err)
	}
	// 文档之后只允许空白
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, st, errors.New("dataset: trailing data after document")
	}
	if len(fc.Features) == 0 || string(fc.Features) == "null" {
		return nil, st, ErrNoFeatures
	}
	var feats []json.RawMessage
	if err := json.Unmarshal(fc.Features, &feats); err != nil {
		return nil, st, fmt.Errorf("dataset: features is not an array: %w", err)
	}
	st.Features = len(feats)
	out := make([]shelter.Shelter, 0, len(feats))
	for i, raw := range feats {
		s, err := parseFeature(raw)
		if err != nil {
			st.Dropped++
			logger.L().Debug("dataset_feature_dropped", "index", i, "err", err)
			continue
		}
		out = append(out, s)
	}
	st.Loaded = len(out)
	return out, st, nil
}

func parseFeature(raw json.RawMessage) (shelter.Shelter, error) {
	var f rawFeature
	if err := json.Unmarshal(raw, &f); err != nil {
		return shelter.Shelter{}, fmt.Errorf("feature: %w", err)
	}
	if f.Geometry == nil || len(f.Geometry.Coordinates) == 0 {
		return shelter.Shelter{}, errors.New("feature: missing coordinates")
	}
	pos, err := parseLonLat(f.Geometry.Coordinates)
	if err != nil {
		return shelter.Shelter{}, err
	}
	return shelter.New(pos, shelter.Attrs{
		Address:      propString(f.Properties, addressKeys),
		Municipality: propString(f.Properties, municipalityKeys),
		Capacity:     propCapacity(f.Properties, capacityKeys),
	})
}

// parseLonLat 只接受恰好两个数值的数组
func parseLonLat(raw json.RawMessage) (shelter.Position, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return shelter.Position{}, fmt.Errorf("coordinates: %w", err)
	}
	if len(arr) != 2 {
		return shelter.Position{}, fmt.Errorf("coordinates: want 2 values, got %d", len(arr))
	}
	lon, err := parseNumber(arr[0])
	if err != nil {
		return shelter.Position{}, fmt.Errorf("coordinates: lon: %w", err)
	}
	lat, err := parseNumber(arr[1])
	if err != nil {
		return shelter.Position{}, fmt.Errorf("coordinates: lat: %w", err)
	}
	return shelter.FromLonLat(lon, lat)
}

// parseNumber json.Unmarshal 会把 null 解成 0，这里显式拒绝
func parseNumber(raw json.RawMessage) (float64, error) {
	if s := strings.TrimSpace(string(raw)); s == "null" || s == "" {
		return 0, errors.New("not a number")
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func propString(p map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// propCapacity 数值或数字文本；0、负数、小数与其他类型视为缺失
func propCapacity(p map[string]any, keys []string) shelter.Capacity {
	for _, k := range keys {
		switch v := p[k].(type) {
		case float64:
			if v == math.Trunc(v) && v > 0 && v < math.MaxInt32 {
				return shelter.CapacityOf(int(v))
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return shelter.CapacityOf(n)
			}
		}
	}
	return shelter.Capacity{}
}
