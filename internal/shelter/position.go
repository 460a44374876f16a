// Package shelter 持有避难所实体、只读索引、最近邻与市镇过滤逻辑，以及单次页面视图的可见集合。
package shelter

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrInvalidPosition 坐标非有限数或超出经纬度范围
var ErrInvalidPosition = errors.New("shelter: invalid position")

// Position 以纬度在前、经度在后的方式保存坐标（WGS84）。
// GeoJSON 的 [lon, lat] 顺序只允许经 FromLonLat 进入。
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FromLonLat 按 GeoJSON 轴序构造坐标并校验
func FromLonLat(lon, lat float64) (Position, error) {
	p := Position{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Position{}, ErrInvalidPosition
	}
	return p, nil
}

// FromLatLon 按纬度、经度顺序构造坐标并校验
func FromLatLon(lat, lon float64) (Position, error) {
	return FromLonLat(lon, lat)
}

// ParsePosition 解析导航参数中的纬度/经度文本；缺失或非法一律视为“无用户位置”
func ParsePosition(lat, lon string) (Position, bool) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return Position{}, false
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Position{}, false
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return Position{}, false
	}
	p, err := FromLatLon(la, lo)
	if err != nil {
		return Position{}, false
	}
	return p, true
}

// Valid 两个分量均为有限数，且 lat∈[-90,90]、lon∈[-180,180]
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Point 转为 orb.Point（[lon, lat]）
func (p Position) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// FromPoint 由 orb.Point 还原坐标
func FromPoint(pt orb.Point) Position { return Position{Lat: pt.Lat(), Lon: pt.Lon()} }
