package api

import (
	"shelter-map/internal/shelter"
)

// 文档注释：避难所返回结构（对外）
// 约束：capacity 未知时为 null；popup 为已转义的 HTML 片段，前端直接放入弹窗。
type shelterJSON struct {
	ID           int     `json:"id"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Address      string  `json:"address"`
	Municipality string  `json:"municipality"`
	Capacity     *int    `json:"capacity"`
	Popup        string  `json:"popup"`
}

type nearestJSON struct {
	shelterJSON
	DistanceKm float64 `json:"distance_km"`
}

// op 地图组件操作：add / remove / open_popup
type op struct {
	Op         string   `json:"op"`
	ID         int      `json:"id"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Popup      string   `json:"popup,omitempty"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type mapHint struct {
	latLon
	Zoom int `json:"zoom"`
}

type mapConfigJSON struct {
	Center      latLon   `json:"center"`
	Zoom        int      `json:"zoom"`
	TileURL     string   `json:"tile_url"`
	Attribution string   `json:"attribution"`
	Hint        *mapHint `json:"hint,omitempty"`
}

func toShelterJSON(s shelter.Shelter) shelterJSON {
	out := shelterJSON{
		ID:           s.ID,
		Lat:          s.Position.Lat,
		Lon:          s.Position.Lon,
		Address:      s.Address,
		Municipality: s.Municipality,
		Popup:        shelter.Popup(s),
	}
	if s.Capacity.Known {
		n := s.Capacity.People
		out.Capacity = &n
	}
	return out
}

func toNearestJSON(m shelter.Match) *nearestJSON {
	return &nearestJSON{shelterJSON: toShelterJSON(m.Shelter), DistanceKm: m.DistanceKm}
}
