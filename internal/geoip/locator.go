// 包 geoip：按访问者 IP 估算初始地图中心
// 约束：只用于地图初始视图，不参与最近避难所查询；无位置时不以 IP 位置兜底。
package geoip

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"shelter-map/internal/logger"
	"shelter-map/internal/shelter"
)

// Locator GeoIP2/GeoLite2 City 库；nil 值可用，恒返回未命中
type Locator struct {
	db *geoip2.Reader
}

// Open 打开 mmdb 文件；path 为空时返回 nil Locator
func Open(path string) (*Locator, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("geoip_open_ok", "path", path)
	return &Locator{db: db}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Hint 查询 IP 的大致坐标；私网、无法解析或库中缺少坐标时返回 false
func (l *Locator) Hint(ip string) (shelter.Position, bool) {
	if l == nil || l.db == nil {
		return shelter.Position{}, false
	}
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() {
		return shelter.Position{}, false
	}
	rec, err := l.db.City(addr)
	if err != nil {
		logger.L().Debug("geoip_lookup_error", "ip", ip, "err", err)
		return shelter.Position{}, false
	}
	lat, lon := rec.Location.Latitude, rec.Location.Longitude
	if lat == 0 && lon == 0 {
		return shelter.Position{}, false
	}
	pos, err := shelter.FromLatLon(lat, lon)
	if err != nil {
		return shelter.Position{}, false
	}
	return pos, true
}
