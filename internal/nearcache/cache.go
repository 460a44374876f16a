// 包 nearcache：最近避难所查询的两级缓存（进程内 LRU → Redis）
package nearcache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
	"shelter-map/internal/shelter"
)

// Entry 缓存的查询结果；只存 ID 与距离，记录内容由索引提供
type Entry struct {
	Found      bool    `json:"found"`
	ID         int     `json:"id"`
	DistanceKm float64 `json:"distance_km"`
}

// Cache 两级缓存；rc 为 nil 时仅使用进程内 LRU
type Cache struct {
	mem *LRU[Entry]
	rc  *redis.Client
	ttl time.Duration
}

func New(capacity int, ttl time.Duration, rc *redis.Client) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{mem: NewLRU[Entry](capacity, ttl), rc: rc, ttl: ttl}
}

// Key 精确坐标 + 数据集指纹
// 约束：不做量化；量化会让相邻两点共享结果，改变最近邻语义。
func Key(fingerprint string, p shelter.Position) string {
	return "nearest:" + fingerprint + ":" +
		strconv.FormatFloat(p.Lat, 'g', -1, 64) + ":" +
		strconv.FormatFloat(p.Lon, 'g', -1, 64)
}

func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	if e, ok := c.mem.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
		return e, true
	}
	if c.rc != nil {
		s, err := c.rc.Get(ctx, key).Result()
		if err == nil && s != "" {
			var e Entry
			if json.Unmarshal([]byte(s), &e) == nil {
				c.mem.Set(key, e)
				metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
				return e, true
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			logger.L().Debug("nearcache_redis_get_error", "err", err)
		}
	}
	metrics.CacheMissesTotal.Inc()
	return Entry{}, false
}

func (c *Cache) Set(ctx context.Context, key string, e Entry) {
	c.mem.Set(key, e)
	if c.rc == nil {
		return
	}
	b, _ := json.Marshal(e)
	if err := c.rc.Set(ctx, key, string(b), c.ttl).Err(); err != nil {
		logger.L().Debug("nearcache_redis_set_error", "err", err)
	}
}

// Nearest 先查缓存，未命中时查询索引并回写
// 约束：缓存 ID 在当前索引中不存在时视为未命中
func (c *Cache) Nearest(ctx context.Context, idx *shelter.Index, user shelter.Position) (shelter.Match, bool) {
	if idx == nil || idx.Len() == 0 || !user.Valid() {
		return shelter.Match{}, false
	}
	key := Key(idx.Fingerprint(), user)
	if e, ok := c.Get(ctx, key); ok {
		if !e.Found {
			return shelter.Match{}, false
		}
		if s, ok := idx.Get(e.ID); ok {
			return shelter.Match{Shelter: s, DistanceKm: e.DistanceKm}, true
		}
	}
	m, ok := idx.Nearest(user)
	e := Entry{Found: ok}
	if ok {
		e.ID, e.DistanceKm = m.Shelter.ID, m.DistanceKm
	}
	c.Set(ctx, key, e)
	return m, ok
}
