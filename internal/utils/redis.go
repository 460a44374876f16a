// 包 utils：外部连接工具，统一从配置打开 Postgres 与 Redis
package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"shelter-map/internal/config"
	"shelter-map/internal/logger"
)

// OpenRedis 按配置打开 Redis 客户端
// 约束：未启用或 ping 失败时返回 nil，缓存层据此退化为仅进程内
func OpenRedis(ctx context.Context, c config.Redis) *redis.Client {
	if !c.Enabled || c.Addr == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		logger.L().Warn("redis_unavailable", "addr", c.Addr, "err", err)
		_ = rc.Close()
		return nil
	}
	logger.L().Debug("redis_open_ok", "addr", c.Addr, "db", c.DB)
	return rc
}
