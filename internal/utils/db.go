package utils

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"shelter-map/internal/config"
	"shelter-map/internal/logger"
)

// OpenPostgres 按配置打开连接池并做一次 ping
// 约束：ping 失败时关闭连接池并返回错误，调用方自行决定降级
func OpenPostgres(ctx context.Context, c config.Postgres) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", c.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.MaxOpen)
	db.SetMaxIdleConns(c.MaxIdle)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.L().Debug("db_open_ok", "host", c.Host, "db", c.DB, "max_open", c.MaxOpen)
	return db, nil
}
