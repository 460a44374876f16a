package migrate

import (
	"context"
	"database/sql"

	"shelter-map/internal/logger"
)

// 背景：首次运行自动创建避难所表与统计表
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；seq 保存数据集原始顺序
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _shelters (
            seq INT PRIMARY KEY,
            lat DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
            lon DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180),
            address TEXT NOT NULL,
            municipality TEXT NOT NULL,
            capacity INT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_shelters_municipality ON _shelters(lower(municipality))`,
		`CREATE TABLE IF NOT EXISTS _shelter_stats_daily (
            day DATE NOT NULL,
            kind TEXT NOT NULL,
            queries BIGINT NOT NULL DEFAULT 0,
            PRIMARY KEY (day, kind)
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
