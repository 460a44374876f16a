// 包 store: 提供与 PostgreSQL 的数据访问层，包含避难所表读写与查询统计
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shelter-map/internal/logger"
	"shelter-map/internal/shelter"
)

// Store: 数据库访问入口，持有 sqlx 连接池
type Store struct {
	db *sqlx.DB
}

func Attach(db *sqlx.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sqlx.DB { return s.db }

// shelterRow: _shelters 表的一行
type shelterRow struct {
	Seq          int           `db:"seq"`
	Lat          float64       `db:"lat"`
	Lon          float64       `db:"lon"`
	Address      string        `db:"address"`
	Municipality string        `db:"municipality"`
	Capacity     sql.NullInt64 `db:"capacity"`
}

func toRow(seq int, s shelter.Shelter) shelterRow {
	r := shelterRow{
		Seq:          seq,
		Lat:          s.Position.Lat,
		Lon:          s.Position.Lon,
		Address:      s.Address,
		Municipality: s.Municipality,
	}
	if s.Capacity.Known {
		r.Capacity = sql.NullInt64{Int64: int64(s.Capacity.People), Valid: true}
	}
	return r
}

func (r shelterRow) shelter() (shelter.Shelter, error) {
	capacity := shelter.Capacity{}
	if r.Capacity.Valid {
		capacity = shelter.CapacityOf(int(r.Capacity.Int64))
	}
	return shelter.New(shelter.Position{Lat: r.Lat, Lon: r.Lon}, shelter.Attrs{
		Address:      r.Address,
		Municipality: r.Municipality,
		Capacity:     capacity,
	})
}

// 单条 INSERT 最多 65535 个占位符，每行 6 列
const insertBatch = 1000

// 文档注释：整表替换避难所数据
// 背景：导入工具每次提交完整数据集；旧数据与新数据不应同时可见。
// 约束：单事务内先清空再分批插入；seq 按切片顺序从 0 递增。
func (s *Store) ReplaceShelters(ctx context.Context, ss []shelter.Shelter) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM _shelters`); err != nil {
		return fmt.Errorf("store: clear shelters: %w", err)
	}
	rows := make([]shelterRow, 0, insertBatch)
	for i := 0; i < len(ss); i += insertBatch {
		rows = rows[:0]
		end := min(i+insertBatch, len(ss))
		for j := i; j < end; j++ {
			rows = append(rows, toRow(j, ss[j]))
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO _shelters(seq, lat, lon, address, municipality, capacity)
            VALUES(:seq, :lat, :lon, :address, :municipality, :capacity)`, rows); err != nil {
			return fmt.Errorf("store: insert shelters [%d,%d): %w", i, end, err)
		}
		logger.L().Debug("store_shelters_batch", "from", i, "to", end)
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	logger.L().Info("store_shelters_replaced", "count", len(ss))
	return nil
}

// ListShelters: 按 seq 顺序读取；位置非法的行跳过并计入 dropped
func (s *Store) ListShelters(ctx context.Context) ([]shelter.Shelter, int, error) {
	var rows []shelterRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT seq, lat, lon, address, municipality, capacity FROM _shelters ORDER BY seq`); err != nil {
		return nil, 0, fmt.Errorf("store: list shelters: %w", err)
	}
	out := make([]shelter.Shelter, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		sh, err := r.shelter()
		if err != nil {
			dropped++
			logger.L().Debug("store_row_dropped", "seq", r.Seq, "err", err)
			continue
		}
		out = append(out, sh)
	}
	return out, dropped, nil
}

// IncrStats: 递增某类查询（nearest / filter）的当日计数
func (s *Store) IncrStats(ctx context.Context, kind string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO _shelter_stats_daily(day, kind, queries) VALUES(current_date, $1, 1)
        ON CONFLICT (day, kind) DO UPDATE SET queries=_shelter_stats_daily.queries+1`, kind)
	logger.L().Debug("stats_incr", "kind", kind)
	return err
}

// Totals: 累计与当日查询次数
type Totals struct {
	Total int64 `db:"total" json:"total"`
	Today int64 `db:"today" json:"today"`
}

// GetTotals: 按查询类别汇总累计与当日次数
func (s *Store) GetTotals(ctx context.Context) (map[string]Totals, error) {
	var rows []struct {
		Kind string `db:"kind"`
		Totals
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT kind,
            COALESCE(SUM(queries), 0) AS total,
            COALESCE(SUM(queries) FILTER (WHERE day = current_date), 0) AS today
        FROM _shelter_stats_daily GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Totals, len(rows))
	for _, r := range rows {
		out[r.Kind] = r.Totals
	}
	logger.L().Debug("stats_totals", "kinds", len(out))
	return out, nil
}
