// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"shelter-map/internal/api"
	"shelter-map/internal/config"
	"shelter-map/internal/dataset"
	"shelter-map/internal/geoip"
	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
	"shelter-map/internal/middleware"
	"shelter-map/internal/migrate"
	"shelter-map/internal/nearcache"
	"shelter-map/internal/store"
	"shelter-map/internal/utils"
	"shelter-map/internal/version"
	"shelter-map/pkg/graceful"
)

func main() {
	cfg := config.Load()
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase)
	l.Debug("config_dataset", "source", cfg.Dataset.Source, "path", cfg.Dataset.Path)

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	// 背景：数据库只承担统计与 postgres 数据源；连接失败时服务照常运行
	var st *store.Store
	if cfg.Postgres.Enabled {
		db, err := utils.OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			l.Error("db_open_error", "err", err)
		} else if err := migrate.EnsureSchema(ctx, db.DB); err != nil {
			l.Error("schema_error", "err", err)
			_ = db.Close()
		} else {
			st = store.Attach(db)
			defer st.Close()
			l.Info("db_open_ok")
		}
	} else {
		l.Info("db_disabled")
	}

	rc := utils.OpenRedis(ctx, cfg.Redis)
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		l.Info("redis_ping_ok")
	}

	geo, err := geoip.Open(cfg.GeoIP.Path)
	if err != nil {
		l.Error("geoip_open_error", "path", cfg.GeoIP.Path, "err", err)
	}
	defer geo.Close()

	// 文档注释：一次性异步装载数据集
	// 背景：装载期间地图为空；失败只记录一次错误并以空索引继续服务，不重试。
	var lister dataset.ShelterLister
	if st != nil {
		lister = st
	}
	var pending *dataset.Pending
	loader, err := dataset.NewLoader(cfg.Dataset, cfg.S3, cfg.Overpass, lister)
	if err != nil {
		pending = dataset.Failed(cfg.Dataset.Source, err)
	} else {
		l.Info("dataset_load_begin", "source", loader.Name())
		pending = dataset.Start(ctx, loader)
	}

	deps := api.Deps{
		Dataset:  pending,
		Cache:    nearcache.New(cfg.NearestCacheSize, cfg.NearestCacheTTL, rc),
		GeoIP:    geo,
		Map:      cfg.Map,
		HintZoom: cfg.GeoIP.Zoom,
		ViewTTL:  cfg.ViewTTL,
		MaxViews: cfg.MaxViews,
		LoadWait: cfg.LoadWait,
	}
	if st != nil {
		deps.Stats = st
	}
	a := api.New(deps)
	go a.RunJanitor(ctx, time.Minute)

	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, a.Routes()))
	mux.Handle("/metrics", metrics.Handler())

	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'\n"))
	})
	mux.Handle("/", http.FileServer(http.Dir(cfg.WebDir)))

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(cfg.RateLimitEnabled, cfg.RateLimitQPS, handler)
	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	l.Info("listening", "addr", cfg.Addr, "web_dir", cfg.WebDir)
	if err := graceful.Serve(ctx, s, 10*time.Second); err != nil {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
}
