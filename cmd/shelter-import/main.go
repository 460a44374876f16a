// 导入工具：读取数据集（file / http / s3 / overpass），整表替换 _shelters，供 postgres 数据源使用
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"shelter-map/internal/config"
	"shelter-map/internal/dataset"
	"shelter-map/internal/logger"
	"shelter-map/internal/migrate"
	"shelter-map/internal/store"
	"shelter-map/internal/utils"
	"shelter-map/pkg/graceful"
)

func main() {
	envFile := flag.String("env", "", "extra .env file loaded before the defaults")
	source := flag.String("source", "", "override DATASET_SOURCE (file, http, s3, overpass)")
	path := flag.String("path", "", "override DATASET_PATH for the file source")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintln(os.Stderr, "env:", err)
			os.Exit(2)
		}
	}
	cfg := config.Load()
	l := logger.Setup()
	if *source != "" {
		cfg.Dataset.Source = *source
	}
	if *path != "" {
		cfg.Dataset.Path = *path
	}
	if cfg.Dataset.Source == "postgres" {
		l.Error("import_bad_source", "source", cfg.Dataset.Source, "reason", "postgres is the import target")
		os.Exit(2)
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	loader, err := dataset.NewLoader(cfg.Dataset, cfg.S3, cfg.Overpass, nil)
	if err != nil {
		l.Error("import_loader_error", "err", err)
		os.Exit(1)
	}
	t0 := time.Now()
	ss, stats, err := loader.Load(ctx)
	if err != nil {
		l.Error("import_load_error", "source", loader.Name(), "err", err)
		os.Exit(1)
	}
	l.Info("import_parsed", "source", loader.Name(), "features", stats.Features, "loaded", stats.Loaded, "dropped", stats.Dropped, "ms", time.Since(t0).Milliseconds())
	if *dryRun {
		return
	}

	db, err := utils.OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db.DB); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	if err := store.Attach(db).ReplaceShelters(ctx, ss); err != nil {
		l.Error("import_write_error", "err", err)
		os.Exit(1)
	}
	l.Info("import_done", "imported", len(ss), "dropped", stats.Dropped, "ms", time.Since(t0).Milliseconds())
}
