// 包 config：集中读取 .env 与环境变量，构建进程配置
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 进程配置；各子结构对应一个外部依赖
type Config struct {
	Addr    string
	APIBase string
	WebDir  string

	Dataset  Dataset
	S3       S3
	Postgres Postgres
	Redis    Redis
	Overpass Overpass
	GeoIP    GeoIP
	Map      Map

	NearestCacheSize int
	NearestCacheTTL  time.Duration
	ViewTTL          time.Duration
	MaxViews         int
	// LoadWait 请求等待数据集首次装载的上限
	LoadWait time.Duration

	RateLimitEnabled bool
	RateLimitQPS     int
}

// Dataset 数据源：file | http | s3 | postgres | overpass
type Dataset struct {
	Source      string
	Path        string
	URL         string
	HTTPTimeout time.Duration
}

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Key       string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
	// 未显式配置 PG_HOST 且数据源不是 postgres 时不连接数据库
	Enabled bool
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

type Overpass struct {
	Endpoint    string
	Query       string
	BBox        string
	Timeout     time.Duration
	MaxParallel int
}

type GeoIP struct {
	Path string
	Zoom int
}

// Map 地图初始视图与瓦片源
type Map struct {
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	TileURL     string
	Attribution string
}

const (
	defaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	defaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
)

// Load 先读取 .env 与 data/env/.env（均可缺失），再从环境变量构建配置
func Load() *Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	return FromEnv()
}

// FromEnv 只读取当前环境变量
func FromEnv() *Config {
	src := strings.ToLower(getEnv("DATASET_SOURCE", "file"))
	pgHost := os.Getenv("PG_HOST")
	redisHost := os.Getenv("REDIS_HOST")
	return &Config{
		Addr:    getEnv("ADDR", ":8080"),
		APIBase: getEnv("API_BASE", "/api"),
		WebDir:  getEnv("WEB_DIR", "web"),
		Dataset: Dataset{
			Source:      src,
			Path:        getEnv("DATASET_PATH", filepath.Join("dataset", "shelters.json")),
			URL:         os.Getenv("DATASET_URL"),
			HTTPTimeout: getEnvSeconds("DATASET_HTTP_TIMEOUT_S", 15),
		},
		S3: S3{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
			Bucket:    getEnv("DATASET_BUCKET", "shelters"),
			Key:       getEnv("DATASET_KEY", "shelters.json"),
		},
		Postgres: Postgres{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			User:     getEnv("PG_USER", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			DB:       getEnv("PG_DB", "shelters"),
			SSLMode:  getEnv("PG_SSLMODE", "disable"),
			MaxOpen:  getEnvInt("PG_MAX_OPEN_CONNS", 10),
			MaxIdle:  getEnvInt("PG_MAX_IDLE_CONNS", 5),
			Enabled:  pgHost != "" || src == "postgres",
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_HOST", "127.0.0.1") + ":" + getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASS"),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  redisHost != "",
		},
		Overpass: Overpass{
			Endpoint:    getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			Query:       getEnv("OVERPASS_FILTER", `node["amenity"="shelter"]`),
			BBox:        getEnv("OVERPASS_BBOX", "57.9,4.5,71.2,31.1"),
			Timeout:     getEnvSeconds("OVERPASS_TIMEOUT_S", 60),
			MaxParallel: getEnvInt("OVERPASS_MAX_PARALLEL", 2),
		},
		GeoIP: GeoIP{
			Path: os.Getenv("GEOIP_DB_PATH"),
			Zoom: getEnvInt("GEOIP_HINT_ZOOM", 9),
		},
		Map: Map{
			CenterLat:   getEnvFloat("MAP_CENTER_LAT", 59.9139),
			CenterLon:   getEnvFloat("MAP_CENTER_LON", 10.7522),
			Zoom:        getEnvInt("MAP_ZOOM", 6),
			TileURL:     getEnv("MAP_TILE_URL", defaultTileURL),
			Attribution: getEnv("MAP_ATTRIBUTION", defaultAttribution),
		},
		NearestCacheSize: getEnvInt("NEAREST_CACHE_SIZE", 4096),
		NearestCacheTTL:  getEnvSeconds("NEAREST_CACHE_TTL_S", 3600),
		ViewTTL:          getEnvSeconds("VIEW_TTL_S", 1800),
		MaxViews:         getEnvInt("VIEW_MAX", 10000),
		LoadWait:         getEnvSeconds("LOAD_WAIT_S", 30),
		RateLimitEnabled: os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:     getEnvInt("RATE_LIMIT_QPS", 200),
	}
}

// DSN PostgreSQL 连接串
func (p Postgres) DSN() string {
	dsn := "postgres://" + p.User
	if p.Password != "" {
		dsn += ":" + p.Password
	}
	return dsn + "@" + p.Host + ":" + p.Port + "/" + p.DB + "?sslmode=" + p.SSLMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt 解析失败或为负时回退默认值
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	n := getEnvInt(key, fallback)
	if n == 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
