package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DatasetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shelter_dataset_loads_total",
		Help: "Dataset load attempts by source and outcome",
	}, []string{"source", "outcome"})
	DatasetLoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shelter_dataset_load_duration_ms",
		Help:    "Dataset load duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	SheltersLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shelter_index_size",
		Help: "Number of shelters in the loaded index",
	})
	DroppedFeaturesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shelter_dropped_features_total",
		Help: "Features dropped for malformed coordinates",
	})
	NearestRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shelter_nearest_requests_total",
		Help: "Nearest shelter lookups by result (found, none)",
	}, []string{"result"})
	NearestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shelter_nearest_duration_ms",
		Help:    "Nearest shelter lookup duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100},
	})
	FilterRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shelter_filter_requests_total",
		Help: "Municipality filter evaluations",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shelter_cache_hits_total",
		Help: "Nearest cache hits by tier (memory, redis)",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shelter_cache_misses_total",
		Help: "Nearest cache misses across all tiers",
	})
	ViewsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shelter_views_active",
		Help: "Page-view sessions currently held in memory",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shelter_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(DatasetLoadDurationMs)
	prometheus.MustRegister(SheltersLoaded)
	prometheus.MustRegister(DroppedFeaturesTotal)
	prometheus.MustRegister(NearestRequestsTotal)
	prometheus.MustRegister(NearestDurationMs)
	prometheus.MustRegister(FilterRequestsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(ViewsActive)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标处理器，在主入口挂载
func Handler() http.Handler { return promhttp.Handler() }
