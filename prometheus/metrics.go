package prometheus

import "github.com/prometheus/client_golang/prometheus"

// namespace for use with metric names.
const namespace = "release_catalog"

// Additional metrics to expose, prometheus.DefaultGatherer includes runtime metrics by default.
var (
	// HTTPRequestsTotal records the total number of HTTP requests, partitioned by route.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests, partitioned by route.",
		},
		[]string{"route"},
	)

	// CacheHitsTotal records query results served from the cache.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of query results served from the cache.",
		},
	)

	// CacheMissesTotal records query results that had to be computed.
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of query results computed on a cache miss.",
		},
	)

	// StoreQueriesTotal records queries executed against the backing store.
	StoreQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_queries_total",
			Help:      "Total number of queries executed against the backing store.",
		},
	)

	// ReleasesDeletedTotal records releases removed through the deleter.
	ReleasesDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "releases_deleted_total",
			Help:      "Total number of releases deleted.",
		},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(StoreQueriesTotal)
	prometheus.MustRegister(ReleasesDeletedTotal)
}
