package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheLookupsTotal, cacheErrorsTotal) }

var (
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Read-through cache lookups by outcome.",
		},
		[]string{"cache", "outcome"}, // outcome: hit | miss
	)

	cacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Cache operations that failed and fell back to the database.",
		},
		[]string{"cache", "op"}, // op: get | set | del | decode
	)
)

func ObserveCacheLookup(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookupsTotal.WithLabelValues(norm(cache), outcome).Inc()
}

func IncCacheError(cache, op string) {
	cacheErrorsTotal.WithLabelValues(norm(cache), norm(op)).Inc()
}
