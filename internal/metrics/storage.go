package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(sqliteConnections, storageErrorsTotal) }

var (
	sqliteConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sqlite_connections",
			Help: "SQLite pool connections by state, sampled on each health check.",
		},
		[]string{"state"},
	)

	storageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_errors_total",
			Help: "Failed storage operations, by operation.",
		},
		[]string{"op"},
	)
)

// ObservePool copies the pool counters of database/sql into the gauge.
func ObservePool(stats sql.DBStats) {
	sqliteConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	sqliteConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	sqliteConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
}

func IncStorageError(op string) {
	storageErrorsTotal.WithLabelValues(label(op)).Inc()
}
