// Package metrics exposes the engine's Prometheus instrumentation: refresh
// outcome counters, provider request timing, and a collector that reports the
// current keyword population by classification type straight from the store.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/database"
	"github.com/localpulse/localpulse-engine/pkg/models"
)

var (
	refreshOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localpulse_refresh_keywords_total",
			Help: "Keyword refresh outcomes by result",
		},
		[]string{"outcome"},
	)

	providerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "localpulse_provider_request_seconds",
			Help:    "Search-volume provider batch request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	keywordsByTypeDesc = prometheus.NewDesc(
		"localpulse_keywords_by_type",
		"Current keyword count by classification type",
		[]string{"type"},
		nil,
	)
)

// KeywordCollector is a custom Prometheus collector that counts keywords by
// classification type from the database on each scrape.
type KeywordCollector struct {
	db     *database.DB
	logger *zap.Logger
}

// Describe sends the metric descriptor to the channel.
func (c *KeywordCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- keywordsByTypeDesc
}

// Collect queries the database for keyword counts per type and emits them as
// gauges.
func (c *KeywordCollector) Collect(ch chan<- prometheus.Metric) {
	rows, err := c.db.Query(context.Background(),
		`SELECT type, COUNT(*) FROM keywords GROUP BY type`)
	if err != nil {
		c.logger.Error("Failed to collect keyword type metrics", zap.Error(err))
		return
	}
	defer rows.Close()

	for rows.Next() {
		var keywordType string
		var count int64
		if err := rows.Scan(&keywordType, &count); err != nil {
			c.logger.Error("Failed to scan keyword type metric", zap.Error(err))
			return
		}
		ch <- prometheus.MustNewConstMetric(
			keywordsByTypeDesc,
			prometheus.GaugeValue,
			float64(count),
			keywordType,
		)
	}
}

var initOnce sync.Once

// Init registers the counters and the database-backed collector.
// Must be called once at startup.
func Init(db *database.DB, logger *zap.Logger) {
	initOnce.Do(func() {
		prometheus.MustRegister(refreshOutcomes, providerRequestDuration)
		prometheus.MustRegister(&KeywordCollector{db: db, logger: logger.Named("metrics")})
	})
}

// RecordRefreshSummary adds one refresh call's outcome counts.
func RecordRefreshSummary(s models.RefreshSummary) {
	refreshOutcomes.WithLabelValues("refreshed").Add(float64(s.Refreshed))
	refreshOutcomes.WithLabelValues("skipped").Add(float64(s.Skipped))
	refreshOutcomes.WithLabelValues("errored").Add(float64(s.Errored))
}

// ObserveProviderRequest records one provider batch call. Result is "ok" or
// "error".
func ObserveProviderRequest(d time.Duration, result string) {
	providerRequestDuration.WithLabelValues(result).Observe(d.Seconds())
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
