package spa

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	transportDocument = "document"
	transportLive     = "live"
)

var (
	navigations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalwatch_navigations_total",
			Help: "Total number of rendered navigations",
		},
		[]string{"component", "transport"},
	)

	notFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalwatch_not_found_total",
			Help: "Total number of navigations to undeclared paths",
		},
		[]string{"transport"},
	)

	renderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalwatch_render_failures_total",
			Help: "Total number of pages rendered with the error component",
		},
		[]string{"component"},
	)

	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coalwatch_render_duration_seconds",
			Help:    "Time taken to render a page or router view",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport"},
	)

	liveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coalwatch_live_sessions",
			Help: "Number of open live navigation sessions",
		},
	)
)

func observeRender(transport string, pg *page, d time.Duration) {
	renderDuration.WithLabelValues(transport).Observe(d.Seconds())
	navigations.WithLabelValues(componentName(pg.match), transport).Inc()
	if !pg.match.Found {
		notFound.WithLabelValues(transport).Inc()
	}
	if pg.status == http.StatusInternalServerError {
		renderFailures.WithLabelValues(componentName(pg.match)).Inc()
	}
}
