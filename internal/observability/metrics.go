package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the dashboard service.
type Metrics struct {
	WeatherFetches       *prometheus.CounterVec // labels: outcome={success,not_found,transient,superseded}
	WeatherFetchDuration prometheus.Histogram
	RiskPercent          prometheus.Histogram
	SearchesSaved        prometheus.Counter
	SearchSaveErrors     prometheus.Counter
	ImageCache           *prometheus.CounterVec // labels: result={hit,miss}
	Notifications        prometheus.Counter
}

const namespace = "cloudburst"

func newMetrics() *Metrics {
	return &Metrics{
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetches_total",
			Help:      "Current+forecast retrievals by outcome.",
		}, []string{"outcome"}),
		WeatherFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_fetch_duration_seconds",
			Help:      "Duration of the paired current+forecast retrieval.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RiskPercent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_percent",
			Help:      "Distribution of served cloudburst risk percentages.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		SearchesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_saved_total",
			Help:      "Searches appended to the audit trail.",
		}),
		SearchSaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_save_errors_total",
			Help:      "Store failures while saving a search.",
		}),
		ImageCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cache_total",
			Help:      "Image lookups by cache result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_generated_total",
			Help:      "Notification messages added to the feed.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.WeatherFetches,
		m.WeatherFetchDuration,
		m.RiskPercent,
		m.SearchesSaved,
		m.SearchSaveErrors,
		m.ImageCache,
		m.Notifications,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
