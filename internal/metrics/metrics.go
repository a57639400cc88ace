package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inmoalert_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inmoalert_run_duration_seconds",
			Help:    "Duration of each full alerts run in seconds.",
			Buckets: []float64{30, 60, 300, 900, 1800, 3600},
		},
	)
	SourceScrapeDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "inmoalert_source_scrape_duration_seconds",
			Help:       "Duration of scraping one source for one alert.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"source"},
	)
	ScrapedListingsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inmoalert_listings_scraped_total",
			Help: "Total number of listings scraped per source.",
		},
		[]string{"source"},
	)
	NotifiedListingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inmoalert_listings_notified_total",
			Help: "Total number of listings delivered to alerts.",
		},
	)
	SuppressedListingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inmoalert_listings_suppressed_total",
			Help: "Total number of listings suppressed as already seen.",
		},
	)
)

func Register() {
	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(SourceScrapeDuration)
	prometheus.MustRegister(ScrapedListingsCounter)
	prometheus.MustRegister(NotifiedListingsCounter)
	prometheus.MustRegister(SuppressedListingsCounter)
}
