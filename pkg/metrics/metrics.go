package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InvocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_invocations_total",
		Help: "Overlay pipeline invocations by terminal state",
	}, []string{"state"})
	InvocationDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "overlay_invocation_duration_ms",
		Help:    "Overlay pipeline duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	TileFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_tile_fetch_total",
		Help: "Remote tile fetches by tile kind and status",
	}, []string{"kind", "status"})
	TileFetchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "overlay_tile_fetch_duration_ms",
		Help:    "Remote tile fetch duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000},
	}, []string{"kind"})
	SpeedLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_speed_lookups_total",
		Help: "Per segment speed lookups by result",
	}, []string{"result"})
)

const (
	KindGeometry = "geometry"
	KindData     = "data"
	KindRoute    = "route"
)

func init() {
	prometheus.MustRegister(InvocationsTotal)
	prometheus.MustRegister(InvocationDurationMs)
	prometheus.MustRegister(TileFetchTotal)
	prometheus.MustRegister(TileFetchDurationMs)
	prometheus.MustRegister(SpeedLookupsTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
