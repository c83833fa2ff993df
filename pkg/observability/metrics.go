package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// SkyCollector bundles the Prometheus metrics of the sky service and
// provides helpers to wire them into the HTTP router.
type SkyCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	Views          *prometheus.CounterVec
	ViewDurations  prometheus.Histogram
	VisibleStars   prometheus.Gauge
	Exports        *prometheus.CounterVec
	Constellations prometheus.Counter

	CatalogPlanets prometheus.Gauge
	CatalogStars   prometheus.Gauge
}

// NewSkyCollector registers the sky metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewSkyCollector(reg prometheus.Registerer) (*SkyCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &SkyCollector{gatherer: gatherer}
	var err error

	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exosky_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route template, method, and status code.",
	}, []string{"route", "method", "code"}), "exosky_http_requests_total"); err != nil {
		return nil, err
	}

	if c.HTTPDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exosky_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"route", "method"}), "exosky_http_request_duration_seconds"); err != nil {
		return nil, err
	}

	if c.Views, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exosky_sky_views_total",
		Help: "Total number of sky view computations, labeled by outcome.",
	}, []string{"outcome"}), "exosky_sky_views_total"); err != nil {
		return nil, err
	}

	if c.ViewDurations, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "exosky_sky_view_duration_seconds",
		Help:    "Time spent filtering the catalog and summarizing one sky view.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}), "exosky_sky_view_duration_seconds"); err != nil {
		return nil, err
	}

	if c.VisibleStars, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exosky_visible_stars",
		Help: "Number of stars in the most recently computed sky view.",
	}), "exosky_visible_stars"); err != nil {
		return nil, err
	}

	if c.Exports, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exosky_exports_total",
		Help: "Total number of static image exports, labeled by outcome.",
	}, []string{"outcome"}), "exosky_exports_total"); err != nil {
		return nil, err
	}

	if c.Constellations, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exosky_constellations_saved_total",
		Help: "Total number of acknowledged custom constellations.",
	}), "exosky_constellations_saved_total"); err != nil {
		return nil, err
	}

	if c.CatalogPlanets, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exosky_catalog_planets",
		Help: "Number of planets in the loaded catalog.",
	}), "exosky_catalog_planets"); err != nil {
		return nil, err
	}

	if c.CatalogStars, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exosky_catalog_stars",
		Help: "Number of stars in the loaded catalog.",
	}), "exosky_catalog_stars"); err != nil {
		return nil, err
	}

	return c, nil
}

// Middleware records request counts and durations per mux route template.
func (c *SkyCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if c == nil {
			return
		}

		route := RouteTemplate(r)
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SkyCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveView records one sky view computation
func (c *SkyCollector) ObserveView(visible int, d time.Duration, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.Views.WithLabelValues(OutcomeError).Inc()
		return
	}
	c.Views.WithLabelValues(OutcomeOK).Inc()
	c.ViewDurations.Observe(d.Seconds())
	c.VisibleStars.Set(float64(visible))
}

// ObserveExport records one export attempt
func (c *SkyCollector) ObserveExport(err error) {
	if c == nil {
		return
	}
	c.Exports.WithLabelValues(outcome(err)).Inc()
}

// ObserveConstellation records one acknowledged constellation
func (c *SkyCollector) ObserveConstellation() {
	if c == nil {
		return
	}
	c.Constellations.Inc()
}

// SetCatalogCounts publishes the size of the loaded catalog
func (c *SkyCollector) SetCatalogCounts(planets, stars int) {
	if c == nil {
		return
	}
	c.CatalogPlanets.Set(float64(planets))
	c.CatalogStars.Set(float64(stars))
}

// RouteTemplate returns the mux path template that matched r, falling back
// to "unmatched" so raw paths never become label values.
func RouteTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tpl, err := route.GetPathTemplate()
	if err != nil || tpl == "" {
		return "unmatched"
	}
	return tpl
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// register adds a collector to reg, reusing an identical collector that is
// already registered under the same name
func register[T prometheus.Collector](reg prometheus.Registerer, collector T, name string) (T, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
