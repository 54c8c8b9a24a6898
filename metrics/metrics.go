/*
Package metrics exports calculation metrics to Prometheus.

METRICS:
  commission_runs_total{status}            runs by outcome (ok, error)
  commission_run_duration_seconds          wall time of a full run
  commission_diagnostics_total{code}       row-level diagnostics by code
  commission_sales_rows_total              sales rows fed into runs
  commission_http_requests_total{method,route,status}

Each Metrics owns its registry so tests and multiple servers in one
process do not collide on the default registerer.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/commission-engine/commission"
)

const namespace = "commission"

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	diagnostics    *prometheus.CounterVec
	salesRowsTotal prometheus.Counter
	requestsTotal  *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Commission calculation runs by outcome.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full calculation run.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Non-fatal diagnostics recorded during runs, by code.",
		}, []string{"code"}),
		salesRowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_rows_total",
			Help:      "Sales rows fed into calculation runs.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.diagnostics,
		m.salesRowsTotal,
		m.requestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records one run. res may be nil when the run failed.
func (m *Metrics) ObserveRun(elapsed time.Duration, salesRows int, res *commission.Results, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.salesRowsTotal.Add(float64(salesRows))
	if res == nil {
		return
	}
	for _, d := range res.Diagnostics {
		m.diagnostics.WithLabelValues(string(d.Code)).Inc()
	}
}

// ObserveRequest counts one HTTP request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
