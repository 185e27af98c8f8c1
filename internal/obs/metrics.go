package obs

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
)

// JobName is the Pushgateway job label for sync runs.
const JobName = "flam_stock_sync"

// Metrics holds the collectors of one process in a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Items           *prometheus.CounterVec
	SupplierRecords prometheus.Gauge
	RunDuration     prometheus.Gauge
	LastSuccess     prometheus.Gauge
	RunFailures     prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_sync_items_total",
			Help: "SKUs processed by outcome.",
		}, []string{"outcome"}),
		SupplierRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_sync_supplier_records",
			Help: "Records in the last supplier listing.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_sync_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last run whose supplier fetch succeeded.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_sync_run_failures_total",
			Help: "Runs aborted before reconciliation.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simulator_http_requests_total",
			Help: "Simulator requests by route and status.",
		}, []string{"route", "status"}),
	}
	m.Registry.MustRegister(m.Items, m.SupplierRecords, m.RunDuration, m.LastSuccess, m.RunFailures, m.HTTPRequests)
	for _, o := range model.Outcomes {
		m.Items.WithLabelValues(string(o))
	}
	return m
}

// ObserveRun records a completed run.
func (m *Metrics) ObserveRun(s model.Summary) {
	for o, n := range s.Counts {
		m.Items.WithLabelValues(string(o)).Add(float64(n))
	}
	m.SupplierRecords.Set(float64(len(s.Results)))
	m.RunDuration.Set(s.FinishedAt.Sub(s.StartedAt).Seconds())
	m.LastSuccess.Set(float64(s.FinishedAt.Unix()))
}

// ObserveFailure records a run that never reached reconciliation.
func (m *Metrics) ObserveFailure() { m.RunFailures.Inc() }

// ObserveHTTP counts one simulator request.
func (m *Metrics) ObserveHTTP(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Push sends the registry to a Pushgateway. A blank url is a no-op.
func (m *Metrics) Push(ctx context.Context, url string, client *http.Client) error {
	if url == "" {
		return nil
	}
	p := push.New(url, JobName).Gatherer(m.Registry)
	if client != nil {
		p = p.Client(client)
	}
	return p.PushContext(ctx)
}
