package metrics

import (
	"net/http"
	"time"

	"propertydeals-backend/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "propertydeals"

var (
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coordinator_operations_total",
		Help:      "Coordinator operations by outcome class.",
	}, []string{"operation", "outcome"})

	ledgerCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_call_duration_seconds",
		Help:      "Latency of ledger client calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "outcome"})

	registrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registry_properties",
		Help:      "Properties held in the registry cache.",
	})

	rebuilds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "registry_rebuild_duration_seconds",
		Help:      "Duration of registry rebuilds.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"mode", "outcome"})
)

// ObserveOperation counts one coordinator operation.
func ObserveOperation(op string, err error) {
	operations.WithLabelValues(op, domain.Class(err)).Inc()
}

// ObserveLedgerCall records the latency of one ledger call.
func ObserveLedgerCall(method string, started time.Time, err error) {
	ledgerCalls.WithLabelValues(method, domain.Class(err)).Observe(time.Since(started).Seconds())
}

// ObserveRebuild records a registry rebuild. mode is "full" or "incremental".
func ObserveRebuild(mode string, started time.Time, err error) {
	rebuilds.WithLabelValues(mode, domain.Class(err)).Observe(time.Since(started).Seconds())
}

func SetRegistrySize(n int) {
	registrySize.Set(float64(n))
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
