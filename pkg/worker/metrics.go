package worker

import (
	"sync"

	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const resultLabel = "result"

var (
	ensureMetricRegisteringOnce sync.Once
	processedCounter            *prometheus.CounterVec
	workInFlightGauge           prometheus.Gauge
)

func initializeMetrics(metricRegistry *prometheus.Registry) {
	ensureMetricRegisteringOnce.Do(func() {
		processedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "messages_processed_total",
				Subsystem: "worker",
				Namespace: "lotstream",
				Help:      "count of fully processed messages, partitioned by terminal result",
			},
			[]string{resultLabel},
		)

		workInFlightGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:      "work_in_flight",
				Subsystem: "worker",
				Namespace: "lotstream",
				Help:      "how many messages are currently being reconciled",
			},
		)

		metricRegistry.MustRegister(processedCounter, workInFlightGauge)
	})
}

func incProcessedMessages(result domain.Status) {
	processedCounter.WithLabelValues(string(result)).Inc()
}

func incWorkInFlight() {
	workInFlightGauge.Inc()
}

func decWorkInFlight() {
	workInFlightGauge.Dec()
}
