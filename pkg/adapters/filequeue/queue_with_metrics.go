package filequeue

import (
	"context"
	"sync"
	"time"

	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	QueueTypeLabel string = "queue_type"
	NameLabel      string = "name"
	OperationLabel string = "operation"
)

var (
	ensureMetricRegisteringOnce sync.Once
	latencyHistogram            *prometheus.HistogramVec
	operationCounter            *prometheus.CounterVec
	operationErrorCounter       *prometheus.CounterVec
)

type queueWithMetrics struct {
	wrappedQueue Queue
	wrappedType  string
	wrappedName  string
}

func NewQueueWithMetrics(queue QueueWithMetadata, metricRegistry *prometheus.Registry) QueueWithMetadata {
	ensureMetricRegisteringOnce.Do(func() {
		latencyHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "operation_latency_seconds",
				Subsystem: "queue",
				Namespace: "lotstream",
				Help:      "the time it took to finish an operation on the queue channel (only successful cases)",
				Buckets:   []float64{0.25, 0.5, 1.0, 1.5, 2.0, 5.0, 10.0, 30.0, 45.0, 60.0},
			},
			[]string{QueueTypeLabel, NameLabel, OperationLabel},
		)

		operationCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "operations_total",
				Namespace: "lotstream",
				Subsystem: "queue",
				Help:      "count of operations on the queue channel that finished (successful or not)",
			},
			[]string{QueueTypeLabel, NameLabel, OperationLabel},
		)

		operationErrorCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "operation_errors_total",
				Namespace: "lotstream",
				Subsystem: "queue",
				Help:      "count of failed operations on the queue channel",
			},
			[]string{QueueTypeLabel, NameLabel, OperationLabel},
		)

		metricRegistry.MustRegister(latencyHistogram, operationCounter, operationErrorCounter)
	})

	return &queueWithMetrics{
		wrappedQueue: queue,
		wrappedType:  queue.Type(),
		wrappedName:  queue.Name(),
	}
}

func (w *queueWithMetrics) Publish(ctx context.Context, msg *domain.FileProcessingMessage) error {
	return w.observe("publish", func() error {
		return w.wrappedQueue.Publish(ctx, msg)
	})
}

func (w *queueWithMetrics) Receive(ctx context.Context) (*domain.Delivery, error) {
	var delivery *domain.Delivery
	err := w.observe("receive", func() error {
		var innerErr error
		delivery, innerErr = w.wrappedQueue.Receive(ctx)
		return innerErr
	})
	return delivery, err
}

func (w *queueWithMetrics) Ack(ctx context.Context, delivery *domain.Delivery) error {
	return w.observe("ack", func() error {
		return w.wrappedQueue.Ack(ctx, delivery)
	})
}

func (w *queueWithMetrics) observe(operation string, fn func() error) error {
	operationCounter.WithLabelValues(w.wrappedType, w.wrappedName, operation).Inc()
	startTime := time.Now()

	err := fn()
	elapsedTime := time.Since(startTime).Seconds()

	if err != nil {
		operationErrorCounter.WithLabelValues(w.wrappedType, w.wrappedName, operation).Inc()
	} else {
		latencyHistogram.WithLabelValues(w.wrappedType, w.wrappedName, operation).Observe(elapsedTime)
	}

	return err
}

func (w *queueWithMetrics) Type() string {
	return w.wrappedType
}

func (w *queueWithMetrics) Name() string {
	return w.wrappedName
}
