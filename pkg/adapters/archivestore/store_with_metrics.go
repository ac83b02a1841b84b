package archivestore

import (
	"context"
	"sync"
	"time"

	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StorageTypeLabel string = "storage_type"
	NameLabel        string = "name"
	OperationLabel   string = "operation"
)

var (
	ensureMetricRegisteringOnce sync.Once
	latencyHistogram            *prometheus.HistogramVec
	operationCounter            *prometheus.CounterVec
	operationErrorCounter       *prometheus.CounterVec
	savedBytesCounter           *prometheus.CounterVec
)

type storeWithMetrics struct {
	wrappedStore Store
	wrappedType  string
	wrappedName  string
}

func NewStoreWithMetrics(store StoreWithMetadata, metricRegistry *prometheus.Registry) StoreWithMetadata {
	ensureMetricRegisteringOnce.Do(func() {
		latencyHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "operation_latency_seconds",
				Subsystem: "archive_store",
				Namespace: "lotstream",
				Help:      "the time it took to finish an operation on the archive store (only successful cases)",
				Buckets:   []float64{0.25, 0.5, 1.0, 1.5, 2.0, 5.0, 10.0, 30.0, 45.0, 60.0},
			},
			[]string{StorageTypeLabel, NameLabel, OperationLabel},
		)

		operationCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "operations_total",
				Namespace: "lotstream",
				Subsystem: "archive_store",
				Help:      "count of operations on the archive store that finished (successful or not)",
			},
			[]string{StorageTypeLabel, NameLabel, OperationLabel},
		)

		operationErrorCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "operation_errors_total",
				Namespace: "lotstream",
				Subsystem: "archive_store",
				Help:      "count of failed operations on the archive store",
			},
			[]string{StorageTypeLabel, NameLabel, OperationLabel},
		)

		savedBytesCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "saved_bytes_total",
				Namespace: "lotstream",
				Subsystem: "archive_store",
				Help:      "how many archive bytes have been saved into the store",
			},
			[]string{StorageTypeLabel, NameLabel},
		)

		metricRegistry.MustRegister(
			latencyHistogram, operationCounter, operationErrorCounter, savedBytesCounter,
		)
	})

	return &storeWithMetrics{
		wrappedStore: store,
		wrappedType:  store.Type(),
		wrappedName:  store.Name(),
	}
}

func (w *storeWithMetrics) Save(ctx context.Context, fileName string, data []byte) (*domain.StoredArchive, error) {
	var saved *domain.StoredArchive
	err := w.observe("save", func() error {
		var innerErr error
		saved, innerErr = w.wrappedStore.Save(ctx, fileName, data)
		return innerErr
	})
	if err == nil {
		savedBytesCounter.WithLabelValues(w.wrappedType, w.wrappedName).
			Add(float64(saved.SizeInBytes))
	}
	return saved, err
}

func (w *storeWithMetrics) Move(ctx context.Context, fromPath string, toPath string) error {
	return w.observe("move", func() error {
		return w.wrappedStore.Move(ctx, fromPath, toPath)
	})
}

func (w *storeWithMetrics) Exists(ctx context.Context, fileName string) (bool, error) {
	var exists bool
	err := w.observe("exists", func() error {
		var innerErr error
		exists, innerErr = w.wrappedStore.Exists(ctx, fileName)
		return innerErr
	})
	return exists, err
}

func (w *storeWithMetrics) observe(operation string, fn func() error) error {
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

func (w *storeWithMetrics) Type() string {
	return w.wrappedType
}

func (w *storeWithMetrics) Name() string {
	return w.wrappedName
}
