package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/lotstream/lotstream/pkg/config"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// Queue is the consumer half of the queue channel, as seen by the worker.
type Queue interface {
	Receive(ctx context.Context) (*domain.Delivery, error)
	Ack(ctx context.Context, delivery *domain.Delivery) error
}

// Worker polls the queue and reconciles one message end-to-end before the
// next receive. Multiple worker processes may run against the same durable
// queue; the queue's delivery semantics arbitrate that concurrency.
type Worker struct {
	l            *slog.Logger
	queue        Queue
	reconciler   *Reconciler
	pollInterval time.Duration
	errorBackoff time.Duration
}

func NewWorker(
	l *slog.Logger, queue Queue, reconciler *Reconciler,
	conf config.WorkerConfig, metricRegistry *prometheus.Registry,
) *Worker {
	initializeMetrics(metricRegistry)

	return &Worker{
		l:            l.With(logger.ComponentKey, "worker"),
		queue:        queue,
		reconciler:   reconciler,
		pollInterval: conf.PollInterval(),
		errorBackoff: conf.ErrorBackoff(),
	}
}

// Run should be called on a goroutine. It returns when ctx is cancelled,
// always after the in-flight message (if any) got its terminal status.
func (w *Worker) Run(ctx context.Context) {
	w.l.Info("worker started")

	for {
		if ctx.Err() != nil {
			w.l.Info("worker stopped")
			return
		}

		delivery, err := w.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.l.Info("worker stopped")
				return
			}
			w.l.Error("error receiving from queue", "error", err)
			w.sleep(ctx, w.errorBackoff)
			continue
		}

		if delivery == nil {
			w.sleep(ctx, w.pollInterval)
			continue
		}

		w.work(ctx, delivery)
	}
}

func (w *Worker) work(ctx context.Context, delivery *domain.Delivery) {
	w.l.Info("processing archive", "file_name", delivery.Message.FileName)

	terminal := w.reconciler.Process(ctx, &delivery.Message)
	incProcessedMessages(terminal)

	// Only a completed message is acknowledged. Failed and errored messages
	// stay on the queue and come back through redelivery.
	if terminal != domain.StatusCompleted {
		w.l.Warn("archive left unacknowledged for redelivery",
			"file_name", delivery.Message.FileName, "result", string(terminal))
		return
	}

	err := w.queue.Ack(ctx, delivery)
	if err != nil {
		w.l.Error("failed to acknowledge message",
			"file_name", delivery.Message.FileName, "error", err)
	}
}

func (w *Worker) sleep(ctx context.Context, duration time.Duration) {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
