package noopqueue

import (
	"context"
	"log/slog"

	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
)

const TYPE = "noop"
const NAME = "noop"

// NoopQueue is the backend used when no durable queue is configured. It
// accepts and discards published messages, and its receive side is always
// empty.
type NoopQueue struct {
	log *slog.Logger
}

func New(l *slog.Logger) *NoopQueue {
	return &NoopQueue{
		log: l.With(logger.QueueTypeKey, TYPE),
	}
}

func (noop *NoopQueue) Publish(_ context.Context, msg *domain.FileProcessingMessage) error {
	noop.log.Debug("publish called on no-op queue", "file_name", msg.FileName)
	return nil
}

func (noop *NoopQueue) Receive(_ context.Context) (*domain.Delivery, error) {
	return nil, nil
}

func (noop *NoopQueue) Ack(_ context.Context, _ *domain.Delivery) error {
	return nil
}

func (noop *NoopQueue) Type() string {
	return TYPE
}

func (noop *NoopQueue) Name() string {
	return NAME
}
