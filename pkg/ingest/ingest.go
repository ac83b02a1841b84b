// Package ingest is the producer side of the pipeline: it decodes an archive
// filename, persists the raw archive and publishes the processing message.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/filename"
	"github.com/lotstream/lotstream/pkg/logger"
	"github.com/sony/gobreaker"
)

type ArchiveStore interface {
	Save(ctx context.Context, fileName string, data []byte) (*domain.StoredArchive, error)
	Exists(ctx context.Context, path string) (bool, error)
}

type QueuePublisher interface {
	Publish(ctx context.Context, msg *domain.FileProcessingMessage) error
}

type Ingestor struct {
	log     *slog.Logger
	store   ArchiveStore
	queue   QueuePublisher
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

func New(l *slog.Logger, store ArchiveStore, queue QueuePublisher) *Ingestor {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ingest",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Ingestor{
		log:     l.With(logger.ComponentKey, "ingest"),
		store:   store,
		queue:   queue,
		breaker: breaker,
		now:     time.Now,
	}
}

// Ingest decodes fileName, saves the archive and publishes the processing
// message. Decoding happens before any side effect: a malformed name is
// rejected without touching the store or the queue. The store+publish pair is
// guarded by a circuit breaker so a dead backend fails requests fast instead
// of piling them up.
func (ing *Ingestor) Ingest(ctx context.Context, fileName string, data []byte) (*domain.FileUploadInfo, error) {
	info, err := filename.Decode(fileName)
	if err != nil {
		return nil, err
	}

	result, err := ing.breaker.Execute(func() (interface{}, error) {
		saved, err := ing.store.Save(ctx, fileName, data)
		if err != nil {
			return nil, err
		}

		info.ProcessedFileName = saved.Path
		info.FileSize = saved.SizeInBytes
		info.UploadedAt = ing.now().UTC()

		msg := &domain.FileProcessingMessage{
			FileName: fileName,
			FilePath: saved.Path,
			FileInfo: info,
		}

		err = ing.queue.Publish(ctx, msg)
		if err != nil {
			return nil, err
		}

		return &info, nil
	})
	if err != nil {
		ing.log.Error("failed to ingest archive", "file_name", fileName, "error", err)
		return nil, err
	}

	ing.log.Info("archive ingested", "file_name", fileName, "size_bytes", info.FileSize)
	return result.(*domain.FileUploadInfo), nil
}

// StoredAt reports whether an archive is present at the given store path.
func (ing *Ingestor) StoredAt(ctx context.Context, path string) (bool, error) {
	return ing.store.Exists(ctx, path)
}
