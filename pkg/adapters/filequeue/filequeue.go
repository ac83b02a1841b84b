package filequeue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lotstream/lotstream/pkg/adapters/filequeue/noopqueue"
	"github.com/lotstream/lotstream/pkg/adapters/filequeue/sqs"
	"github.com/lotstream/lotstream/pkg/config"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"
)

// Publisher is the producer half of the queue channel.
type Publisher interface {
	Publish(ctx context.Context, msg *domain.FileProcessingMessage) error
}

// Consumer is the worker half. Receive returns (nil, nil) when no message is
// available; it is meant to be called repeatedly as a poll. A delivery that is
// never acknowledged becomes eligible for redelivery.
type Consumer interface {
	Receive(ctx context.Context) (*domain.Delivery, error)
	Ack(ctx context.Context, delivery *domain.Delivery) error
}

type Queue interface {
	Publisher
	Consumer
}

type QueueWithMetadata interface {
	Queue
	Type() string
	Name() string
}

func New(
	l *slog.Logger, metricRegistry *prometheus.Registry, conf *config.QueueConfig,
) (QueueWithMetadata, error) {

	var queue QueueWithMetadata
	specificConf, err := yaml.Marshal(conf.Config)
	if err != nil {
		return nil, fmt.Errorf("error parsing queue config: %w", err)
	}

	switch conf.Type {
	case noopqueue.TYPE:
		queue = noopqueue.New(l)
	case sqs.TYPE:
		c, err := sqs.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing SQS-specific config: %w", err)
		}

		queue, err = sqs.New(l, c)
		if err != nil {
			return nil, fmt.Errorf("error creating SQS queue: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid queue type %s", conf.Type)
	}

	return NewQueueWithMetrics(queue, metricRegistry), nil
}
