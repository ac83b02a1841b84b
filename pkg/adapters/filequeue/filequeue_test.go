package filequeue

import (
	"context"
	"testing"

	"github.com/lotstream/lotstream/pkg/config"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestFactoryCreatesNoopQueue(t *testing.T) {
	conf := &config.QueueConfig{Type: "noop"}

	queue, err := New(logger.NewDummy(), prometheus.NewRegistry(), conf)
	assert.NoError(t, err, "creating a no-op queue should work")
	assert.Equal(t, "noop", queue.Type(), "the queue should report the configured type")

	delivery, err := queue.Receive(context.Background())
	assert.NoError(t, err, "the wrapped queue should answer through the metrics decorator")
	assert.Nil(t, delivery, "the no-op queue should be empty")

	err = queue.Publish(context.Background(), &domain.FileProcessingMessage{FileName: "x.zip"})
	assert.NoError(t, err, "publishing through the decorator should work")
}

func TestFactoryRejectsUnknownTypes(t *testing.T) {
	conf := &config.QueueConfig{Type: "rabbitmq"}

	_, err := New(logger.NewDummy(), prometheus.NewRegistry(), conf)
	assert.Error(t, err, "an unknown queue type should be rejected")
}
