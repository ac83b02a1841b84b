package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/filename"
	"github.com/lotstream/lotstream/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type mockStore struct {
	saved      map[string][]byte
	saveErr    error
	exists     bool
	existsErr  error
	existsArgs []string
}

func newMockStore() *mockStore {
	return &mockStore{saved: make(map[string][]byte)}
}

func (m *mockStore) Save(_ context.Context, fileName string, data []byte) (*domain.StoredArchive, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved[fileName] = data
	return &domain.StoredArchive{
		Path:        "incoming/" + fileName,
		StoreName:   "store-1",
		SizeInBytes: int64(len(data)),
	}, nil
}

func (m *mockStore) Exists(_ context.Context, path string) (bool, error) {
	m.existsArgs = append(m.existsArgs, path)
	return m.exists, m.existsErr
}

type mockQueue struct {
	published  []*domain.FileProcessingMessage
	publishErr error
}

func (m *mockQueue) Publish(_ context.Context, msg *domain.FileProcessingMessage) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, msg)
	return nil
}

const validName = "ACME_P1_T7_LOT99_W3_PROG1_20240101120000.zip"

func TestIngestSavesAndPublishes(t *testing.T) {
	store := newMockStore()
	queue := &mockQueue{}
	sut := New(logger.NewDummy(), store, queue)

	frozenTime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sut.now = func() time.Time { return frozenTime }

	data := []byte("archive bytes")
	info, err := sut.Ingest(context.Background(), validName, data)

	assert.NoError(t, err, "ingesting should work")
	assert.Equal(t, data, store.saved[validName], "the archive should be saved under its name")
	assert.Len(t, queue.published, 1, "exactly one message should be published")

	msg := queue.published[0]
	assert.Equal(t, validName, msg.FileName, "the message should carry the file name")
	assert.Equal(t, "incoming/"+validName, msg.FilePath, "the message should carry the stored path")
	assert.Equal(t, "ACME", msg.FileInfo.CustomerCode, "the message should carry the decoded info")
	assert.Equal(t, int64(len(data)), msg.FileInfo.FileSize, "the message should carry the stored size")
	assert.Equal(t, frozenTime, msg.FileInfo.UploadedAt, "the message should carry the upload time")

	assert.Equal(t, "incoming/"+validName, info.ProcessedFileName, "the returned info should carry the stored path")
	assert.Equal(t, int64(len(data)), info.FileSize, "the returned info should carry the stored size")
}

func TestIngestRejectsMalformedNamesBeforeSideEffects(t *testing.T) {
	store := newMockStore()
	queue := &mockQueue{}
	sut := New(logger.NewDummy(), store, queue)

	_, err := sut.Ingest(context.Background(), "not-a-valid-name.zip", []byte("x"))

	assert.Error(t, err, "a malformed name should be rejected")
	var decodeErr *filename.DecodeError
	assert.True(t, errors.As(err, &decodeErr), "the error should be a decode error")
	assert.Empty(t, store.saved, "nothing should be saved")
	assert.Empty(t, queue.published, "nothing should be published")
}

func TestIngestStopsWhenSaveFails(t *testing.T) {
	store := newMockStore()
	store.saveErr = errors.New("store exploded")
	queue := &mockQueue{}
	sut := New(logger.NewDummy(), store, queue)

	_, err := sut.Ingest(context.Background(), validName, []byte("x"))

	assert.Error(t, err, "the save error should surface")
	assert.Empty(t, queue.published, "nothing should be published after a failed save")
}

func TestIngestPropagatesPublishErrors(t *testing.T) {
	store := newMockStore()
	queue := &mockQueue{publishErr: errors.New("queue exploded")}
	sut := New(logger.NewDummy(), store, queue)

	_, err := sut.Ingest(context.Background(), validName, []byte("x"))

	assert.Error(t, err, "the publish error should surface")
	assert.Equal(t, []byte("x"), store.saved[validName],
		"the archive stays saved, the worker side never saw a message for it")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	store := newMockStore()
	store.saveErr = errors.New("store exploded")
	sut := New(logger.NewDummy(), store, &mockQueue{})

	for i := 0; i < 5; i++ {
		_, err := sut.Ingest(context.Background(), validName, []byte("x"))
		assert.Error(t, err, "each failing ingest should error")
	}

	store.saveErr = nil
	_, err := sut.Ingest(context.Background(), validName, []byte("x"))
	assert.Error(t, err, "the open breaker should reject the request without trying")
	assert.Empty(t, store.saved, "the open breaker should not touch the store")
}

func TestStoredAt(t *testing.T) {
	store := newMockStore()
	store.exists = true
	sut := New(logger.NewDummy(), store, &mockQueue{})

	found, err := sut.StoredAt(context.Background(), "incoming/archive.zip")
	assert.NoError(t, err, "the existence check should work")
	assert.True(t, found, "the store's answer should be passed through")
	assert.Equal(t, []string{"incoming/archive.zip"}, store.existsArgs, "the path should be passed through")
}
