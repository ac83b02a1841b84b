package s3

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type mockS3Client struct {
	copies    []*awsS3.CopyObjectInput
	deletes   []*awsS3.DeleteObjectInput
	heads     []*awsS3.HeadObjectInput
	headErr   error
	copyErr   error
	deleteErr error
	callOrder []string
}

func (m *mockS3Client) CopyObject(_ context.Context, input *awsS3.CopyObjectInput, _ ...func(*awsS3.Options)) (*awsS3.CopyObjectOutput, error) {
	m.copies = append(m.copies, input)
	m.callOrder = append(m.callOrder, "copy")
	if m.copyErr != nil {
		return nil, m.copyErr
	}
	return &awsS3.CopyObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *awsS3.DeleteObjectInput, _ ...func(*awsS3.Options)) (*awsS3.DeleteObjectOutput, error) {
	m.deletes = append(m.deletes, input)
	m.callOrder = append(m.callOrder, "delete")
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	return &awsS3.DeleteObjectOutput{}, nil
}

func (m *mockS3Client) HeadObject(_ context.Context, input *awsS3.HeadObjectInput, _ ...func(*awsS3.Options)) (*awsS3.HeadObjectOutput, error) {
	m.heads = append(m.heads, input)
	m.callOrder = append(m.callOrder, "head")
	if m.headErr != nil {
		return nil, m.headErr
	}
	return &awsS3.HeadObjectOutput{}, nil
}

type mockUploader struct {
	uploads   []*awsS3.PutObjectInput
	bodies    [][]byte
	uploadErr error
}

func (m *mockUploader) Upload(_ context.Context, input *awsS3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	m.uploads = append(m.uploads, input)
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.bodies = append(m.bodies, body)
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return &manager.UploadOutput{}, nil
}

func testBucket(client s3API, uploader uploaderAPI, prefix string) *Bucket {
	return &Bucket{
		name:        "archives-bucket",
		region:      "us-east-1",
		fixedPrefix: prefix,
		client:      client,
		uploader:    uploader,
		log:         logger.NewDummy(),
	}
}

func TestSaveUploadsUnderThePrefix(t *testing.T) {
	uploader := &mockUploader{}
	sut := testBucket(&mockS3Client{}, uploader, "incoming")

	data := []byte("archive bytes")
	stored, err := sut.Save(context.Background(), "archive.zip", data)

	assert.NoError(t, err, "saving should work")
	assert.Len(t, uploader.uploads, 1, "exactly one upload should happen")
	assert.Equal(t, "incoming/archive.zip", *uploader.uploads[0].Key, "the key should carry the prefix")
	assert.Equal(t, "archives-bucket", *uploader.uploads[0].Bucket, "the bucket should match the config")
	assert.Equal(t, data, uploader.bodies[0], "the uploaded body should match the data")
	assert.Equal(t, "incoming/archive.zip", stored.Path, "stored path should be the full key")
	assert.Equal(t, "archives-bucket", stored.StoreName, "store name should be the bucket name")
	assert.Equal(t, int64(len(data)), stored.SizeInBytes, "stored size should match the data length")
}

func TestSaveWithoutPrefix(t *testing.T) {
	uploader := &mockUploader{}
	sut := testBucket(&mockS3Client{}, uploader, "")

	stored, err := sut.Save(context.Background(), "archive.zip", []byte("x"))

	assert.NoError(t, err, "saving should work")
	assert.Equal(t, "archive.zip", *uploader.uploads[0].Key, "the key should not have a leading slash")
	assert.Equal(t, "archive.zip", stored.Path, "stored path should be the bare key")
}

func TestSaveErrorIsPropagated(t *testing.T) {
	uploader := &mockUploader{uploadErr: errors.New("upload exploded")}
	sut := testBucket(&mockS3Client{}, uploader, "")

	_, err := sut.Save(context.Background(), "archive.zip", []byte("x"))
	assert.Error(t, err, "the upload error should surface")
}

func TestMoveCopiesThenDeletes(t *testing.T) {
	client := &mockS3Client{}
	sut := testBucket(client, &mockUploader{}, "")

	err := sut.Move(context.Background(), "incoming/archive.zip", "incoming/_archive.zip")

	assert.NoError(t, err, "moving should work")
	assert.Equal(t, []string{"head", "copy", "delete"}, client.callOrder,
		"move should check, copy and only then delete")
	assert.Equal(t, url.PathEscape("archives-bucket/incoming/archive.zip"), *client.copies[0].CopySource,
		"copy source should be the escaped bucket/key pair")
	assert.Equal(t, "incoming/_archive.zip", *client.copies[0].Key, "copy target should be the new key")
	assert.Equal(t, "incoming/archive.zip", *client.deletes[0].Key, "the original key should be deleted")
}

func TestMoveOfMissingObject(t *testing.T) {
	client := &mockS3Client{headErr: &types.NotFound{}}
	sut := testBucket(client, &mockUploader{}, "")

	err := sut.Move(context.Background(), "ghost.zip", "_ghost.zip")

	assert.Error(t, err, "moving a missing object should fail")
	assert.True(t, errors.Is(err, domain.ErrArchiveNotFound), "the error should wrap the not-found sentinel")
	assert.Empty(t, client.copies, "no copy should be attempted")
	assert.Empty(t, client.deletes, "no delete should be attempted")
}

func TestMoveDoesNotDeleteWhenCopyFails(t *testing.T) {
	client := &mockS3Client{copyErr: errors.New("copy exploded")}
	sut := testBucket(client, &mockUploader{}, "")

	err := sut.Move(context.Background(), "archive.zip", "_archive.zip")

	assert.Error(t, err, "the copy error should surface")
	assert.Empty(t, client.deletes, "the original must survive a failed copy")
}

func TestExistsUsesThePrefix(t *testing.T) {
	client := &mockS3Client{}
	sut := testBucket(client, &mockUploader{}, "incoming")

	found, err := sut.Exists(context.Background(), "archive.zip")

	assert.NoError(t, err, "checking existence should work")
	assert.True(t, found, "a head success should mean the object exists")
	assert.Equal(t, "incoming/archive.zip", *client.heads[0].Key, "the head key should carry the prefix")
}

func TestExistsOnMissingObject(t *testing.T) {
	client := &mockS3Client{headErr: &types.NotFound{}}
	sut := testBucket(client, &mockUploader{}, "")

	found, err := sut.Exists(context.Background(), "ghost.zip")

	assert.NoError(t, err, "a not-found head should not be an error")
	assert.False(t, found, "a missing object should not exist")
}

func TestParseConfig(t *testing.T) {
	configYaml := `
bucket: archives-bucket
region: us-east-1
endpoint: http://localhost:9000
prefix: incoming
force_path_style: true
timeout_milliseconds: 300
`

	conf, err := ParseConfig([]byte(configYaml))
	assert.NoError(t, err, "parsing should work")
	assert.Equal(t, "archives-bucket", conf.Bucket, "bucket config doesn't match")
	assert.Equal(t, "us-east-1", conf.Region, "region config doesn't match")
	assert.Equal(t, "http://localhost:9000", conf.Endpoint, "endpoint config doesn't match")
	assert.Equal(t, "incoming", conf.Prefix, "prefix config doesn't match")
	assert.True(t, conf.ForcePathStyle, "force_path_style config doesn't match")
	assert.Equal(t, int64(300), conf.TimeoutInMillis, "timeout config doesn't match")
}
