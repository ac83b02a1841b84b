package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	awsSqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type mockSQSClient struct {
	sent       []*awsSqs.SendMessageInput
	deleted    []*awsSqs.DeleteMessageInput
	receiveOut *awsSqs.ReceiveMessageOutput
	receiveErr error
	sendErr    error
}

func (m *mockSQSClient) SendMessage(_ context.Context, input *awsSqs.SendMessageInput, _ ...func(*awsSqs.Options)) (*awsSqs.SendMessageOutput, error) {
	m.sent = append(m.sent, input)
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	messageID := "msg-id-1"
	return &awsSqs.SendMessageOutput{MessageId: &messageID}, nil
}

func (m *mockSQSClient) ReceiveMessage(_ context.Context, _ *awsSqs.ReceiveMessageInput, _ ...func(*awsSqs.Options)) (*awsSqs.ReceiveMessageOutput, error) {
	if m.receiveErr != nil {
		return nil, m.receiveErr
	}
	if m.receiveOut != nil {
		return m.receiveOut, nil
	}
	return &awsSqs.ReceiveMessageOutput{}, nil
}

func (m *mockSQSClient) DeleteMessage(_ context.Context, input *awsSqs.DeleteMessageInput, _ ...func(*awsSqs.Options)) (*awsSqs.DeleteMessageOutput, error) {
	m.deleted = append(m.deleted, input)
	return &awsSqs.DeleteMessageOutput{}, nil
}

func testQueue(client sqsAPI) *Queue {
	return &Queue{
		log:      logger.NewDummy(),
		client:   client,
		queueURL: "some-queue-url",
		now:      time.Now,
	}
}

func TestPublishedMessageContainsTheData(t *testing.T) {
	mockSQS := &mockSQSClient{}
	sut := testQueue(mockSQS)

	msg := &domain.FileProcessingMessage{
		FileName: "ACME_P1_T7_LOT99_W3_PROG1_20240101120000.zip",
		FilePath: "incoming/ACME_P1_T7_LOT99_W3_PROG1_20240101120000.zip",
		FileInfo: domain.FileUploadInfo{
			CustomerCode: "ACME",
			Lot:          "LOT99",
			FileSize:     42,
		},
	}

	err := sut.Publish(context.Background(), msg)
	assert.NoError(t, err, "publishing should work")
	assert.Len(t, mockSQS.sent, 1, "exactly one message should be sent")
	assert.Equal(t, "some-queue-url", *mockSQS.sent[0].QueueUrl, "the queue url should match")

	var decoded domain.FileProcessingMessage
	err = json.Unmarshal([]byte(*mockSQS.sent[0].MessageBody), &decoded)
	assert.NoError(t, err, "the body should be valid JSON")
	assert.Equal(t, msg.FileName, decoded.FileName, "the body should carry the file name")
	assert.Equal(t, msg.FilePath, decoded.FilePath, "the body should carry the file path")
	assert.Equal(t, "ACME", decoded.FileInfo.CustomerCode, "the body should carry the file info")
	assert.Equal(t, int64(42), decoded.FileInfo.FileSize, "the body should carry the file size")
}

func TestPublishErrorIsPropagated(t *testing.T) {
	mockSQS := &mockSQSClient{sendErr: errors.New("sqs exploded")}
	sut := testQueue(mockSQS)

	err := sut.Publish(context.Background(), &domain.FileProcessingMessage{FileName: "x.zip"})
	assert.Error(t, err, "the send error should surface")
}

func TestReceiveOnEmptyQueue(t *testing.T) {
	sut := testQueue(&mockSQSClient{})

	delivery, err := sut.Receive(context.Background())
	assert.NoError(t, err, "an empty receive should not error")
	assert.Nil(t, delivery, "an empty receive should yield no delivery")
}

func TestReceiveDecodesTheMessage(t *testing.T) {
	original := domain.FileProcessingMessage{
		FileName: "ACME_P1_T7_LOT99_W3_PROG1_20240101120000.zip",
		FilePath: "incoming/ACME_P1_T7_LOT99_W3_PROG1_20240101120000.zip",
		FileInfo: domain.FileUploadInfo{CustomerCode: "ACME", Lot: "LOT99"},
	}
	body, err := json.Marshal(original)
	assert.NoError(t, err, "marshalling the fixture should work")

	bodyStr := string(body)
	receipt := "receipt-handle-1"
	mockSQS := &mockSQSClient{
		receiveOut: &awsSqs.ReceiveMessageOutput{
			Messages: []types.Message{{Body: &bodyStr, ReceiptHandle: &receipt}},
		},
	}

	frozenTime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sut := testQueue(mockSQS)
	sut.now = func() time.Time { return frozenTime }

	delivery, err := sut.Receive(context.Background())
	assert.NoError(t, err, "receiving should work")
	assert.Equal(t, original.FileName, delivery.Message.FileName, "the message file name should round-trip")
	assert.Equal(t, "ACME", delivery.Message.FileInfo.CustomerCode, "the file info should round-trip")
	assert.Equal(t, receipt, delivery.Receipt, "the receipt handle should be kept")
	assert.Equal(t, frozenTime, delivery.Message.ProcessedAt, "the receive time should be stamped on the message")
}

func TestReceiveErrorIsPropagated(t *testing.T) {
	sut := testQueue(&mockSQSClient{receiveErr: errors.New("sqs exploded")})

	_, err := sut.Receive(context.Background())
	assert.Error(t, err, "the receive error should surface")
}

func TestAckDeletesTheMessage(t *testing.T) {
	mockSQS := &mockSQSClient{}
	sut := testQueue(mockSQS)

	err := sut.Ack(context.Background(), &domain.Delivery{Receipt: "receipt-handle-1"})
	assert.NoError(t, err, "acking should work")
	assert.Len(t, mockSQS.deleted, 1, "exactly one delete should happen")
	assert.Equal(t, "receipt-handle-1", *mockSQS.deleted[0].ReceiptHandle, "the receipt handle should be used")
	assert.Equal(t, "some-queue-url", *mockSQS.deleted[0].QueueUrl, "the queue url should match")
}

func TestParseConfig(t *testing.T) {
	configYaml := `
url: sqs-queue-url-here
region: aws-sqs-region-here
access_key: "access sqs!"
secret_key: "secret sqs!"
wait_time_seconds: 20
`

	conf, err := ParseConfig([]byte(configYaml))
	assert.NoError(t, err, "parsing should work")
	assert.Equal(t, "sqs-queue-url-here", conf.URL, "url config doesn't match")
	assert.Equal(t, "aws-sqs-region-here", conf.Region, "region config doesn't match")
	assert.Equal(t, "access sqs!", conf.AccessKey, "access key config doesn't match")
	assert.Equal(t, "secret sqs!", conf.SecretKey, "secret key config doesn't match")
	assert.Equal(t, int32(20), conf.WaitTimeSeconds, "wait time config doesn't match")
}
