package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	awsSqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
	"gopkg.in/yaml.v2"
)

const TYPE string = "sqs"
const startupTimeout = 20 * time.Second

type sqsAPI interface {
	SendMessage(context.Context, *awsSqs.SendMessageInput, ...func(*awsSqs.Options)) (*awsSqs.SendMessageOutput, error)
	ReceiveMessage(context.Context, *awsSqs.ReceiveMessageInput, ...func(*awsSqs.Options)) (*awsSqs.ReceiveMessageOutput, error)
	DeleteMessage(context.Context, *awsSqs.DeleteMessageInput, ...func(*awsSqs.Options)) (*awsSqs.DeleteMessageOutput, error)
}

type Config struct {
	URL             string `yaml:"url"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKey       string `yaml:"access_key"`
	SecretKey       string `yaml:"secret_key"`
	WaitTimeSeconds int32  `yaml:"wait_time_seconds"`
}

type Queue struct {
	log             *slog.Logger
	client          sqsAPI
	queueURL        string
	waitTimeSeconds int32
	now             func() time.Time
}

func New(l *slog.Logger, c *Config) (*Queue, error) {
	ctx, cancelFunc := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelFunc()

	sdkConfig, err := awsConfig.LoadDefaultConfig(
		ctx, awsConfig.WithRegion(c.Region), awsConfig.WithBaseEndpoint(c.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't load default AWS configuration: %w", err)
	}

	if c.URL == "" {
		return nil, fmt.Errorf("invalid url for SQS %s", c.URL)
	}

	return &Queue{
		log:             l.With(logger.QueueTypeKey, TYPE),
		client:          awsSqs.NewFromConfig(sdkConfig),
		queueURL:        c.URL,
		waitTimeSeconds: c.WaitTimeSeconds,
		now:             time.Now,
	}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing SQS config: %w", err)
	}

	return conf, nil
}

func (q *Queue) Publish(ctx context.Context, msg *domain.FileProcessingMessage) error {
	bodyAsBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error serializing message for %s: %w", msg.FileName, err)
	}

	body := string(bodyAsBytes)

	messageInput := &awsSqs.SendMessageInput{
		MessageBody: &body,
		QueueUrl:    &q.queueURL,
	}

	q.log.Debug("sending SQS message", "queue_url", q.queueURL, "file_name", msg.FileName)
	output, err := q.client.SendMessage(ctx, messageInput)
	if err != nil {
		return fmt.Errorf("error publishing to SQS: %w", err)
	}

	q.log.Debug("published message on SQS", "message_id", output.MessageId)
	return nil
}

func (q *Queue) Receive(ctx context.Context) (*domain.Delivery, error) {
	output, err := q.client.ReceiveMessage(ctx, &awsSqs.ReceiveMessageInput{
		QueueUrl:            &q.queueURL,
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     q.waitTimeSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("error receiving from SQS: %w", err)
	}

	if len(output.Messages) == 0 {
		return nil, nil
	}

	received := output.Messages[0]

	var msg domain.FileProcessingMessage
	err = json.Unmarshal([]byte(*received.Body), &msg)
	if err != nil {
		return nil, fmt.Errorf("error deserializing SQS message body: %w", err)
	}

	msg.ProcessedAt = q.now().UTC()

	return &domain.Delivery{
		Message: msg,
		Receipt: *received.ReceiptHandle,
	}, nil
}

func (q *Queue) Ack(ctx context.Context, delivery *domain.Delivery) error {
	_, err := q.client.DeleteMessage(ctx, &awsSqs.DeleteMessageInput{
		QueueUrl:      &q.queueURL,
		ReceiptHandle: &delivery.Receipt,
	})
	if err != nil {
		return fmt.Errorf("error acknowledging SQS message: %w", err)
	}

	return nil
}

func (q *Queue) Type() string {
	return TYPE
}

func (q *Queue) Name() string {
	return q.queueURL
}
