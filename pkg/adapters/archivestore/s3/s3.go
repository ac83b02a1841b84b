package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
	"gopkg.in/yaml.v2"
)

const TYPE string = "s3"
const startupTimeout = 20 * time.Second

type s3API interface {
	CopyObject(context.Context, *awsS3.CopyObjectInput, ...func(*awsS3.Options)) (*awsS3.CopyObjectOutput, error)
	DeleteObject(context.Context, *awsS3.DeleteObjectInput, ...func(*awsS3.Options)) (*awsS3.DeleteObjectOutput, error)
	HeadObject(context.Context, *awsS3.HeadObjectInput, ...func(*awsS3.Options)) (*awsS3.HeadObjectOutput, error)
}

type uploaderAPI interface {
	Upload(context.Context, *awsS3.PutObjectInput, ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Config struct {
	TimeoutInMillis int64  `yaml:"timeout_milliseconds"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKey       string `yaml:"access_key"`
	SecretKey       string `yaml:"secret_key"`
	Prefix          string `yaml:"prefix"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type Bucket struct {
	name            string
	region          string
	fixedPrefix     string
	timeoutInMillis int64
	client          s3API
	uploader        uploaderAPI
	log             *slog.Logger
}

func New(l *slog.Logger, c *Config) (*Bucket, error) {
	ctx, cancelFunc := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelFunc()

	sdkConfig, err := awsConfig.LoadDefaultConfig(
		ctx, awsConfig.WithRegion(c.Region), awsConfig.WithBaseEndpoint(c.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't load default AWS configuration: %w", err)
	}

	client := awsS3.NewFromConfig(sdkConfig, func(o *awsS3.Options) {
		o.UsePathStyle = c.ForcePathStyle
	})

	return &Bucket{
		name:            c.Bucket,
		region:          c.Region,
		fixedPrefix:     c.Prefix,
		timeoutInMillis: c.TimeoutInMillis,
		client:          client,
		uploader:        manager.NewUploader(client),
		log:             l.With(logger.StorageTypeKey, TYPE),
	}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing S3 config: %w", err)
	}

	return conf, nil
}

func (bucket *Bucket) Save(ctx context.Context, fileName string, data []byte) (*domain.StoredArchive, error) {
	key := mergeParts(bucket.fixedPrefix, fileName)

	ctx, cancelFunc := bucket.operationContext(ctx)
	defer cancelFunc()

	_, err := bucket.uploader.Upload(ctx, &awsS3.PutObjectInput{
		Bucket: &bucket.name,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return nil, fmt.Errorf("error when uploading to S3: %w", err)
	}

	return &domain.StoredArchive{
		Path:        key,
		StoreName:   bucket.name,
		SizeInBytes: int64(len(data)),
	}, nil
}

// Move copies the object to the new key and deletes the original. The copy is
// atomic per object; a crash between copy and delete can leave both names
// present, never a half-written target.
func (bucket *Bucket) Move(ctx context.Context, fromPath string, toPath string) error {
	ctx, cancelFunc := bucket.operationContext(ctx)
	defer cancelFunc()

	exists, err := bucket.headExists(ctx, fromPath)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("moving %s: %w", fromPath, domain.ErrArchiveNotFound)
	}

	copySource := url.PathEscape(bucket.name + "/" + fromPath)
	_, err = bucket.client.CopyObject(ctx, &awsS3.CopyObjectInput{
		Bucket:     &bucket.name,
		CopySource: &copySource,
		Key:        &toPath,
	})
	if err != nil {
		return fmt.Errorf("error copying S3 object: %w", err)
	}

	_, err = bucket.client.DeleteObject(ctx, &awsS3.DeleteObjectInput{
		Bucket: &bucket.name,
		Key:    &fromPath,
	})
	if err != nil {
		return fmt.Errorf("error deleting S3 object after copy: %w", err)
	}

	bucket.log.Debug("moved archive", "from", fromPath, "to", toPath)
	return nil
}

// Exists resolves fileName the same way Save does, prefix included.
func (bucket *Bucket) Exists(ctx context.Context, fileName string) (bool, error) {
	return bucket.headExists(ctx, mergeParts(bucket.fixedPrefix, fileName))
}

func (bucket *Bucket) headExists(ctx context.Context, key string) (bool, error) {
	_, err := bucket.client.HeadObject(ctx, &awsS3.HeadObjectInput{
		Bucket: &bucket.name,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("error checking S3 object existence: %w", err)
	}

	return true, nil
}

func (bucket *Bucket) Type() string {
	return TYPE
}

func (bucket *Bucket) Name() string {
	return bucket.name
}

func (bucket *Bucket) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if bucket.timeoutInMillis == 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(bucket.timeoutInMillis)*time.Millisecond)
}

func mergeParts(fixedPrefix string, key string) string {
	result := strings.Trim(fixedPrefix, "/") + "/" + strings.Trim(key, "/")
	return strings.Trim(result, "/")
}
