package archivestore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lotstream/lotstream/pkg/adapters/archivestore/localstorage"
	"github.com/lotstream/lotstream/pkg/adapters/archivestore/s3"
	"github.com/lotstream/lotstream/pkg/config"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"
)

// Store is the content store the pipeline keeps archives in. Paths returned
// by Save are the lookup keys later operations use; the pipeline never reads
// archive content.
type Store interface {
	Save(ctx context.Context, fileName string, data []byte) (*domain.StoredArchive, error)
	Move(ctx context.Context, fromPath string, toPath string) error
	Exists(ctx context.Context, fileName string) (bool, error)
}

type StoreWithMetadata interface {
	Store
	Type() string
	Name() string
}

func New(
	l *slog.Logger, metricRegistry *prometheus.Registry, conf *config.StorageConfig,
) (StoreWithMetadata, error) {

	var store StoreWithMetadata
	specificConf, err := yaml.Marshal(conf.Config)
	if err != nil {
		return nil, fmt.Errorf("error parsing storage config: %w", err)
	}

	switch conf.Type {
	case s3.TYPE:
		s3Conf, err := s3.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing s3-specific config: %w", err)
		}

		store, err = s3.New(l, s3Conf)
		if err != nil {
			return nil, fmt.Errorf("error creating S3 archive store: %w", err)
		}
	case localstorage.TYPE:
		localConf, err := localstorage.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing localstorage-specific config: %w", err)
		}

		store, err = localstorage.New(l, localConf)
		if err != nil {
			return nil, fmt.Errorf("error creating localstorage archive store: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid storage type %s", conf.Type)
	}

	return NewStoreWithMetrics(store, metricRegistry), nil
}
