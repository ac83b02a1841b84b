package catalogstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lotstream/lotstream/pkg/adapters/catalogstore/memory"
	"github.com/lotstream/lotstream/pkg/adapters/catalogstore/postgres"
	"github.com/lotstream/lotstream/pkg/config"
	"github.com/lotstream/lotstream/pkg/domain"
	"gopkg.in/yaml.v2"
)

// Catalog groups the relational side of the pipeline: idempotent
// reference-entity upserts, the append-only processing log and the lot
// attribute rows.
type Catalog interface {
	EnsureExists(ctx context.Context, kind domain.EntityKind, code string, name string) error
	SaveLotAttribute(ctx context.Context, lotCode string, attributeName string, attributeValue string, dataType string) error
	RecordLog(ctx context.Context, entry domain.LogEntry) error
}

type CatalogWithMetadata interface {
	Catalog
	Type() string
}

func New(
	ctx context.Context, l *slog.Logger, conf *config.CatalogConfig,
) (CatalogWithMetadata, error) {

	specificConf, err := yaml.Marshal(conf.Config)
	if err != nil {
		return nil, fmt.Errorf("error parsing catalog config: %w", err)
	}

	switch conf.Type {
	case memory.TYPE:
		return memory.New(l), nil
	case postgres.TYPE:
		c, err := postgres.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing postgres-specific config: %w", err)
		}

		catalog, err := postgres.New(ctx, l, c)
		if err != nil {
			return nil, fmt.Errorf("error creating postgres catalog: %w", err)
		}
		return catalog, nil
	default:
		return nil, fmt.Errorf("invalid catalog type %s", conf.Type)
	}
}
