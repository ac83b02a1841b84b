package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
	"gopkg.in/yaml.v2"
)

const TYPE string = "postgres"
const auditActor = "system"

type Config struct {
	DSN             string `yaml:"dsn"`
	MaxConns        int32  `yaml:"max_conns"`
	MaxConnIdleTime string `yaml:"max_conn_idle_time"`
}

// refTable maps an entity kind to the table and business-code column holding
// it. Uniqueness per (kind, code) is enforced by the unique index on the code
// column, making EnsureExists safe under concurrent invocation.
type refTable struct {
	table      string
	codeColumn string
}

var refTables = map[domain.EntityKind]refTable{
	domain.KindCustomer:    {table: "ref_customers", codeColumn: "customer_code"},
	domain.KindTester:      {table: "ref_testers", codeColumn: "tester_code"},
	domain.KindTestProgram: {table: "ref_test_programs", codeColumn: "test_program_code"},
	domain.KindFamily:      {table: "ref_families", codeColumn: "family_code"},
	domain.KindWafer:       {table: "ref_wafers", codeColumn: "wafer_code"},
	domain.KindLot:         {table: "ref_lots", codeColumn: "lot_code"},
}

type Catalog struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func New(ctx context.Context, l *slog.Logger, c *Config) (*Catalog, error) {
	poolConfig, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if c.MaxConns > 0 {
		poolConfig.MaxConns = c.MaxConns
	}
	if c.MaxConnIdleTime != "" {
		idleTime, err := time.ParseDuration(c.MaxConnIdleTime)
		if err != nil {
			return nil, fmt.Errorf("parse max_conn_idle_time: %w", err)
		}
		poolConfig.MaxConnIdleTime = idleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	catalog := &Catalog{pool: pool, log: l.With(logger.CatalogTypeKey, TYPE)}

	err = catalog.ensureSchema(ctx)
	if err != nil {
		return nil, err
	}

	return catalog, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing postgres config: %w", err)
	}

	return conf, nil
}

// ensureSchema creates the tables if needed. Having the migration in code
// keeps deployments self-contained: the worker can boot against an empty
// database.
func (catalog *Catalog) ensureSchema(ctx context.Context) error {
	stmt := ""
	for _, ref := range refTables {
		stmt += fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	%s TEXT NOT NULL,
	name TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_on TIMESTAMPTZ NOT NULL,
	created_by TEXT NOT NULL,
	modified_on TIMESTAMPTZ,
	modified_by TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_code ON %s(%s);`,
			ref.table, ref.codeColumn, ref.table, ref.table, ref.codeColumn)
	}

	stmt += `
CREATE TABLE IF NOT EXISTS bucket_object_logs (
	id TEXT PRIMARY KEY,
	object_name TEXT NOT NULL,
	bucket_name TEXT NOT NULL,
	status TEXT NOT NULL,
	file_size BIGINT,
	error_message TEXT,
	created_on TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bucket_object_logs_object ON bucket_object_logs(object_name);
CREATE TABLE IF NOT EXISTS data_lot_attributes (
	id TEXT PRIMARY KEY,
	lot_code TEXT NOT NULL,
	attribute_name TEXT NOT NULL,
	attribute_value TEXT,
	data_type TEXT,
	created_on TIMESTAMPTZ NOT NULL,
	created_by TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_data_lot_attributes_lot ON data_lot_attributes(lot_code);`

	_, err := catalog.pool.Exec(ctx, stmt)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// EnsureExists inserts the entity when its code is absent and leaves it
// untouched when present. ON CONFLICT DO NOTHING makes repeated and
// concurrent invocations with the same code a no-op instead of an error.
func (catalog *Catalog) EnsureExists(ctx context.Context, kind domain.EntityKind, code string, name string) error {
	ref, known := refTables[kind]
	if !known {
		return fmt.Errorf("unknown reference entity kind %s", kind)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, %s, name, is_active, created_on, created_by)
		VALUES ($1, $2, $3, TRUE, $4, $5)
		ON CONFLICT (%s) DO NOTHING
	`, ref.table, ref.codeColumn, ref.codeColumn)

	tag, err := catalog.pool.Exec(ctx, stmt,
		uuid.NewString(), code, name, time.Now().UTC(), auditActor)
	if err != nil {
		return fmt.Errorf("ensure %s %s exists: %w", kind, code, err)
	}

	if tag.RowsAffected() > 0 {
		catalog.log.Info("created reference entity", "kind", string(kind), "code", code)
	}
	return nil
}

// SaveLotAttribute always inserts a new row; repeated reconciliation of the
// same lot accumulates duplicate attribute rows. The lot itself must already
// exist: the lot code is a soft reference checked here, not a foreign key.
func (catalog *Catalog) SaveLotAttribute(ctx context.Context, lotCode string, attributeName string, attributeValue string, dataType string) error {
	var lotExists bool
	err := catalog.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM ref_lots WHERE lot_code=$1)`, lotCode,
	).Scan(&lotExists)
	if err != nil {
		return fmt.Errorf("check lot %s exists: %w", lotCode, err)
	}
	if !lotExists {
		return fmt.Errorf("cannot save attribute %s: lot %s does not exist", attributeName, lotCode)
	}

	_, err = catalog.pool.Exec(ctx, `
		INSERT INTO data_lot_attributes (id, lot_code, attribute_name, attribute_value, data_type, created_on, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), lotCode, attributeName, attributeValue, dataType, time.Now().UTC(), auditActor)
	if err != nil {
		return fmt.Errorf("save lot attribute %s for %s: %w", attributeName, lotCode, err)
	}

	return nil
}

// RecordLog appends one processing-log row. Entries are never updated or
// deleted; the ordered history per object name is the audit trail.
func (catalog *Catalog) RecordLog(ctx context.Context, entry domain.LogEntry) error {
	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	var errorMessage *string
	if entry.ErrorMessage != "" {
		errorMessage = &entry.ErrorMessage
	}

	_, err := catalog.pool.Exec(ctx, `
		INSERT INTO bucket_object_logs (id, object_name, bucket_name, status, file_size, error_message, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), entry.ObjectName, entry.StoreName, string(entry.Status),
		entry.FileSize, errorMessage, timestamp)
	if err != nil {
		return fmt.Errorf("record %s log for %s: %w", entry.Status, entry.ObjectName, err)
	}

	return nil
}

func (catalog *Catalog) Type() string {
	return TYPE
}

func (catalog *Catalog) Close() {
	catalog.pool.Close()
}
