package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
)

const TYPE string = "memory"

// Entity is an in-memory reference-catalog row.
type Entity struct {
	ID        string
	Code      string
	Name      string
	IsActive  bool
	CreatedOn time.Time
	CreatedBy string
}

// LotAttribute is an in-memory lot attribute row.
type LotAttribute struct {
	ID             string
	LotCode        string
	AttributeName  string
	AttributeValue string
	DataType       string
	CreatedOn      time.Time
}

// Catalog keeps everything in process memory. It backs deployments without a
// database and the pipeline's tests.
type Catalog struct {
	mu         sync.Mutex
	entities   map[domain.EntityKind]map[string]Entity
	attributes []LotAttribute
	logEntries []domain.LogEntry
	log        *slog.Logger
}

func New(l *slog.Logger) *Catalog {
	return &Catalog{
		entities: make(map[domain.EntityKind]map[string]Entity),
		log:      l.With(logger.CatalogTypeKey, TYPE),
	}
}

func (catalog *Catalog) EnsureExists(_ context.Context, kind domain.EntityKind, code string, name string) error {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	byCode, known := catalog.entities[kind]
	if !known {
		byCode = make(map[string]Entity)
		catalog.entities[kind] = byCode
	}

	if _, present := byCode[code]; present {
		return nil
	}

	byCode[code] = Entity{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		IsActive:  true,
		CreatedOn: time.Now().UTC(),
		CreatedBy: "system",
	}
	catalog.log.Info("created reference entity", "kind", string(kind), "code", code)
	return nil
}

func (catalog *Catalog) SaveLotAttribute(_ context.Context, lotCode string, attributeName string, attributeValue string, dataType string) error {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	if _, present := catalog.entities[domain.KindLot][lotCode]; !present {
		return fmt.Errorf("cannot save attribute %s: lot %s does not exist", attributeName, lotCode)
	}

	catalog.attributes = append(catalog.attributes, LotAttribute{
		ID:             uuid.NewString(),
		LotCode:        lotCode,
		AttributeName:  attributeName,
		AttributeValue: attributeValue,
		DataType:       dataType,
		CreatedOn:      time.Now().UTC(),
	})
	return nil
}

func (catalog *Catalog) RecordLog(_ context.Context, entry domain.LogEntry) error {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	catalog.logEntries = append(catalog.logEntries, entry)
	return nil
}

func (catalog *Catalog) Type() string {
	return TYPE
}

// Entities returns a copy of the stored entities of one kind, keyed by code.
func (catalog *Catalog) Entities(kind domain.EntityKind) map[string]Entity {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	result := make(map[string]Entity, len(catalog.entities[kind]))
	for code, entity := range catalog.entities[kind] {
		result[code] = entity
	}
	return result
}

// Attributes returns a copy of the attribute rows stored for a lot code, in
// insertion order.
func (catalog *Catalog) Attributes(lotCode string) []LotAttribute {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	var result []LotAttribute
	for _, attr := range catalog.attributes {
		if attr.LotCode == lotCode {
			result = append(result, attr)
		}
	}
	return result
}

// LogEntries returns a copy of the processing-log rows for an object name, in
// insertion order.
func (catalog *Catalog) LogEntries(objectName string) []domain.LogEntry {
	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	var result []domain.LogEntry
	for _, entry := range catalog.logEntries {
		if entry.ObjectName == objectName {
			result = append(result, entry)
		}
	}
	return result
}
