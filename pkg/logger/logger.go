package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/lotstream/lotstream/pkg/config"
)

const (
	ComponentKey   = "component"
	QueueTypeKey   = "queue_type"
	StorageTypeKey = "storage_type"
	CatalogTypeKey = "catalog_type"
)

func New(conf config.LogConfig) *slog.Logger {
	var level slog.Level
	err := level.UnmarshalText([]byte(conf.Level))
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if conf.Format == "logfmt" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// NewDummy returns a logger that discards everything. Meant for tests.
func NewDummy() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
