package localstorage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
	"gopkg.in/yaml.v2"
)

const TYPE string = "localstorage"

type Config struct {
	Path string `yaml:"path"`
}

type LocalStorage struct {
	path string
	log  *slog.Logger
}

func New(l *slog.Logger, c *Config) (*LocalStorage, error) {
	path, err := validateAndFormatPath(c.Path)
	if err != nil {
		return nil, fmt.Errorf("error creating localstorage: %w", err)
	}

	return &LocalStorage{path: path, log: l.With(logger.StorageTypeKey, TYPE)}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing localstorage config: %w", err)
	}

	return conf, nil
}

func (storage *LocalStorage) Save(_ context.Context, fileName string, data []byte) (*domain.StoredArchive, error) {
	fullFilePath := filepath.Join(storage.path, fileName)

	directoryPath := filepath.Dir(fullFilePath)
	_, err := os.Stat(directoryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error getting directory info: %w", err)
		}
		err = os.MkdirAll(directoryPath, os.ModePerm)
		if err != nil {
			return nil, fmt.Errorf("error creating directory: %w", err)
		}
	}

	err = os.WriteFile(fullFilePath, data, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("error writing data into file: %w", err)
	}

	return &domain.StoredArchive{
		Path:        fullFilePath,
		StoreName:   TYPE,
		SizeInBytes: int64(len(data)),
	}, nil
}

// Move renames the archive in place. os.Rename is atomic on a single
// filesystem, so other readers never see a half-moved artifact.
func (storage *LocalStorage) Move(_ context.Context, fromPath string, toPath string) error {
	_, err := os.Stat(fromPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("moving %s: %w", fromPath, domain.ErrArchiveNotFound)
		}
		return fmt.Errorf("error checking move source: %w", err)
	}

	err = os.Rename(fromPath, toPath)
	if err != nil {
		return fmt.Errorf("error moving file: %w", err)
	}

	storage.log.Debug("moved archive", "from", fromPath, "to", toPath)
	return nil
}

// Exists resolves fileName the same way Save does, under the base path.
func (storage *LocalStorage) Exists(_ context.Context, fileName string) (bool, error) {
	_, err := os.Stat(filepath.Join(storage.path, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("error checking file existence: %w", err)
	}
	return true, nil
}

func (storage *LocalStorage) Type() string {
	return TYPE
}

func (storage *LocalStorage) Name() string {
	return TYPE
}

func validateAndFormatPath(path string) (string, error) {
	pathInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("the directory for the path doesn't exist: %w", err)
		}
		return "", fmt.Errorf("error on the provided path: %w", err)
	}

	if !pathInfo.IsDir() {
		return "", fmt.Errorf("provided path is not a directory")
	}

	return strings.TrimSuffix(path, "/"), nil
}
