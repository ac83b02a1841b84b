package config

import (
	"gopkg.in/yaml.v2"
)

var allowedVals map[string][]string

func init() {
	allowedVals = map[string][]string{
		"log.level":     {"debug", "info", "warn", "error"},
		"log.format":    {"json", "logfmt"},
		"decompression": {"gzip", "zlib", "deflate"},
		"storage.type":  {"s3", "localstorage"},
		"queue.type":    {"sqs", "noop"},
		"catalog.type":  {"postgres", "memory"},
	}
}

type Config struct {
	Log     LogConfig     `yaml:"log"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Queue   QueueConfig   `yaml:"queue"`
	Catalog CatalogConfig `yaml:"catalog"`
	Worker  WorkerConfig  `yaml:"worker"`
	O11y    O11yConfig    `yaml:"o11y"`
	Version string        `yaml:"-"`
}

func New(confData []byte) (*Config, error) {
	c := &Config{}

	err := yaml.Unmarshal(confData, c)
	if err != nil {
		return nil, err
	}

	c.fillDefaultValues()

	err = c.validate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) fillDefaultValues() {
	c.Log = c.Log.fillDefaults()
	c.API = c.API.fillDefaults()
	c.Storage = c.Storage.fillDefaults()
	c.Queue = c.Queue.fillDefaults()
	c.Catalog = c.Catalog.fillDefaults()
	c.Worker = c.Worker.fillDefaults()
}

func (c *Config) validate() error {
	err := c.Log.validate()
	if err != nil {
		return err
	}

	err = c.API.validate()
	if err != nil {
		return err
	}

	err = c.Storage.validate()
	if err != nil {
		return err
	}

	err = c.Queue.validate()
	if err != nil {
		return err
	}

	err = c.Catalog.validate()
	if err != nil {
		return err
	}

	return c.Worker.validate()
}

func allowed(group []string, elem string) bool {
	for _, a := range group {
		if a == elem {
			return true
		}
	}
	return false
}

func allowedValues(key string) []string {
	return allowedVals[key]
}
