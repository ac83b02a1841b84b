package config

import "fmt"

// StorageConfig selects the archive store backend. Config carries the
// backend-specific options, re-parsed by the selected adapter.
type StorageConfig struct {
	Type   string      `yaml:"type"`
	Config interface{} `yaml:"config"`
}

func (stgConf StorageConfig) fillDefaults() StorageConfig {
	if stgConf.Type == "" {
		stgConf.Type = "localstorage"
	}
	return stgConf
}

func (stgConf StorageConfig) validate() error {
	if !allowed(allowedValues("storage.type"), stgConf.Type) {
		return fmt.Errorf("storage type should be one of %v", allowedValues("storage.type"))
	}
	return nil
}

// QueueConfig selects the queue channel backend.
type QueueConfig struct {
	Type   string      `yaml:"type"`
	Config interface{} `yaml:"config"`
}

func (qConf QueueConfig) fillDefaults() QueueConfig {
	if qConf.Type == "" {
		qConf.Type = "noop"
	}
	return qConf
}

func (qConf QueueConfig) validate() error {
	if !allowed(allowedValues("queue.type"), qConf.Type) {
		return fmt.Errorf("queue type should be one of %v", allowedValues("queue.type"))
	}
	return nil
}

// CatalogConfig selects the reference catalog / processing log backend.
type CatalogConfig struct {
	Type   string      `yaml:"type"`
	Config interface{} `yaml:"config"`
}

func (catConf CatalogConfig) fillDefaults() CatalogConfig {
	if catConf.Type == "" {
		catConf.Type = "memory"
	}
	return catConf
}

func (catConf CatalogConfig) validate() error {
	if !allowed(allowedValues("catalog.type"), catConf.Type) {
		return fmt.Errorf("catalog type should be one of %v", allowedValues("catalog.type"))
	}
	return nil
}
