package config

import (
	"fmt"
	"time"
)

type WorkerConfig struct {
	Enabled             bool `yaml:"enabled"`
	PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
	ErrorBackoffSeconds int  `yaml:"error_backoff_seconds"`
}

func (wConf WorkerConfig) fillDefaults() WorkerConfig {
	if wConf.PollIntervalSeconds == 0 {
		wConf.PollIntervalSeconds = 5
	}
	if wConf.ErrorBackoffSeconds == 0 {
		wConf.ErrorBackoffSeconds = 10
	}
	return wConf
}

func (wConf WorkerConfig) validate() error {
	if wConf.PollIntervalSeconds < 0 {
		return fmt.Errorf("worker poll interval cannot be negative")
	}
	if wConf.ErrorBackoffSeconds < 0 {
		return fmt.Errorf("worker error backoff cannot be negative")
	}
	return nil
}

func (wConf WorkerConfig) PollInterval() time.Duration {
	return time.Duration(wConf.PollIntervalSeconds) * time.Second
}

func (wConf WorkerConfig) ErrorBackoff() time.Duration {
	return time.Duration(wConf.ErrorBackoffSeconds) * time.Second
}
