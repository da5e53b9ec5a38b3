package reconcile

import (
	"strconv"
	"strings"

	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
)

// ConfigKey names a user-declared setting.
type ConfigKey string

const (
	KeyDatabase ConfigKey = "database"
	KeyKCQL     ConfigKey = "kcql"
	KeyMaxTasks ConfigKey = "max-tasks"
	KeyTopics   ConfigKey = "topics"
)

// configKeys is the fixed order keys are compared and reported in.
var configKeys = []ConfigKey{KeyDatabase, KeyKCQL, KeyMaxTasks, KeyTopics}

// DesiredConfig is the snapshot of user settings for one pass.
type DesiredConfig struct {
	Database string
	KCQL     string
	MaxTasks string
	Topics   string
}

// ConfigFromSpec reads the desired configuration off a sink spec.
// A non-positive max-tasks is treated as not set.
func ConfigFromSpec(spec v1alpha1.InfluxDBSinkSpec) DesiredConfig {
	cfg := DesiredConfig{
		Database: strings.TrimSpace(spec.Database),
		KCQL:     strings.TrimSpace(spec.KCQL),
		Topics:   strings.TrimSpace(spec.Topics),
	}
	if spec.MaxTasks > 0 {
		cfg.MaxTasks = strconv.FormatInt(int64(spec.MaxTasks), 10)
	}
	return cfg
}

// Get returns the value for key.
func (c DesiredConfig) Get(key ConfigKey) string {
	switch key {
	case KeyDatabase:
		return c.Database
	case KeyKCQL:
		return c.KCQL
	case KeyMaxTasks:
		return c.MaxTasks
	case KeyTopics:
		return c.Topics
	default:
		return ""
	}
}

// IsSet reports whether the key carries a value.
func (c DesiredConfig) IsSet(key ConfigKey) bool {
	return c.Get(key) != ""
}

// Values renders the config for persistence as the last observed configuration.
func (c DesiredConfig) Values() map[string]string {
	out := make(map[string]string, len(configKeys))
	for _, k := range configKeys {
		out[string(k)] = c.Get(k)
	}
	return out
}

// ChangedKeys lists keys whose value differs from the previously observed values.
// With no previous observation every key counts as changed.
func ChangedKeys(previous map[string]string, current DesiredConfig) []ConfigKey {
	var changed []ConfigKey
	for _, k := range configKeys {
		prev, seen := previous[string(k)]
		if previous == nil || !seen || prev != current.Get(k) {
			changed = append(changed, k)
		}
	}
	return changed
}

// Endpoint is the InfluxDB endpoint published by the dependency provider.
type Endpoint struct {
	Hostname string
	Port     string
	Username string
	Password string
}

// URL is the address handed to the connector.
func (e Endpoint) URL() string {
	return "http://" + e.Hostname + ":" + e.Port
}

// StorageTopics are the worker's internal topics created by the base layer.
type StorageTopics struct {
	Config string
	Offset string
	Status string
}

// Created reports whether the base layer has published all three topics.
func (t StorageTopics) Created() bool {
	return t.Config != "" && t.Offset != "" && t.Status != ""
}

// WorkerState is what the Kafka Connect base layer reports.
type WorkerState struct {
	Ready   bool
	Running bool
	Topics  StorageTopics
}
