package reconcile

import (
	"strings"
)

// DefaultConnectorClass is the Stream Reactor InfluxDB sink.
const DefaultConnectorClass = "com.datamountaineer.streamreactor.connect.influx.InfluxSinkConnector"

const jsonConverter = "org.apache.kafka.connect.json.JsonConverter"

// WorkerConfig is the Kafka Connect worker configuration handed to the base layer.
func WorkerConfig(topics StorageTopics) map[string]string {
	return map[string]string{
		"key.converter":                           jsonConverter,
		"value.converter":                         jsonConverter,
		"key.converter.schemas.enable":            "false",
		"value.converter.schemas.enable":          "false",
		"internal.key.converter":                  jsonConverter,
		"internal.value.converter":                jsonConverter,
		"internal.key.converter.schemas.enable":   "false",
		"internal.value.converter.schemas.enable": "false",
		"offset.flush.interval.ms":                "10000",
		"config.storage.topic":                    topics.Config,
		"offset.storage.topic":                    topics.Offset,
		"status.storage.topic":                    topics.Status,
	}
}

// RegistrationPayload builds the connector config. It is rebuilt on every attempt.
// tasks.max is omitted when unset so the worker applies its own default.
func RegistrationPayload(connectorClass string, cfg DesiredConfig, ep Endpoint) map[string]string {
	if connectorClass == "" {
		connectorClass = DefaultConnectorClass
	}
	payload := map[string]string{
		"connector.class":         connectorClass,
		"connect.influx.url":      ep.URL(),
		"connect.influx.db":       cfg.Database,
		"connect.influx.username": ep.Username,
		"connect.influx.password": ep.Password,
		"connect.influx.kcql":     cfg.KCQL,
		"topics":                  strings.Join(strings.Fields(cfg.Topics), ","),
	}
	if cfg.MaxTasks != "" {
		payload["tasks.max"] = cfg.MaxTasks
	}
	return payload
}

// ConnectorName derives the target name from the model and the unit running the controller.
// A unit suffix such as "/0" is dropped so every unit of an application shares one connector.
func ConnectorName(model, unit string) string {
	app, _, _ := strings.Cut(unit, "/")
	return model + app + "-influxdb"
}
