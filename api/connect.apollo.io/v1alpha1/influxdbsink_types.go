// Copyright 2025 Apollo
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// InfluxDBReference points at the Secret published for the InfluxDB endpoint.
type InfluxDBReference struct {
	// SecretName holds hostname, port, username and password keys.
	// +kubebuilder:validation:MinLength=1
	SecretName string `json:"secretName"`
}

// WorkerReference points at the ConfigMap shared with the Kafka Connect worker layer.
type WorkerReference struct {
	// ConfigMapName is read for worker readiness and storage topics, and written with
	// the worker configuration.
	// +kubebuilder:validation:MinLength=1
	ConfigMapName string `json:"configMapName"`
}

// InfluxDBSinkSpec defines the desired connector configuration.
type InfluxDBSinkSpec struct {
	// Database is the InfluxDB database the connector writes to.
	Database string `json:"database,omitempty"`
	// KCQL is the Kafka Connect Query Language statement mapping topics to measurements.
	KCQL string `json:"kcql,omitempty"`
	// MaxTasks bounds connector task parallelism.
	// +kubebuilder:default=1
	// +kubebuilder:validation:Minimum=0
	MaxTasks int32 `json:"maxTasks,omitempty"`
	// Topics is a space separated list of Kafka topics to consume.
	Topics string `json:"topics,omitempty"`
	// InfluxDB references the endpoint credentials.
	InfluxDB InfluxDBReference `json:"influxDB"`
	// Worker references the Kafka Connect worker layer.
	Worker WorkerReference `json:"worker"`
}

// InfluxDBSinkStatus captures the persisted reconciliation state.
type InfluxDBSinkStatus struct {
	// ObservedGeneration is the most recent generation observed by the leader.
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
	// ConnectorName is the name registered with Kafka Connect. Set once.
	ConnectorName string `json:"connectorName,omitempty"`
	// ObservedConfig holds the configuration values seen on the last leader pass.
	ObservedConfig map[string]string `json:"observedConfig,omitempty"`
	// Conditions hold observed and derived flags plus the Ready report.
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:resource:scope=Namespaced
//+kubebuilder:printcolumn:name="CONNECTOR",type=string,JSONPath=`.status.connectorName`
//+kubebuilder:printcolumn:name="DATABASE",type=string,JSONPath=`.spec.database`
//+kubebuilder:printcolumn:name="READY",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].reason`
//+kubebuilder:printcolumn:name="MESSAGE",type=string,JSONPath=`.status.conditions[?(@.type=="Ready")].message`
//+kubebuilder:printcolumn:name="AGE",type=date,JSONPath=`.metadata.creationTimestamp`

// InfluxDBSink is the Schema for the influxdbsinks API.
type InfluxDBSink struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   InfluxDBSinkSpec   `json:"spec"`
	Status InfluxDBSinkStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// InfluxDBSinkList contains a list of InfluxDBSink.
type InfluxDBSinkList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []InfluxDBSink `json:"items"`
}

func init() {
	SchemeBuilder.Register(&InfluxDBSink{}, &InfluxDBSinkList{})
}
