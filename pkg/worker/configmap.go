// Package worker reads and writes the ConfigMap shared with the Kafka Connect base layer.
package worker

import (
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/apollo/influxsink/pkg/reconcile"
)

// ConfigMap keys shared with the base layer.
const (
	KeyReady       = "ready"
	KeyRunning     = "running"
	KeyConfigTopic = "config.storage.topic"
	KeyOffsetTopic = "offset.storage.topic"
	KeyStatusTopic = "status.storage.topic"
	KeyRESTURL     = "rest.url"
	KeyProperties  = "worker.properties"
	KeyInstall     = "install"
	valueTrue      = "true"
)

// Observe reads the base layer's state. A missing ConfigMap reports nothing ready.
func Observe(cm *corev1.ConfigMap) reconcile.WorkerState {
	if cm == nil {
		return reconcile.WorkerState{}
	}
	return reconcile.WorkerState{
		Ready:   isTrue(cm.Data[KeyReady]),
		Running: isTrue(cm.Data[KeyRunning]),
		Topics: reconcile.StorageTopics{
			Config: strings.TrimSpace(cm.Data[KeyConfigTopic]),
			Offset: strings.TrimSpace(cm.Data[KeyOffsetTopic]),
			Status: strings.TrimSpace(cm.Data[KeyStatusTopic]),
		},
	}
}

// RESTURL returns the worker REST endpoint published by the base layer, or fallback.
func RESTURL(cm *corev1.ConfigMap, fallback string) string {
	if cm != nil {
		if u := strings.TrimSpace(cm.Data[KeyRESTURL]); u != "" {
			return u
		}
	}
	return fallback
}

// ApplyConfig stores cfg on cm and raises the install request.
// It reports whether cm was modified.
func ApplyConfig(cm *corev1.ConfigMap, cfg map[string]string) (bool, error) {
	rendered, err := RenderProperties(cfg)
	if err != nil {
		return false, err
	}
	if cm.Data == nil {
		cm.Data = map[string]string{}
	}
	changed := cm.Data[KeyProperties] != rendered || cm.Data[KeyInstall] != valueTrue
	cm.Data[KeyProperties] = rendered
	cm.Data[KeyInstall] = valueTrue
	return changed, nil
}

func isTrue(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), valueTrue)
}
