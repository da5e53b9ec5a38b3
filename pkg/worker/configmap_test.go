package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"

	"github.com/apollo/influxsink/pkg/reconcile"
)

func TestObserve(t *testing.T) {
	cm := &corev1.ConfigMap{Data: map[string]string{
		KeyReady:       "true",
		KeyRunning:     "True",
		KeyConfigTopic: "connect-configs",
		KeyOffsetTopic: "connect-offsets",
		KeyStatusTopic: "connect-status",
	}}

	state := Observe(cm)
	assert.True(t, state.Ready)
	assert.True(t, state.Running)
	assert.True(t, state.Topics.Created())
	assert.Equal(t, reconcile.StorageTopics{Config: "connect-configs", Offset: "connect-offsets", Status: "connect-status"}, state.Topics)
}

func TestObserveMissingOrPartial(t *testing.T) {
	assert.Equal(t, reconcile.WorkerState{}, Observe(nil))

	state := Observe(&corev1.ConfigMap{Data: map[string]string{
		KeyRunning:     "false",
		KeyConfigTopic: "connect-configs",
	}})
	assert.False(t, state.Running)
	assert.False(t, state.Topics.Created())
}

func TestRESTURL(t *testing.T) {
	assert.Equal(t, "http://fallback:8083", RESTURL(nil, "http://fallback:8083"))
	cm := &corev1.ConfigMap{Data: map[string]string{KeyRESTURL: " http://worker:8083 "}}
	assert.Equal(t, "http://worker:8083", RESTURL(cm, "http://fallback:8083"))
}

func TestApplyConfig(t *testing.T) {
	cm := &corev1.ConfigMap{}
	cfg := reconcile.WorkerConfig(reconcile.StorageTopics{Config: "c", Offset: "o", Status: "s"})

	changed, err := ApplyConfig(cm, cfg)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "true", cm.Data[KeyInstall])
	assert.Contains(t, cm.Data[KeyProperties], "config.storage.topic=c\n")
	assert.Contains(t, cm.Data[KeyProperties], "offset.flush.interval.ms=10000\n")

	changed, err = ApplyConfig(cm, cfg)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApplyConfigRejectsBadValue(t *testing.T) {
	cm := &corev1.ConfigMap{}
	_, err := ApplyConfig(cm, map[string]string{"config.storage.topic": "a\nb"})
	assert.Error(t, err)
	assert.Empty(t, cm.Data)
}
