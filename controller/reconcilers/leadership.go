package reconcilers

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/log"

	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
	"github.com/apollo/influxsink/pkg/worker"
)

// ElectedFunc reports leadership from the manager's elected channel.
func ElectedFunc(elected <-chan struct{}) func() bool {
	return func() bool {
		select {
		case <-elected:
			return true
		default:
			return false
		}
	}
}

// leadershipNotifier enqueues every sink once this replica becomes leader, so the
// mutating rules run without waiting for the next resync.
type leadershipNotifier struct {
	reader  client.Reader
	elected <-chan struct{}
	wake    chan<- event.GenericEvent
}

// NeedLeaderElection is false: the notifier must run before leadership is won to observe it.
func (n *leadershipNotifier) NeedLeaderElection() bool { return false }

func (n *leadershipNotifier) Start(ctx context.Context) error {
	logger := log.FromContext(ctx).WithName("leadership")

	select {
	case <-ctx.Done():
		return nil
	case <-n.elected:
	}

	var sinks v1alpha1.InfluxDBSinkList
	if err := n.reader.List(ctx, &sinks); err != nil {
		// The resync requeue still reaches every sink.
		logger.Error(err, "unable to list sinks after election")
		return nil
	}
	logger.Info("leadership acquired", "sinks", len(sinks.Items))

	for i := range sinks.Items {
		select {
		case n.wake <- event.GenericEvent{Object: &sinks.Items[i]}:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// configMapWorker hands the worker configuration to the base layer through its ConfigMap.
type configMapWorker struct {
	client client.Client
	key    types.NamespacedName
}

func (w *configMapWorker) SetWorkerConfig(ctx context.Context, cfg map[string]string) error {
	var cm corev1.ConfigMap
	if err := w.client.Get(ctx, w.key, &cm); err != nil {
		return fmt.Errorf("get worker configmap %s: %w", w.key, err)
	}
	changed, err := worker.ApplyConfig(&cm, cfg)
	if err != nil {
		return fmt.Errorf("render worker config: %w", err)
	}
	if !changed {
		return nil
	}
	if err := w.client.Update(ctx, &cm); err != nil {
		return fmt.Errorf("update worker configmap %s: %w", w.key, err)
	}
	return nil
}
