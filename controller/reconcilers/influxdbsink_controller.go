package reconcilers

import (
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	ctrlreconcile "sigs.k8s.io/controller-runtime/pkg/reconcile"
	"sigs.k8s.io/controller-runtime/pkg/source"

	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
	"github.com/apollo/influxsink/pkg/conditions"
	"github.com/apollo/influxsink/pkg/metrics"
	"github.com/apollo/influxsink/pkg/reconcile"
	"github.com/apollo/influxsink/pkg/status"
	"github.com/apollo/influxsink/pkg/worker"
)

const (
	secretNameField    = ".spec.influxDB.secretName"
	configMapNameField = ".spec.worker.configMapName"

	secretHostnameKey = "hostname"
	secretPortKey     = "port"
	secretUsernameKey = "username"
	secretPasswordKey = "password"
)

//+kubebuilder:rbac:groups=connect.apollo.io,resources=influxdbsinks,verbs=get;list;watch
//+kubebuilder:rbac:groups=connect.apollo.io,resources=influxdbsinks/status,verbs=get;update;patch
//+kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch
//+kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;update
//+kubebuilder:rbac:groups="",resources=events,verbs=create;patch
//+kubebuilder:rbac:groups=coordination.k8s.io,resources=leases,verbs=get;list;watch;create;update;patch

// InfluxDBSinkReconciler keeps the Kafka Connect InfluxDB connector of each InfluxDBSink in sync.
// Every replica runs it; only the elected leader acts on external systems or writes status.
type InfluxDBSinkReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	Database   reconcile.DatabaseCreator
	Connectors reconcile.ConnectorRegistry
	Statuses   *status.Registry
	IsLeader   func() bool

	ConnectURL     string
	ConnectorClass string
	ResyncPeriod   time.Duration

	wake chan event.GenericEvent
}

// SetupWithManager wires the reconciler into the controller manager.
func (r *InfluxDBSinkReconciler) SetupWithManager(ctx context.Context, mgr ctrl.Manager) error {
	indexer := mgr.GetFieldIndexer()
	if err := indexer.IndexField(ctx, &v1alpha1.InfluxDBSink{}, secretNameField, indexSecretName); err != nil {
		return fmt.Errorf("index %s: %w", secretNameField, err)
	}
	if err := indexer.IndexField(ctx, &v1alpha1.InfluxDBSink{}, configMapNameField, indexConfigMapName); err != nil {
		return fmt.Errorf("index %s: %w", configMapNameField, err)
	}

	r.wake = make(chan event.GenericEvent)
	if err := mgr.Add(&leadershipNotifier{
		reader:  mgr.GetClient(),
		elected: mgr.Elected(),
		wake:    r.wake,
	}); err != nil {
		return err
	}

	return ctrl.NewControllerManagedBy(mgr).
		For(&v1alpha1.InfluxDBSink{}, builder.WithPredicates(predicate.GenerationChangedPredicate{})).
		Watches(&corev1.Secret{}, handler.EnqueueRequestsFromMapFunc(r.sinksReferencing(secretNameField))).
		Watches(&corev1.ConfigMap{}, handler.EnqueueRequestsFromMapFunc(r.sinksReferencing(configMapNameField))).
		WatchesRawSource(&source.Channel{Source: r.wake}, &handler.EnqueueRequestForObject{}).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: 1,
			NeedLeaderElection:      ptr.To(false),
		}).
		Complete(r)
}

// Reconcile runs one pass of the connector rules for a sink.
func (r *InfluxDBSinkReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx).WithValues("influxdbsink", req.NamespacedName)
	ctx = log.IntoContext(ctx, logger)

	var sink v1alpha1.InfluxDBSink
	if err := r.Get(ctx, req.NamespacedName, &sink); err != nil {
		if apierrors.IsNotFound(err) {
			r.Statuses.Forget(req.NamespacedName)
			metrics.ForgetSink(req.Namespace, req.Name)
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	endpoint, err := r.endpointFor(ctx, &sink)
	if err != nil {
		return ctrl.Result{}, err
	}
	cm, err := r.workerConfigMapFor(ctx, &sink)
	if err != nil {
		return ctrl.Result{}, err
	}

	leader := r.IsLeader()
	cfg := reconcile.ConfigFromSpec(sink.Spec)
	var changed []reconcile.ConfigKey
	if leader {
		changed = reconcile.ChangedKeys(sink.Status.ObservedConfig, cfg)
	}

	working := sink.DeepCopy()
	target := working.Status.ConnectorName
	if target == "" {
		target = reconcile.ConnectorName(sink.Namespace, sink.Name)
	}

	recorder := status.NewRecorder(status.FromConditions(working.Status.Conditions))
	pass := &reconcile.Pass{
		Target:         target,
		ConnectURL:     worker.RESTURL(cm, r.ConnectURL),
		ConnectorClass: r.ConnectorClass,
		Database:       r.Database,
		Connectors:     r.Connectors,
		Worker:         &configMapWorker{client: r.Client, key: types.NamespacedName{Namespace: sink.Namespace, Name: sink.Spec.Worker.ConfigMapName}},
		Reporter:       recorder,
		Log:            logger,
	}
	res := pass.Run(ctx, conditions.NewStore(&working.Status.Conditions), reconcile.Inputs{
		Config:   cfg,
		Changed:  changed,
		Endpoint: endpoint,
		Worker:   worker.Observe(cm),
		Leader:   leader,
	})

	report := recorder.Report()
	status.Apply(&working.Status.Conditions, report)

	fired, failed := ruleNames(res.Fired), ruleNames(res.Failed)
	metrics.RecordPass(leader, fired, failed)
	metrics.SetBlocked(sink.Namespace, sink.Name, report.Blocked())
	r.Statuses.Publish(status.SinkStatus{
		Namespace:  sink.Namespace,
		Name:       sink.Name,
		Connector:  target,
		Report:     report,
		Leader:     leader,
		Flags:      flagValues(working.Status.Conditions),
		Fired:      fired,
		Failed:     failed,
		ObservedAt: time.Now().UTC(),
	})
	logger.V(1).Info("pass complete", "leader", leader, "fired", fired, "failed", failed, "phase", report.Phase)

	if !leader {
		return ctrl.Result{RequeueAfter: r.ResyncPeriod}, nil
	}

	if recorder.Changed() {
		eventType := corev1.EventTypeNormal
		if report.Blocked() {
			eventType = corev1.EventTypeWarning
		}
		r.Recorder.Event(&sink, eventType, string(report.Phase), report.Message)
	}

	working.Status.ConnectorName = target
	working.Status.ObservedConfig = cfg.Values()
	working.Status.ObservedGeneration = sink.Generation
	if !equality.Semantic.DeepEqual(sink.Status, working.Status) {
		if err := r.Status().Update(ctx, working); err != nil {
			return ctrl.Result{}, fmt.Errorf("update status: %w", err)
		}
	}

	return ctrl.Result{RequeueAfter: r.ResyncPeriod}, nil
}

// endpointFor returns nil while the referenced Secret is missing or incomplete.
func (r *InfluxDBSinkReconciler) endpointFor(ctx context.Context, sink *v1alpha1.InfluxDBSink) (*reconcile.Endpoint, error) {
	name := sink.Spec.InfluxDB.SecretName
	if name == "" {
		return nil, nil
	}
	var secret corev1.Secret
	if err := r.Get(ctx, types.NamespacedName{Namespace: sink.Namespace, Name: name}, &secret); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get influxdb secret %s: %w", name, err)
	}
	return endpointFromSecret(&secret), nil
}

func endpointFromSecret(secret *corev1.Secret) *reconcile.Endpoint {
	value := func(key string) string { return strings.TrimSpace(string(secret.Data[key])) }
	ep := reconcile.Endpoint{
		Hostname: value(secretHostnameKey),
		Port:     value(secretPortKey),
		Username: value(secretUsernameKey),
		Password: string(secret.Data[secretPasswordKey]),
	}
	if ep.Hostname == "" || ep.Port == "" {
		return nil
	}
	return &ep
}

func (r *InfluxDBSinkReconciler) workerConfigMapFor(ctx context.Context, sink *v1alpha1.InfluxDBSink) (*corev1.ConfigMap, error) {
	name := sink.Spec.Worker.ConfigMapName
	if name == "" {
		return nil, nil
	}
	var cm corev1.ConfigMap
	if err := r.Get(ctx, types.NamespacedName{Namespace: sink.Namespace, Name: name}, &cm); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get worker configmap %s: %w", name, err)
	}
	return &cm, nil
}

// sinksReferencing maps a Secret or ConfigMap to the sinks in its namespace that name it.
func (r *InfluxDBSinkReconciler) sinksReferencing(field string) handler.MapFunc {
	return func(ctx context.Context, obj client.Object) []ctrlreconcile.Request {
		var sinks v1alpha1.InfluxDBSinkList
		if err := r.List(ctx, &sinks, client.InNamespace(obj.GetNamespace()), client.MatchingFields{field: obj.GetName()}); err != nil {
			log.FromContext(ctx).Error(err, "list sinks for referenced object", "field", field, "object", client.ObjectKeyFromObject(obj))
			return nil
		}
		requests := make([]ctrlreconcile.Request, 0, len(sinks.Items))
		for i := range sinks.Items {
			requests = append(requests, ctrlreconcile.Request{NamespacedName: client.ObjectKeyFromObject(&sinks.Items[i])})
		}
		return requests
	}
}

func indexSecretName(obj client.Object) []string {
	sink, ok := obj.(*v1alpha1.InfluxDBSink)
	if !ok || sink.Spec.InfluxDB.SecretName == "" {
		return nil
	}
	return []string{sink.Spec.InfluxDB.SecretName}
}

func indexConfigMapName(obj client.Object) []string {
	sink, ok := obj.(*v1alpha1.InfluxDBSink)
	if !ok || sink.Spec.Worker.ConfigMapName == "" {
		return nil
	}
	return []string{sink.Spec.Worker.ConfigMapName}
}

func ruleNames(ids []reconcile.RuleID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func flagValues(conds []metav1.Condition) map[string]bool {
	out := make(map[string]bool, len(conds))
	for _, c := range conds {
		if c.Type == string(v1alpha1.ConditionReady) {
			continue
		}
		out[c.Type] = c.Status == metav1.ConditionTrue
	}
	return out
}
