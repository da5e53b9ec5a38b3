package reconcile

import (
	"context"

	"github.com/go-logr/logr"

	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
	"github.com/apollo/influxsink/pkg/connect"
)

// DatabaseCreator creates the InfluxDB database if it is missing.
type DatabaseCreator interface {
	EnsureDatabase(ctx context.Context, name, host, port string) error
}

// ConnectorRegistry registers and removes connectors on the Kafka Connect worker.
type ConnectorRegistry interface {
	Register(ctx context.Context, baseURL, name string, config map[string]string) (connect.RegisterOutcome, error)
	Unregister(ctx context.Context, baseURL, name string) error
}

// WorkerConfigurer hands the worker configuration to the base layer and requests an install.
type WorkerConfigurer interface {
	SetWorkerConfig(ctx context.Context, config map[string]string) error
}

// Reporter receives status reports. Only the last report of a pass is visible.
type Reporter interface {
	Blocked(reason string)
	Active(message string)
}

// Inputs is what the collaborators report for one pass.
type Inputs struct {
	Config  DesiredConfig
	Changed []ConfigKey
	// Endpoint is nil while the InfluxDB dependency is unavailable.
	Endpoint *Endpoint
	Worker   WorkerState
	Leader   bool
}

// Result lists the rules that fired and the subset whose action failed.
type Result struct {
	Fired  []RuleID
	Failed []RuleID
}

// Pass runs the rules against one reconciliation target.
type Pass struct {
	Target         string
	ConnectURL     string
	ConnectorClass string

	Database   DatabaseCreator
	Connectors ConnectorRegistry
	Worker     WorkerConfigurer
	Reporter   Reporter
	Log        logr.Logger
}

// Observe sets the observed flags from in. Derived flags are left alone.
func Observe(f Flags, in Inputs) {
	setTo(f, v1alpha1.ConditionDependencyAvailable, in.Endpoint != nil)
	setTo(f, v1alpha1.ConditionWorkerReady, in.Worker.Ready)
	setTo(f, v1alpha1.ConditionWorkerRunning, in.Worker.Running)
	setTo(f, v1alpha1.ConditionTopicsCreated, in.Worker.Topics.Created())
	setTo(f, v1alpha1.ConditionLeadershipHeld, in.Leader)
	setTo(f, v1alpha1.ConditionDatabaseSet, in.Config.IsSet(KeyDatabase))
	setTo(f, v1alpha1.ConditionKCQLSet, in.Config.IsSet(KeyKCQL))
	setTo(f, v1alpha1.ConditionMaxTasksSet, in.Config.IsSet(KeyMaxTasks))
	setTo(f, v1alpha1.ConditionTopicsSet, in.Config.IsSet(KeyTopics))
}

// Run observes in, then evaluates every rule in order against the live flags.
// An action's post-update is committed before the next rule is checked.
// A failed action leaves its guard intact so a later pass retries it.
func (p *Pass) Run(ctx context.Context, f Flags, in Inputs) Result {
	Observe(f, in)

	var res Result
	for _, r := range rules {
		if !r.eligible(f) || !r.guard(f, in.Changed) {
			continue
		}
		res.Fired = append(res.Fired, r.id)
		p.Log.V(1).Info("rule fired", "rule", r.id)

		if !p.apply(ctx, r.id, in) {
			res.Failed = append(res.Failed, r.id)
			continue
		}
		if r.onSuccess != nil {
			r.onSuccess(f)
		}
	}
	return res
}

func (p *Pass) apply(ctx context.Context, id RuleID, in Inputs) bool {
	switch id {
	case RuleReportWaitingDependency:
		p.Reporter.Blocked(MsgWaitingDependency)
	case RuleReportWaitingConfig:
		if !in.Config.IsSet(KeyKCQL) {
			p.Reporter.Blocked(MsgWaitingKCQL)
		}
		if !in.Config.IsSet(KeyDatabase) {
			p.Reporter.Blocked(MsgWaitingDatabase)
		}
	case RuleReportReady:
		p.Reporter.Active(MsgReady)
	case RuleConfigureWorker:
		return p.configureWorker(ctx, in)
	case RuleStartConnector:
		return p.startConnector(ctx, in)
	case RuleStopOnDependencyLoss:
		return p.stopConnector(ctx)
	}
	return true
}

func (p *Pass) configureWorker(ctx context.Context, in Inputs) bool {
	if err := p.Worker.SetWorkerConfig(ctx, WorkerConfig(in.Worker.Topics)); err != nil {
		p.Log.Error(err, "unable to hand worker config to base layer")
		return false
	}
	p.Log.Info("worker configured", "configTopic", in.Worker.Topics.Config)
	return true
}

func (p *Pass) startConnector(ctx context.Context, in Inputs) bool {
	ep := *in.Endpoint
	// A database that cannot be created is not fatal; the connector reports its own write errors.
	if err := p.Database.EnsureDatabase(ctx, in.Config.Database, ep.Hostname, ep.Port); err != nil {
		p.Log.Error(err, "unable to create database", "database", in.Config.Database, "host", ep.Hostname)
		p.Reporter.Blocked(MsgDatabaseFailed)
	}

	payload := RegistrationPayload(p.ConnectorClass, in.Config, ep)
	outcome, err := p.Connectors.Register(ctx, p.ConnectURL, p.Target, payload)
	if err != nil || !outcome.Succeeded() {
		p.Log.Error(err, "could not register/update connector", "connector", p.Target, "outcome", outcome.String())
		p.Reporter.Blocked(MsgRegisterFailed)
		return false
	}

	p.Log.Info("connector registered", "connector", p.Target, "outcome", outcome.String())
	p.Reporter.Active(MsgReady)
	return true
}

func (p *Pass) stopConnector(ctx context.Context) bool {
	if err := p.Connectors.Unregister(ctx, p.ConnectURL, p.Target); err != nil {
		p.Log.Error(err, "could not unregister connector", "connector", p.Target)
		p.Reporter.Blocked(MsgUnregisterFailed)
		return false
	}
	p.Log.Info("connector unregistered", "connector", p.Target)
	return true
}
