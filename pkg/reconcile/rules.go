package reconcile

import (
	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
)

// RuleID identifies a transition rule. Values are stable and used as metric labels.
type RuleID string

const (
	RuleReportWaitingDependency RuleID = "report-waiting-dependency"
	RuleReportWaitingConfig     RuleID = "report-waiting-config"
	RuleReportReady             RuleID = "report-ready"
	RuleInvalidateOnChange      RuleID = "invalidate-on-change"
	RuleConfigureWorker         RuleID = "configure-worker"
	RuleStartConnector          RuleID = "start-connector"
	RuleStopOnDependencyLoss    RuleID = "stop-on-dependency-loss"
	RuleStopOnWorkerLoss        RuleID = "stop-on-worker-loss"
)

// Status messages surfaced through the Reporter.
const (
	MsgWaitingDependency = "Waiting for influxdb relation"
	MsgWaitingKCQL       = "Waiting for KCQL statement."
	MsgWaitingDatabase   = "Waiting for database config."
	MsgReady             = "ready"
	MsgDatabaseFailed    = "Error creating InfluxDB database."
	MsgRegisterFailed    = "Could not register/update connector, retrying next pass."
	MsgUnregisterFailed  = "Could not unregister connector, retrying next pass."
)

// invalidatingKeys clear the running flag when they change.
var invalidatingKeys = map[ConfigKey]bool{
	KeyTopics:   true,
	KeyMaxTasks: true,
	KeyKCQL:     true,
	KeyDatabase: true,
}

type rule struct {
	id         RuleID
	leaderOnly bool
	guard      func(f Flags, changed []ConfigKey) bool
	// onSuccess is the post-update applied when the rule's action succeeds.
	// Rules without an action always succeed.
	onSuccess func(f Flags)
}

// rules is the fixed evaluation order.
var rules = []rule{
	{
		id: RuleReportWaitingDependency,
		guard: func(f Flags, _ []ConfigKey) bool {
			return !f.IsSet(v1alpha1.ConditionDependencyAvailable)
		},
	},
	{
		id: RuleReportWaitingConfig,
		guard: func(f Flags, _ []ConfigKey) bool {
			return !(f.IsSet(v1alpha1.ConditionKCQLSet) && f.IsSet(v1alpha1.ConditionDatabaseSet))
		},
	},
	{
		id: RuleReportReady,
		guard: func(f Flags, _ []ConfigKey) bool {
			return all(f,
				v1alpha1.ConditionWorkerReady,
				v1alpha1.ConditionDatabaseSet,
				v1alpha1.ConditionKCQLSet,
				v1alpha1.ConditionMaxTasksSet,
				v1alpha1.ConditionDependencyAvailable)
		},
	},
	{
		id:         RuleInvalidateOnChange,
		leaderOnly: true,
		guard: func(_ Flags, changed []ConfigKey) bool {
			for _, k := range changed {
				if invalidatingKeys[k] {
					return true
				}
			}
			return false
		},
		onSuccess: func(f Flags) {
			f.Clear(v1alpha1.ConditionRunning)
		},
	},
	{
		id:         RuleConfigureWorker,
		leaderOnly: true,
		guard: func(f Flags, _ []ConfigKey) bool {
			return all(f,
				v1alpha1.ConditionDependencyAvailable,
				v1alpha1.ConditionTopicsCreated,
				v1alpha1.ConditionLeadershipHeld) &&
				!f.IsSet(v1alpha1.ConditionConfigured)
		},
		onSuccess: func(f Flags) {
			f.Set(v1alpha1.ConditionConfigured)
		},
	},
	{
		id:         RuleStartConnector,
		leaderOnly: true,
		guard: func(f Flags, _ []ConfigKey) bool {
			return all(f,
				v1alpha1.ConditionDependencyAvailable,
				v1alpha1.ConditionKCQLSet,
				v1alpha1.ConditionDatabaseSet,
				v1alpha1.ConditionLeadershipHeld,
				v1alpha1.ConditionWorkerRunning) &&
				!f.IsSet(v1alpha1.ConditionRunning)
		},
		onSuccess: func(f Flags) {
			f.Clear(v1alpha1.ConditionStopped)
			f.Set(v1alpha1.ConditionRunning)
		},
	},
	{
		id:         RuleStopOnDependencyLoss,
		leaderOnly: true,
		guard: func(f Flags, _ []ConfigKey) bool {
			return all(f, v1alpha1.ConditionRunning, v1alpha1.ConditionLeadershipHeld) &&
				!f.IsSet(v1alpha1.ConditionDependencyAvailable) &&
				!f.IsSet(v1alpha1.ConditionStopped)
		},
		onSuccess: func(f Flags) {
			f.Set(v1alpha1.ConditionStopped)
			f.Clear(v1alpha1.ConditionRunning)
		},
	},
	{
		id:         RuleStopOnWorkerLoss,
		leaderOnly: true,
		guard: func(f Flags, _ []ConfigKey) bool {
			return f.IsSet(v1alpha1.ConditionRunning) && !f.IsSet(v1alpha1.ConditionWorkerRunning)
		},
		onSuccess: func(f Flags) {
			f.Clear(v1alpha1.ConditionRunning)
		},
	},
}

func all(f Flags, flags ...v1alpha1.ConditionType) bool {
	for _, flag := range flags {
		if !f.IsSet(flag) {
			return false
		}
	}
	return true
}

// eligible reports whether r may run at all given leadership.
func (r rule) eligible(f Flags) bool {
	return !r.leaderOnly || f.IsSet(v1alpha1.ConditionLeadershipHeld)
}

// Evaluate returns the rules that fire, in order, for the given flags and changed keys,
// assuming every action succeeds. flags is not modified.
func Evaluate(flags Flags, changed []ConfigKey) []RuleID {
	f := snapshot(flags)
	var fired []RuleID
	for _, r := range rules {
		if !r.eligible(f) || !r.guard(f, changed) {
			continue
		}
		fired = append(fired, r.id)
		if r.onSuccess != nil {
			r.onSuccess(f)
		}
	}
	return fired
}
