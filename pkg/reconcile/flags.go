package reconcile

import (
	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
)

// Flags is the condition store a pass reads and updates.
// conditions.Store implements it over persisted status conditions.
type Flags interface {
	IsSet(flag v1alpha1.ConditionType) bool
	Set(flag v1alpha1.ConditionType)
	Clear(flag v1alpha1.ConditionType)
}

// observedFlags are re-derived from collaborators at the start of every pass.
var observedFlags = []v1alpha1.ConditionType{
	v1alpha1.ConditionDependencyAvailable,
	v1alpha1.ConditionWorkerReady,
	v1alpha1.ConditionWorkerRunning,
	v1alpha1.ConditionTopicsCreated,
	v1alpha1.ConditionLeadershipHeld,
	v1alpha1.ConditionDatabaseSet,
	v1alpha1.ConditionKCQLSet,
	v1alpha1.ConditionMaxTasksSet,
	v1alpha1.ConditionTopicsSet,
}

// derivedFlags record the controller's own completed actions and persist across restarts.
var derivedFlags = []v1alpha1.ConditionType{
	v1alpha1.ConditionConfigured,
	v1alpha1.ConditionRunning,
	v1alpha1.ConditionStopped,
}

// FlagSet is an in-memory Flags implementation.
type FlagSet map[v1alpha1.ConditionType]bool

// NewFlagSet returns a set with the given flags set.
func NewFlagSet(set ...v1alpha1.ConditionType) FlagSet {
	fs := FlagSet{}
	for _, f := range set {
		fs[f] = true
	}
	return fs
}

func (fs FlagSet) IsSet(flag v1alpha1.ConditionType) bool { return fs[flag] }
func (fs FlagSet) Set(flag v1alpha1.ConditionType) { fs[flag] = true }
func (fs FlagSet) Clear(flag v1alpha1.ConditionType) { delete(fs, flag) }

// snapshot copies every known flag of f.
func snapshot(f Flags) FlagSet {
	fs := FlagSet{}
	for _, flag := range observedFlags {
		if f.IsSet(flag) {
			fs[flag] = true
		}
	}
	for _, flag := range derivedFlags {
		if f.IsSet(flag) {
			fs[flag] = true
		}
	}
	return fs
}

func setTo(f Flags, flag v1alpha1.ConditionType, value bool) {
	if value {
		f.Set(flag)
		return
	}
	f.Clear(flag)
}
