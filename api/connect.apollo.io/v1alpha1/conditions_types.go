package v1alpha1

// ConditionType represents a typed condition name used on status conditions.
type ConditionType string

const (
	// Observed: re-derived from the cluster at the start of every pass.
	ConditionDependencyAvailable ConditionType = "DependencyAvailable"
	ConditionWorkerReady         ConditionType = "WorkerReady"
	ConditionWorkerRunning       ConditionType = "WorkerRunning"
	ConditionTopicsCreated       ConditionType = "TopicsCreated"
	ConditionLeadershipHeld      ConditionType = "LeadershipHeld"
	ConditionDatabaseSet         ConditionType = "DatabaseSet"
	ConditionKCQLSet             ConditionType = "KCQLSet"
	ConditionMaxTasksSet         ConditionType = "MaxTasksSet"
	ConditionTopicsSet           ConditionType = "TopicsSet"

	// Derived: recorded by the controller after its own actions succeed.
	ConditionConfigured ConditionType = "Configured"
	ConditionRunning    ConditionType = "Running"
	ConditionStopped    ConditionType = "Stopped"

	// Ready carries the last Blocked/Active report.
	ConditionReady ConditionType = "Ready"
)
