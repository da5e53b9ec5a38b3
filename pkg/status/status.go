// Package status projects reconciliation passes onto a single Blocked/Active report.
package status

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
	"github.com/apollo/influxsink/pkg/conditions"
)

// Phase is the coarse health signal.
type Phase string

const (
	PhaseUnknown Phase = ""
	PhaseBlocked Phase = "Blocked"
	PhaseActive  Phase = "Active"
)

// Report is the externally visible state of a sink.
type Report struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// Blocked reports whether the sink is waiting or failing.
func (r Report) Blocked() bool { return r.Phase == PhaseBlocked }

// Recorder keeps the last report of a pass. It starts from the previous report so
// a pass that reports nothing leaves it unchanged.
type Recorder struct {
	previous Report
	current  Report
}

// NewRecorder starts from the previously published report.
func NewRecorder(previous Report) *Recorder {
	return &Recorder{previous: previous, current: previous}
}

func (r *Recorder) Blocked(reason string) {
	r.current = Report{Phase: PhaseBlocked, Message: reason}
}

func (r *Recorder) Active(message string) {
	r.current = Report{Phase: PhaseActive, Message: message}
}

// Report returns the last report written.
func (r *Recorder) Report() Report { return r.current }

// Changed reports whether the pass changed the visible report.
func (r *Recorder) Changed() bool { return r.current != r.previous }

// FromConditions reads the report stored in the Ready condition.
func FromConditions(conds []metav1.Condition) Report {
	c := conditions.FindCondition(conds, v1alpha1.ConditionReady)
	if c == nil {
		return Report{}
	}
	switch c.Status {
	case metav1.ConditionTrue:
		return Report{Phase: PhaseActive, Message: c.Message}
	case metav1.ConditionFalse:
		return Report{Phase: PhaseBlocked, Message: c.Message}
	default:
		return Report{}
	}
}

// Apply stores rep in the Ready condition. An unknown phase leaves conditions untouched.
func Apply(conds *[]metav1.Condition, rep Report) {
	switch rep.Phase {
	case PhaseActive:
		conditions.MarkTrue(conds, v1alpha1.ConditionReady, string(PhaseActive), rep.Message)
	case PhaseBlocked:
		conditions.MarkFalse(conds, v1alpha1.ConditionReady, string(PhaseBlocked), rep.Message)
	}
}
