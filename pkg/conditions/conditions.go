package conditions

import (
	"time"

	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// FindCondition returns the first condition with the given type.
func FindCondition(conditions []metav1.Condition, conditionType v1alpha1.ConditionType) *metav1.Condition {
	for i := range conditions {
		if conditions[i].Type == string(conditionType) {
			return &conditions[i]
		}
	}
	return nil
}

// IsTrue reports whether the condition exists with status True.
func IsTrue(conditions []metav1.Condition, conditionType v1alpha1.ConditionType) bool {
	c := FindCondition(conditions, conditionType)
	return c != nil && c.Status == metav1.ConditionTrue
}

// SetCondition adds or updates a condition ensuring LastTransitionTime only changes when status does.
func SetCondition(conditions *[]metav1.Condition, condition metav1.Condition) {
	now := metav1.NewTime(time.Now())
	condition.LastTransitionTime = now

	for i := range *conditions {
		existing := &(*conditions)[i]
		if existing.Type != condition.Type {
			continue
		}

		// Preserve the transition time if status is unchanged.
		if existing.Status == condition.Status {
			condition.LastTransitionTime = existing.LastTransitionTime
		}
		*existing = condition
		return
	}

	*conditions = append(*conditions, condition)
}

// MarkTrue sets the given condition type to True with the provided reason/message.
func MarkTrue(conditions *[]metav1.Condition, conditionType v1alpha1.ConditionType, reason, message string) {
	SetCondition(conditions, metav1.Condition{
		Type:    string(conditionType),
		Status:  metav1.ConditionTrue,
		Reason:  reason,
		Message: message,
	})
}

// MarkFalse sets the given condition type to False with the provided reason/message.
func MarkFalse(conditions *[]metav1.Condition, conditionType v1alpha1.ConditionType, reason, message string) {
	SetCondition(conditions, metav1.Condition{
		Type:    string(conditionType),
		Status:  metav1.ConditionFalse,
		Reason:  reason,
		Message: message,
	})
}

// Store exposes a condition slice as a set of named boolean flags.
// A flag is set when its condition is True; False and absent both read as unset.
type Store struct {
	conditions *[]metav1.Condition
}

// NewStore wraps the slice in place; mutations are visible to the owner of the slice.
func NewStore(conditions *[]metav1.Condition) *Store {
	return &Store{conditions: conditions}
}

// IsSet reports whether the flag is set.
func (s *Store) IsSet(flag v1alpha1.ConditionType) bool {
	return IsTrue(*s.conditions, flag)
}

// Set marks the flag True.
func (s *Store) Set(flag v1alpha1.ConditionType) {
	MarkTrue(s.conditions, flag, string(flag), "")
}

// Clear marks the flag False. The condition is kept so the transition stays visible.
func (s *Store) Clear(flag v1alpha1.ConditionType) {
	MarkFalse(s.conditions, flag, "Not"+string(flag), "")
}
