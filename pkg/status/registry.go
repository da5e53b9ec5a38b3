package status

import (
	"sort"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/types"
)

// SinkStatus is the replica-local view of one sink after its last pass.
type SinkStatus struct {
	Namespace  string          `json:"namespace"`
	Name       string          `json:"name"`
	Connector  string          `json:"connector"`
	Report     Report          `json:"report"`
	Leader     bool            `json:"leader"`
	Flags      map[string]bool `json:"flags,omitempty"`
	Fired      []string        `json:"fired,omitempty"`
	Failed     []string        `json:"failed,omitempty"`
	ObservedAt time.Time       `json:"observedAt"`
}

// Key returns the namespaced name of the sink.
func (s SinkStatus) Key() types.NamespacedName {
	return types.NamespacedName{Namespace: s.Namespace, Name: s.Name}
}

// Registry holds the latest SinkStatus per sink. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	sinks map[types.NamespacedName]SinkStatus
}

func NewRegistry() *Registry {
	return &Registry{sinks: map[types.NamespacedName]SinkStatus{}}
}

// Publish replaces the stored status for the sink.
func (r *Registry) Publish(s SinkStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[s.Key()] = s
}

// Forget drops a deleted sink.
func (r *Registry) Forget(key types.NamespacedName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, key)
}

// Get returns the stored status for the sink.
func (r *Registry) Get(key types.NamespacedName) (SinkStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[key]
	return s, ok
}

// List returns every stored status ordered by namespace and name.
func (r *Registry) List() []SinkStatus {
	r.mu.RLock()
	out := make([]SinkStatus, 0, len(r.sinks))
	for _, s := range r.sinks {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Name < out[j].Name
	})
	return out
}
