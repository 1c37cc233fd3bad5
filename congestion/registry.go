package congestion

import (
	"sort"
	"sync"
)

// Registry holds the most recently loaded Dataset per queue policy label.
// It is safe for concurrent use. Datasets are immutable, so readers need no
// locking once they hold one.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]*Dataset)}
}

// Put stores d under its label and returns the Dataset it replaced, if any.
func (r *Registry) Put(d *Dataset) (previous *Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous = r.datasets[d.Label()]
	r.datasets[d.Label()] = d
	return previous
}

// Get returns the Dataset registered under label.
func (r *Registry) Get(label string) (*Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.datasets[label]
	return d, ok
}

// Labels returns the registered labels, sorted.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := make([]string, 0, len(r.datasets))
	for label := range r.datasets {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.datasets)
}
