package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages notifier instances
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

// NewRegistry creates a new notifier registry
func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[string]Notifier),
	}
}

// Register adds a notifier to the registry
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, exists := r.notifiers[name]; exists {
		return fmt.Errorf("notifier %s already registered", name)
	}

	r.notifiers[name] = n
	return nil
}

// Get retrieves a notifier by name
func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, exists := r.notifiers[name]
	if !exists {
		return nil, fmt.Errorf("notifier %s not found", name)
	}
	return n, nil
}

// Names returns registered notifier names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Notify sends msg through the named notifiers. The result maps each
// failing notifier name to its error; unknown names are reported too.
func (r *Registry) Notify(ctx context.Context, names []string, msg Message) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errs := make(map[string]error)
	for _, name := range names {
		n, ok := r.notifiers[name]
		if !ok {
			errs[name] = fmt.Errorf("notifier %s not found", name)
			continue
		}
		if err := n.Send(ctx, msg); err != nil {
			errs[name] = err
		}
	}
	return errs
}

// NotifyAll sends msg to every registered notifier
func (r *Registry) NotifyAll(ctx context.Context, msg Message) map[string]error {
	return r.Notify(ctx, r.Names(), msg)
}
