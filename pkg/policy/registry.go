package policy

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a process-wide, name-keyed mapping of policies. It is
// populated at daemon startup and consulted on config reload. There is no
// concurrent mutation expected after startup, but Registry still guards its
// map with a RWMutex so concurrent readers (status endpoints, reload races)
// are safe by construction rather than by convention.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Register adds p to the registry under p.Name(). It is an error to
// register a nil policy or to reuse a name already present.
func (r *Registry) Register(p Policy) error {
	if p == nil {
		return ErrNilPolicy
	}
	name := p.Name()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.policies[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	r.policies[name] = p
	return nil
}

// Lookup returns the policy registered under name, or ErrUnknownPolicy.
func (r *Registry) Lookup(name string) (Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return p, nil
}

// Names returns the registered policy names, sorted for deterministic
// output (e.g. in --help text or a status report).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the lazily-initialized, process-wide registry
// pre-seeded with the four built-in policies. Repeated calls return the
// same instance.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, p := range []Policy{
			NewTimestamp(),
			NewGreedy(),
			NewCostBenefit(),
			NewSegregation(),
		} {
			// Built-ins never collide on name; a panic here would be a
			// programming bug in this package, not a runtime condition
			// callers need to handle.
			if err := defaultRegistry.Register(p); err != nil {
				panic(err)
			}
		}
	})
	return defaultRegistry
}
