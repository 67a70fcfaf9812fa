package breaker

import (
	"sync"
	"time"
)

// Registry owns one Breaker per named dependency, created lazily from a
// per-name config map (mirroring the teacher's registry/manager.go
// get-or-create-by-name pattern used for toolset registries, applied here
// to breakers instead).
type Registry struct {
	mu       sync.Mutex
	configs  map[string]Config
	breakers map[string]*Breaker
}

func NewRegistry(configs map[string]Config) *Registry {
	return &Registry{
		configs:  configs,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for name, creating it from the configured (or a
// conservative default) Config on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	cfg, ok := r.configs[name]
	if !ok {
		cfg = Config{
			FailureThreshold:      5,
			SuccessThreshold:      2,
			RecoveryTimeout:       60 * time.Second,
			CallTimeout:           10 * time.Second,
			HalfOpenMaxConcurrent: 3,
		}
	}
	b := New(name, cfg)
	r.breakers[name] = b
	return b
}

// ResetAll forces every known breaker back to Closed.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.breakers {
		b.Reset()
	}
}

// HealthSummary returns a snapshot of every breaker created so far.
func (r *Registry) HealthSummary() map[string]Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Metrics, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.Health()
	}
	return out
}
