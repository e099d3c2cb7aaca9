// Package registry implements the Concurrency Registry: a process-wide
// counter table keyed by resource identity, serialized by its own mutex
// distinct from the queue core's mutex (§4.E, §5). A director constructs
// one Registry and passes it in at queue construction time rather than
// reaching for a package-level singleton, so tests can run isolated
// queues side by side.
package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bareos-community/dirjobq/id"
)

// Kind names one of the four resource classes the admission controller
// acquires permits from.
type Kind int

const (
	KindClient Kind = iota
	KindJobDef
	KindReadStorage
	KindWriteStorage
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindJobDef:
		return "jobdef"
	case KindReadStorage:
		return "read-storage"
	case KindWriteStorage:
		return "write-storage"
	default:
		return "unknown"
	}
}

type key struct {
	kind Kind
	id   id.ID
}

type counter struct {
	n       int
	max     int
	numRead int // read-storage only, §4.E observability sub-counter
}

// Registry is the Concurrency Registry. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	counters map[key]*counter
	logger   *slog.Logger
}

// New creates an empty Registry. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		counters: make(map[key]*counter),
		logger:   logger,
	}
}

// SetMax declares (or redeclares) the maximum concurrent count for a
// resource. Resources default to max=0 (no capacity) until declared;
// callers populate limits from job-definition, client, and storage
// configuration (§6) before jobs referencing them can be admitted.
func (r *Registry) SetMax(kind Kind, resource id.ID, max int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind, resource}
	c, ok := r.counters[k]
	if !ok {
		c = &counter{}
		r.counters[k] = c
	}
	c.max = max
}

// TryInc attempts to acquire one permit for the resource. Returns true
// and increments n on success, false (leaving n unchanged) if n == max.
func (r *Registry) TryInc(kind Kind, resource id.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind, resource}
	c, ok := r.counters[k]
	if !ok || c.max <= 0 {
		return false
	}
	if c.n >= c.max {
		return false
	}
	c.n++
	if kind == KindReadStorage {
		c.numRead++
	}
	return true
}

// Dec releases one permit for the resource. A negative count after
// decrement indicates an InvariantViolation (a permit released twice,
// or released without having been acquired): logged fatal but not
// fatal to the process — the counter is informational, per §7.
func (r *Registry) Dec(kind Kind, resource id.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind, resource}
	c, ok := r.counters[k]
	if !ok {
		r.logger.Error("registry: dec on unknown resource",
			slog.String("kind", kind.String()), slog.String("resource", resource.String()))
		return
	}
	c.n--
	if kind == KindReadStorage {
		c.numRead--
	}
	if c.n < 0 {
		r.logger.Error(fmt.Sprintf("registry: invariant violation — n(%s:%s) went negative after Dec", kind, resource.String()),
			slog.Bool("fatal", true))
	}
	if kind == KindReadStorage && c.numRead < 0 {
		r.logger.Error(fmt.Sprintf("registry: invariant violation — numRead(%s) went negative after Dec", resource.String()),
			slog.Bool("fatal", true))
	}
}

// Count reports the current concurrent count and configured max for a
// resource, for diagnostics and tests (Testable Property 3/4).
func (r *Registry) Count(kind Kind, resource id.ID) (n, max int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind, resource}
	c, ok := r.counters[k]
	if !ok {
		return 0, 0
	}
	return c.n, c.max
}

// NumRead reports the read-storage sub-counter for a storage resource.
func (r *Registry) NumRead(resource id.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.counters[key{KindReadStorage, resource}]
	if !ok {
		return 0
	}
	return c.numRead
}
