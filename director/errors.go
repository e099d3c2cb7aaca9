package director

import "errors"

// Sentinel errors returned by the public operations. §7's error taxonomy
// also names ResourceUnavailable and InvariantViolation; neither has a
// sentinel here, since both are internal bug/contention classes with no
// caller left to hand them to: ResourceUnavailable is a transient
// starved-resource state the admission controller already expresses as
// jcr.Status, and InvariantViolation is logged by registry.Dec itself
// when a counter goes negative, not returned up the stack.
var (
	// ErrNotInitialized is returned by any operation performed after
	// Destroy or before New has completed.
	ErrNotInitialized = errors.New("director: not initialized")

	// ErrAlreadyQueued is returned by Submit when the jcr is already
	// present on one of the three lists.
	ErrAlreadyQueued = errors.New("director: jcr already queued")

	// ErrNotFound is returned by Remove when the jcr is not sitting on
	// the waiting list (Remove only ever acts on waiting, per §4.B).
	ErrNotFound = errors.New("director: jcr not in waiting")

	// ErrOutOfMemory and ErrThreadSpawnFailed complete §7's taxonomy for
	// API consumers that branch on them, but Go's allocator panics
	// instead of returning an error and goroutine creation does not fail
	// the way a fixed-size C worker pool's pthread_create can — so
	// ensure_worker always succeeds and neither sentinel is ever
	// returned by this package today.
	ErrOutOfMemory       = errors.New("director: out of memory")
	ErrThreadSpawnFailed = errors.New("director: worker spawn failed")
)
