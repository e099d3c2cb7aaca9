// Package hooks defines the typed lifecycle hook registry. A director
// notifies registered hooks as a jcr moves through submission,
// admission, starvation, reschedule, and termination; this is the home
// for the message logging transport named as an external collaborator
// in §6 — a concrete sink (audit_hook, telemetry, or a caller's own
// implementation) plugs in here rather than being owned by the core.
//
// Each lifecycle event is its own interface so a hook opts in only to
// the events it cares about, in the style of the extension system this
// package is adapted from.
package hooks

import (
	"context"

	"github.com/bareos-community/dirjobq/jcr"
)

// Hook is the base interface every registered hook implements.
type Hook interface {
	// Name returns a unique human-readable name for the hook, used in
	// warning logs when the hook itself errors.
	Name() string
}

// Submitted is called after submit() has placed a jcr onto waiting or
// ready. A jcr with a future start time is reported when its
// Scheduled-Start Waiter hands it to the queue, not when the waiter is
// spawned.
type Submitted interface {
	OnSubmitted(ctx context.Context, j *jcr.JCR) error
}

// Admitted is called when the admission controller grants all required
// permits and moves a jcr from waiting to ready.
type Admitted interface {
	OnAdmitted(ctx context.Context, j *jcr.JCR) error
}

// Starved is called when a promotion pass leaves a waiting candidate
// behind because one of its four permits is unavailable.
type Starved interface {
	OnStarved(ctx context.Context, j *jcr.JCR, resource string) error
}

// Rescheduled is called when the reschedule engine requeues a
// terminated jcr instead of freeing it. clone is nil for an in-place
// reschedule and non-nil when the original produced bytes and a fresh
// jcr carries the retry instead.
type Rescheduled interface {
	OnRescheduled(ctx context.Context, j *jcr.JCR, clone *jcr.JCR) error
}

// Terminated is called when a jcr reaches a terminal status and is not
// being requeued.
type Terminated interface {
	OnTerminated(ctx context.Context, j *jcr.JCR) error
}
