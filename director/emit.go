package director

import (
	"context"

	"github.com/bareos-community/dirjobq/jcr"
)

// emitSubmitted, emitAdmitted, emitStarved, emitRescheduled, and
// emitTerminated are nil-safe wrappers around the optional hooks
// registry, called with the queue mutex released (hooks may log or do
// other work that should never be able to stall the worker loop).
func (d *Director) emitSubmitted(j *jcr.JCR) {
	if d.hooks == nil {
		return
	}
	d.hooks.EmitSubmitted(context.Background(), j)
}

func (d *Director) emitAdmitted(j *jcr.JCR) {
	if d.hooks == nil {
		return
	}
	d.hooks.EmitAdmitted(context.Background(), j)
}

func (d *Director) emitStarved(j *jcr.JCR, resource string) {
	if d.hooks == nil {
		return
	}
	d.hooks.EmitStarved(context.Background(), j, resource)
}

func (d *Director) emitRescheduled(j, clone *jcr.JCR) {
	if d.hooks == nil {
		return
	}
	d.hooks.EmitRescheduled(context.Background(), j, clone)
}

func (d *Director) emitTerminated(j *jcr.JCR) {
	if d.hooks == nil {
		return
	}
	d.hooks.EmitTerminated(context.Background(), j)
}

// drainPendingEmits runs and clears any hook emissions queued by code
// that ran under mu (promoteWaiting's starved/admitted notifications).
// Must be called with mu released.
func (d *Director) drainPendingEmits() {
	d.mu.Lock()
	pending := d.pendingEmits
	d.pendingEmits = nil
	d.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}
