package director

import (
	"container/list"

	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
	"github.com/bareos-community/dirjobq/registry"
)

// permitSpec is one of the four resources the second admission stage
// acquires, in the fixed order §4.D requires: read-storage,
// write-storage, client, job-definition.
type permitSpec struct {
	kind       registry.Kind
	resource   id.ID
	ignore     bool
	failStatus jcr.Status
}

func (d *Director) permitSpecs(j *jcr.JCR) []permitSpec {
	return []permitSpec{
		{registry.KindReadStorage, j.ReadStorage, j.IgnoreStorageConcurrency, jcr.StatusWaitStoreRes},
		{registry.KindWriteStorage, j.WriteStorage, j.IgnoreStorageConcurrency, jcr.StatusWaitStoreRes},
		{registry.KindClient, j.Client, j.IgnoreClientConcurrency, jcr.StatusWaitClientRes},
		{registry.KindJobDef, j.JobDefID, false, jcr.StatusWaitJobRes},
	}
}

// tryAcquirePermits runs stage 2 of the admission controller (§4.D): it
// attempts all four permits in the fixed order above, and rolls back
// every permit already acquired (in reverse order) the moment one
// fails, so admission is all-or-nothing. On failure it sets j.Status to
// the failing resource class's wait status and returns the resource
// name for the starved hook/telemetry.
func (d *Director) tryAcquirePermits(j *jcr.JCR) (starvedResource string, ok bool) {
	specs := d.permitSpecs(j)
	acquired := make([]permitSpec, 0, len(specs))

	for _, p := range specs {
		if p.ignore || p.resource.IsNil() {
			continue
		}
		if d.registry.TryInc(p.kind, p.resource) {
			acquired = append(acquired, p)
			d.gaugeResourceInUse(p.kind.String(), 1)
			continue
		}
		for i := len(acquired) - 1; i >= 0; i-- {
			d.registry.Dec(acquired[i].kind, acquired[i].resource)
			d.gaugeResourceInUse(acquired[i].kind.String(), -1)
		}
		j.Status = p.failStatus
		return p.kind.String(), false
	}

	j.AcquiredLocks = true
	return "", true
}

// releasePermits undoes every permit j holds. Called once a job leaves
// running, before the reschedule engine decides its disposition.
func (d *Director) releasePermits(j *jcr.JCR) {
	if !j.AcquiredLocks {
		return
	}
	for _, p := range d.permitSpecs(j) {
		if p.ignore || p.resource.IsNil() {
			continue
		}
		d.registry.Dec(p.kind, p.resource)
		d.gaugeResourceInUse(p.kind.String(), -1)
	}
	j.AcquiredLocks = false
}

// allRunningAllowMixedPriority reports whether every job currently on
// running has AllowMixedPriority set on its job definition, the
// condition stage 1 requires before admitting a job whose priority
// differs from the running cohort's (§4.D stage 1).
func (d *Director) allRunningAllowMixedPriority() bool {
	for e := d.running.Front(); e != nil; e = e.Next() {
		cand := e.Value.(*jcr.JCR)
		def, ok := d.catalog.Definition(cand.JobDefID)
		if !ok || !def.AllowMixedPriority {
			return false
		}
	}
	return true
}

// promoteWaiting runs the admission controller's full two-stage pass
// over the waiting list: cohort selection (stage 1), then, for each
// candidate in the cohort, permit acquisition (stage 2). Must be called
// with mu held and only when !d.quitting. Returns the number of jobs
// moved onto ready.
func (d *Director) promoteWaiting() int {
	if d.waiting.Len() == 0 {
		return 0
	}

	var cohortPriority uint
	if d.running.Len() > 0 {
		cohortPriority = d.running.Front().Value.(*jcr.JCR).Priority
	} else {
		cohortPriority = d.waiting.Front().Value.(*jcr.JCR).Priority
	}

	admitted := 0
	for e := d.waiting.Front(); e != nil; {
		next := e.Next()
		cand := e.Value.(*jcr.JCR)

		if cand.Priority > cohortPriority {
			break
		}
		if cand.Priority < cohortPriority && !d.allRunningAllowMixedPriority() {
			cand.Status = jcr.StatusWaitPriority
			break
		}

		if cand.Canceled() {
			d.moveWaitingToReady(e, jcr.StatusCanceled)
			admitted++
			e = next
			continue
		}

		resource, ok := d.tryAcquirePermits(cand)
		if !ok {
			d.emitStarvedAsync(cand, resource)
			e = next
			continue
		}

		d.moveWaitingToReady(e, jcr.StatusReady)
		admitted++
		d.emitAdmittedAsync(cand)
		e = next
	}
	return admitted
}

// moveWaitingToReady removes e from waiting, sets status, and appends
// the jcr to the back of ready, updating membership. Must be called
// with mu held.
func (d *Director) moveWaitingToReady(e *list.Element, status jcr.Status) {
	j := e.Value.(*jcr.JCR)
	d.waiting.Remove(e)
	j.Status = status
	re := d.ready.PushBack(j)
	d.members[j.ID] = membership{d.ready, re}
	d.gaugeQueueDepth("waiting", -1)
	d.gaugeQueueDepth("ready", 1)
	d.ensureWorkerLocked()
}

// emitStarvedAsync and emitAdmittedAsync queue a hook emission to run
// once the caller releases mu; promoteWaiting runs under the queue
// mutex and must not call into hook code (which may log or block)
// while holding it. The worker loop drains pending emissions after
// each promotion pass.
func (d *Director) emitStarvedAsync(j *jcr.JCR, resource string) {
	d.pendingEmits = append(d.pendingEmits, func() { d.emitStarved(j, resource) })
}

func (d *Director) emitAdmittedAsync(j *jcr.JCR) {
	d.pendingEmits = append(d.pendingEmits, func() { d.emitAdmitted(j) })
}
