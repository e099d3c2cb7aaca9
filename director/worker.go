package director

import (
	"context"
	"time"

	"github.com/bareos-community/dirjobq/jcr"
	"github.com/bareos-community/dirjobq/scope"
)

// starvationNap is how long a worker backs off after a pass that left
// work on waiting but admitted nothing, per §4.C step 6, so a
// persistently denied resource doesn't spin the queue mutex.
const starvationNap = 2 * time.Second

// workWaitTimeout bounds the worker's wait on the work condition
// before it re-checks for due promotions and the idle/quit conditions.
const workWaitTimeout = 4 * time.Second

// worker is the pool's loop body, one goroutine per live worker,
// running §4.C's six steps until it decides to exit. ensure_worker
// increments numWorkers before starting this goroutine; every exit
// path here must decrement it and broadcast so Destroy's drain wait
// and any other idle worker can observe the change.
func (d *Director) worker() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		timedOut := false
		if d.ready.Len() == 0 && d.waiting.Len() == 0 && !d.quitting {
			timedOut = d.waitWork(workWaitTimeout)
		}

		d.drainReady()

		admitted := 0
		if !d.quitting {
			admitted = d.promoteWaiting()
		}
		d.mu.Unlock()
		d.drainPendingEmits()
		d.mu.Lock()

		if d.quitting && d.ready.Len() == 0 {
			d.numWorkers--
			d.gaugeNumWorkers(-1)
			d.work.Broadcast()
			return
		}

		if d.ready.Len() == 0 && timedOut {
			d.numWorkers--
			d.gaugeNumWorkers(-1)
			d.work.Broadcast()
			return
		}

		if !d.quitting && d.waiting.Len() > 0 && admitted == 0 {
			d.mu.Unlock()
			time.Sleep(starvationNap)
			d.mu.Lock()
		}
	}
}

// waitWork waits on d.work for at most timeout, reporting whether the
// wait ended by timing out rather than by a real Broadcast. Must be
// called with mu held; returns with mu held.
func (d *Director) waitWork(timeout time.Duration) (timedOut bool) {
	done := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		d.mu.Lock()
		close(done)
		d.work.Broadcast()
		d.mu.Unlock()
	})
	defer timer.Stop()

	d.work.Wait()

	select {
	case <-done:
		return true
	default:
		return false
	}
}

// drainReady runs step 2 of §4.C: pop every job off ready, release mu
// while engine_fn runs, then reacquire it to account for the result.
// Must be called with mu held; returns with mu held.
func (d *Director) drainReady() {
	for d.ready.Len() > 0 {
		e := d.ready.Front()
		j := e.Value.(*jcr.JCR)
		d.ready.Remove(e)
		j.Status = jcr.StatusRunning
		re := d.running.PushBack(j)
		d.members[j.ID] = membership{d.running, re}
		d.gaugeQueueDepth("ready", -1)
		d.gaugeQueueDepth("running", 1)
		j.IncUseCount()

		d.mu.Unlock()
		d.runEngine(j)
		d.mu.Lock()

		d.running.Remove(re)
		delete(d.members, j.ID)
		d.gaugeQueueDepth("running", -1)
		d.releasePermits(j)

		mode, clone := d.decideReschedule(j)

		d.mu.Unlock()
		switch mode {
		case dispositionInPlace:
			d.emitRescheduled(j, nil)
			_ = d.Submit(j)
		case dispositionClone:
			d.emitRescheduled(j, clone)
			_ = d.Submit(clone)
			j.MarkDone()
		default:
			d.emitTerminated(j)
			j.MarkDone()
		}
		j.DecUseCount()
		d.mu.Lock()
	}
}

// runEngine invokes engine_fn with j bound into ctx, exactly as §6
// describes bind_jcr_to_thread/unbind_jcr_from_thread. Called with mu
// released.
func (d *Director) runEngine(j *jcr.JCR) {
	ctx := scope.Bind(context.Background(), j)
	d.engineFn(ctx, j)
}
