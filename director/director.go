package director

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bareos-community/dirjobq/catalogcache"
	"github.com/bareos-community/dirjobq/hooks"
	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
	"github.com/bareos-community/dirjobq/registry"
	"github.com/bareos-community/dirjobq/telemetry"
)

// membership records which of the three lists a jcr currently sits on,
// so Submit's duplicate check and Remove's list lookup are O(1) instead
// of a linear scan of all three lists.
type membership struct {
	list *list.List
	elem *list.Element
}

// Director is the queue core: three intrusive lists (waiting, ready,
// running) under one mutex, plus the worker pool, admission controller,
// and reschedule engine that move jcrs between them. The zero value is
// not usable; construct with New.
type Director struct {
	mu   sync.Mutex
	work *sync.Cond

	waiting *list.List
	ready   *list.List
	running *list.List
	members map[id.JobID]membership

	valid      bool
	quitting   bool
	numWorkers int
	maxWorkers int

	engineFn        EngineFunc
	duplicateOracle DuplicateJobOracle
	newJCR          NewJCRFunc

	registry  *registry.Registry
	catalog   *catalogcache.Cache
	hooks     *hooks.Registry
	telemetry *telemetry.Hook
	logger    *slog.Logger

	// pendingEmits buffers hook emissions raised while mu is held
	// (e.g. inside promoteWaiting) so they run only after the caller
	// releases mu. Drained by drainPendingEmits.
	pendingEmits []func()

	waiters errgroup.Group
}

// New initializes a Director (§4.A's init): maxWorkers bounds the
// worker pool, engineFn is the external run entry point, reg and
// catalog back the admission controller's permits and job-definition
// lookups. Both reg and catalog must be non-nil.
func New(maxWorkers int, engineFn EngineFunc, reg *registry.Registry, catalog *catalogcache.Cache, opts ...Option) *Director {
	d := &Director{
		waiting:    list.New(),
		ready:      list.New(),
		running:    list.New(),
		members:    make(map[id.JobID]membership),
		valid:      true,
		maxWorkers: maxWorkers,
		engineFn:   engineFn,
		registry:   reg,
		catalog:    catalog,
		logger:     slog.Default(),
		newJCR:     func() *jcr.JCR { return jcr.New(id.NewJobID(), "", jcr.TypeBackup) },
	}
	d.work = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	if d.duplicateOracle == nil {
		d.duplicateOracle = catalogcache.NewDenyDuplicateOracle(d.runningNames)
	}
	return d
}

// runningNames returns the names of all jcrs currently on the running
// list, the collaborator catalogcache.DenyDuplicateOracle needs.
func (d *Director) runningNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, d.running.Len())
	for e := d.running.Front(); e != nil; e = e.Next() {
		names = append(names, e.Value.(*jcr.JCR).Name)
	}
	return names
}

// Submit enqueues j (§4.A). A job with a future SchedTime is handed to
// the scheduled-start waiter instead of the queue directly; everything
// else (including an already-canceled job) goes straight to submitNow.
func (d *Director) Submit(j *jcr.JCR) error {
	d.mu.Lock()
	valid := d.valid
	d.mu.Unlock()
	if !valid {
		return ErrNotInitialized
	}

	if !j.SchedTime.IsZero() && j.SchedTime.After(time.Now()) && !j.Canceled() {
		d.spawnWaiter(j)
		return nil
	}
	return d.submitNow(j)
}

// submitNow places j directly onto waiting (sorted by Priority,
// ascending, ties broken FIFO) or, if j is already canceled, onto the
// front of ready for immediate fast-path termination (§4.C, S7).
func (d *Director) submitNow(j *jcr.JCR) error {
	d.mu.Lock()
	if !d.valid {
		d.mu.Unlock()
		return ErrNotInitialized
	}
	if _, exists := d.members[j.ID]; exists {
		d.mu.Unlock()
		return ErrAlreadyQueued
	}

	if j.Canceled() {
		j.Status = jcr.StatusCanceled
		e := d.ready.PushFront(j)
		d.members[j.ID] = membership{d.ready, e}
		d.gaugeQueueDepth("ready", 1)
	} else {
		j.ApplyConcurrencyPolicy()
		j.Status = jcr.StatusWaitPriority
		e := d.insertWaitingSorted(j)
		d.members[j.ID] = membership{d.waiting, e}
		d.gaugeQueueDepth("waiting", 1)
	}
	d.ensureWorkerLocked()
	d.work.Broadcast()
	d.mu.Unlock()

	d.emitSubmitted(j)
	return nil
}

// insertWaitingSorted inserts j before the first waiting entry with a
// strictly greater Priority, preserving ascending order with FIFO
// tie-breaking (the admission controller's cohort scan at §4.D depends
// on this ordering).
func (d *Director) insertWaitingSorted(j *jcr.JCR) *list.Element {
	for e := d.waiting.Front(); e != nil; e = e.Next() {
		if e.Value.(*jcr.JCR).Priority > j.Priority {
			return d.waiting.InsertBefore(j, e)
		}
	}
	return d.waiting.PushBack(j)
}

// Remove is the external cancellation path (§4.B): if j is sitting on
// waiting, it is marked canceled and moved to the front of ready for
// fast-path dispatch, exactly as submitNow treats an already-canceled
// submission. Removing anything not on waiting fails with ErrNotFound —
// a job already admitted must be canceled through j.Cancel() and picked
// up by the running engine_fn instead.
func (d *Director) Remove(j *jcr.JCR) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.valid {
		return ErrNotInitialized
	}
	m, ok := d.members[j.ID]
	if !ok || m.list != d.waiting {
		return ErrNotFound
	}

	d.waiting.Remove(m.elem)
	j.Cancel()
	j.Status = jcr.StatusCanceled
	e := d.ready.PushFront(j)
	d.members[j.ID] = membership{d.ready, e}
	d.gaugeQueueDepth("waiting", -1)
	d.gaugeQueueDepth("ready", 1)
	d.ensureWorkerLocked()
	d.work.Broadcast()
	return nil
}

// ensureWorkerLocked spawns a worker if fewer than maxWorkers are
// running. Must be called with mu held. Goroutine creation cannot fail
// the way §7's ThreadSpawnFailed models a fixed-size thread pool
// failing pthread_create, so this never reports an error.
func (d *Director) ensureWorkerLocked() {
	if d.numWorkers >= d.maxWorkers {
		return
	}
	d.numWorkers++
	d.gaugeNumWorkers(1)
	go d.worker()
}

// Destroy drains the queue (§4.A): it signals quit, waits for every
// worker to exit and every scheduled-start waiter to resolve (those two
// waits fan in through an errgroup since they run independently), then
// marks the Director invalid. Any jcr still on waiting or ready at that
// point is logged and left for its external owner, per the shutdown
// note in §4.C.
func (d *Director) Destroy() error {
	d.mu.Lock()
	if !d.valid {
		d.mu.Unlock()
		return ErrNotInitialized
	}
	d.quitting = true
	d.work.Broadcast()
	d.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		d.mu.Lock()
		for d.numWorkers > 0 {
			d.work.Wait()
		}
		d.mu.Unlock()
		return nil
	})
	g.Go(d.waiters.Wait)
	_ = g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.waiting.Len() > 0 || d.ready.Len() > 0 || d.running.Len() > 0 {
		d.logger.Warn("destroy: lists not empty at shutdown",
			"waiting", d.waiting.Len(), "ready", d.ready.Len(), "running", d.running.Len())
	}
	d.valid = false
	return nil
}
