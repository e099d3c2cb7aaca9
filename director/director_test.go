package director

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bareos-community/dirjobq/catalogcache"
	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
	"github.com/bareos-community/dirjobq/registry"
)

func newTestDirector(t *testing.T, maxWorkers int, engine EngineFunc, opts ...Option) (*Director, id.JobDefID) {
	t.Helper()
	reg := registry.New(nil)
	cat := catalogcache.New()
	defID := id.NewJobDefID()

	d := New(maxWorkers, engine, reg, cat, opts...)
	d.RegisterJobDefinition(jcr.Definition{ID: defID, MaxConcurrentJobs: 100, AllowMixedPriority: true})
	return d, defID
}

func newJob(name string, defID id.JobDefID, priority uint) *jcr.JCR {
	j := jcr.New(id.NewJobID(), name, jcr.TypeBackup)
	j.JobDefID = defID
	j.Priority = priority
	return j
}

// S1: FIFO within priority.
func TestFIFOWithinPriority(t *testing.T) {
	var mu sync.Mutex
	var order []string

	engine := func(_ context.Context, j *jcr.JCR) {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		order = append(order, j.Name)
		mu.Unlock()
		j.Status = jcr.StatusTerminatedOk
	}

	d, defID := newTestDirector(t, 1, engine)
	defer d.Destroy()

	a := newJob("A", defID, 10)
	b := newJob("B", defID, 10)
	c := newJob("C", defID, 10)
	for _, j := range []*jcr.JCR{a, b, c} {
		if err := d.Submit(j); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("expected 3 jobs to run, got %d: %v", len(order), order)
	}
	if order[0] != "A" || order[1] != "B" || order[2] != "C" {
		t.Fatalf("expected order A,B,C, got %v", order)
	}
}

// S4: storage concurrency cap.
func TestStorageConcurrencyCap(t *testing.T) {
	var mu sync.Mutex
	var maxConcurrent, current int
	release := make(chan struct{})

	engine := func(_ context.Context, j *jcr.JCR) {
		mu.Lock()
		current++
		if current > maxConcurrent {
			maxConcurrent = current
		}
		mu.Unlock()

		<-release

		mu.Lock()
		current--
		mu.Unlock()
		j.Status = jcr.StatusTerminatedOk
	}

	d, defID := newTestDirector(t, 3, engine)
	defer d.Destroy()

	storageID := id.NewStorageID()
	d.RegisterStorage(storageID, 2)

	for i := 0; i < 3; i++ {
		j := newJob("job", defID, 10)
		j.WriteStorage = storageID
		if err := d.Submit(j); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	time.Sleep(200 * time.Millisecond)
	close(release)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if maxConcurrent > 2 {
		t.Fatalf("expected at most 2 concurrent jobs on the storage resource, saw %d", maxConcurrent)
	}
}

// S7: cancel while waiting.
func TestCancelWhileWaiting(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var sawCanceled bool

	engine := func(_ context.Context, j *jcr.JCR) {
		close(started)
		<-release
		sawCanceled = j.Canceled()
		j.Status = jcr.StatusCanceled
	}

	// Hold the one worker busy with a blocker job at the same priority
	// so A sits on waiting long enough to be removed.
	blockerRelease := make(chan struct{})
	blockerStarted := make(chan struct{})
	blockerEngine := func(_ context.Context, j *jcr.JCR) {
		close(blockerStarted)
		<-blockerRelease
		j.Status = jcr.StatusTerminatedOk
	}

	d, defID := newTestDirector(t, 1, func(ctx context.Context, j *jcr.JCR) {
		if j.Name == "blocker" {
			blockerEngine(ctx, j)
		} else {
			engine(ctx, j)
		}
	})
	defer d.Destroy()

	blocker := newJob("blocker", defID, 10)
	if err := d.Submit(blocker); err != nil {
		t.Fatalf("Submit blocker: %v", err)
	}
	<-blockerStarted

	a := newJob("A", defID, 10)
	if err := d.Submit(a); err != nil {
		t.Fatalf("Submit A: %v", err)
	}

	if err := d.Remove(a); err != nil {
		t.Fatalf("Remove A: %v", err)
	}

	close(blockerRelease)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("expected A to be dispatched to the engine after Remove")
	}
	close(release)
	time.Sleep(50 * time.Millisecond)

	if !sawCanceled {
		t.Fatal("expected engine to observe A as canceled")
	}
	if a.AcquiredLocks {
		t.Fatal("a canceled job must never acquire permits")
	}
}

// Testable property: permit conservation — a resource's in-use count
// returns to zero once every job referencing it has terminated.
func TestPermitConservation(t *testing.T) {
	engine := func(_ context.Context, j *jcr.JCR) {
		time.Sleep(10 * time.Millisecond)
		j.Status = jcr.StatusTerminatedOk
	}

	d, defID := newTestDirector(t, 4, engine)

	clientID := id.NewClientID()
	d.RegisterClient(clientID, 2)

	var jobs []*jcr.JCR
	for i := 0; i < 5; i++ {
		j := newJob("job", defID, 10)
		j.Client = clientID
		jobs = append(jobs, j)
		if err := d.Submit(j); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	for _, j := range jobs {
		j.WaitTermination()
	}

	n, _ := d.registry.Count(registry.KindClient, clientID)
	if n != 0 {
		t.Fatalf("expected client permit count to return to 0, got %d", n)
	}

	d.Destroy()
}

// Testable property: mixed-priority rule — a lower-priority-value job
// stays on waiting while a running job's definition disallows mixed
// priority, and is promoted once that job terminates.
func TestMixedPriorityGating(t *testing.T) {
	release := make(chan struct{})
	engine := func(_ context.Context, j *jcr.JCR) {
		if j.Name == "R" {
			<-release
		}
		j.Status = jcr.StatusTerminatedOk
	}

	reg := registry.New(nil)
	cat := catalogcache.New()
	strictDef := id.NewJobDefID()
	cat.PutDefinition(jcr.Definition{ID: strictDef, MaxConcurrentJobs: 10, AllowMixedPriority: false})
	reg.SetMax(registry.KindJobDef, strictDef, 10)

	d := New(2, engine, reg, cat)
	defer d.Destroy()

	r := newJob("R", strictDef, 10)
	if err := d.Submit(r); err != nil {
		t.Fatalf("Submit R: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	w := newJob("W", strictDef, 5)
	if err := d.Submit(w); err != nil {
		t.Fatalf("Submit W: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if w.Status != jcr.StatusWaitPriority {
		t.Fatalf("expected W to stay on waiting with WaitPriority, got %v", w.Status)
	}

	close(release)
	w.WaitTermination()
}

// Testable property: shutdown drains workers — Destroy only returns
// once every worker goroutine has exited.
func TestDestroyDrainsWorkers(t *testing.T) {
	engine := func(_ context.Context, j *jcr.JCR) {
		time.Sleep(10 * time.Millisecond)
		j.Status = jcr.StatusTerminatedOk
	}
	d, defID := newTestDirector(t, 3, engine)

	for i := 0; i < 5; i++ {
		_ = d.Submit(newJob("job", defID, 10))
	}
	time.Sleep(50 * time.Millisecond)

	if err := d.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	d.mu.Lock()
	n := d.numWorkers
	d.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected 0 workers after Destroy, got %d", n)
	}

	if err := d.Submit(newJob("late", defID, 10)); err != ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized after Destroy, got %v", err)
	}
}
