package director

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bareos-community/dirjobq/catalogcache"
	"github.com/bareos-community/dirjobq/hooks"
	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
	"github.com/bareos-community/dirjobq/registry"
)

type cloneRecorder struct {
	mu     *sync.Mutex
	clones *[]*jcr.JCR
}

func newRecordingHooks(mu *sync.Mutex, clones *[]*jcr.JCR) *hooks.Registry {
	r := hooks.NewRegistry(nil)
	r.Register(cloneRecorder{mu: mu, clones: clones})
	return r
}

func (cloneRecorder) Name() string { return "clone-recorder" }

func (c cloneRecorder) OnRescheduled(_ context.Context, _ *jcr.JCR, clone *jcr.JCR) error {
	c.mu.Lock()
	*c.clones = append(*c.clones, clone)
	c.mu.Unlock()
	return nil
}

type terminatedSignal struct {
	ch chan *jcr.JCR
}

func (terminatedSignal) Name() string { return "terminated-signal" }

func (s terminatedSignal) OnTerminated(_ context.Context, j *jcr.JCR) error {
	s.ch <- j
	return nil
}

type rescheduledCounter struct {
	n *atomic.Int32
}

func (rescheduledCounter) Name() string { return "rescheduled-counter" }

func (c rescheduledCounter) OnRescheduled(_ context.Context, _ *jcr.JCR, _ *jcr.JCR) error {
	c.n.Add(1)
	return nil
}

// S5: reschedule on error, in place.
func TestRescheduleInPlace(t *testing.T) {
	var attempts atomic.Int32
	engine := func(_ context.Context, j *jcr.JCR) {
		attempts.Add(1)
		j.JobBytes = 0
		j.Status = jcr.StatusErrorTerminated
	}

	reg := registry.New(nil)
	cat := catalogcache.New()
	defID := id.NewJobDefID()
	cat.PutDefinition(jcr.Definition{
		ID:                 defID,
		MaxConcurrentJobs:  10,
		AllowMixedPriority: true,
		RescheduleOnError:  true,
		RescheduleTimes:    2,
		RescheduleInterval: 30 * time.Millisecond,
	})
	reg.SetMax(registry.KindJobDef, defID, 10)

	done := make(chan *jcr.JCR, 1)
	var rescheduled atomic.Int32
	hooksReg := hooks.NewRegistry(nil)
	hooksReg.Register(terminatedSignal{ch: done})
	hooksReg.Register(rescheduledCounter{n: &rescheduled})

	d := New(1, engine, reg, cat, WithHooks(hooksReg))
	defer d.Destroy()

	j := newJob("J", defID, 10)
	if err := d.Submit(j); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("expected the job to terminate once the reschedule cap was hit")
	}

	if j.RescheduleCount != 2 {
		t.Fatalf("expected reschedule count to cap at 2, got %d", j.RescheduleCount)
	}
	if attempts.Load() != 3 {
		t.Fatalf("expected exactly 3 executions (original + 2 reschedules), got %d", attempts.Load())
	}
	if !j.ParentJobID.IsNil() {
		t.Fatal("an in-place reschedule must not set ParentJobID")
	}
	if rescheduled.Load() != 2 {
		t.Fatalf("expected OnRescheduled to fire for both in-place reschedules, got %d", rescheduled.Load())
	}
}

// S6: reschedule with bytes written spawns a clone.
func TestRescheduleSpawnsClone(t *testing.T) {
	var mu sync.Mutex
	var clones []*jcr.JCR

	engine := func(_ context.Context, j *jcr.JCR) {
		j.JobBytes = 1024
		j.Status = jcr.StatusErrorTerminated
	}

	reg := registry.New(nil)
	cat := catalogcache.New()
	defID := id.NewJobDefID()
	cat.PutDefinition(jcr.Definition{
		ID:                 defID,
		MaxConcurrentJobs:  10,
		AllowMixedPriority: true,
		RescheduleOnError:  true,
		RescheduleTimes:    1,
		RescheduleInterval: 20 * time.Millisecond,
	})
	reg.SetMax(registry.KindJobDef, defID, 10)

	hooksReg := newRecordingHooks(&mu, &clones)
	d := New(1, engine, reg, cat, WithHooks(hooksReg))
	defer d.Destroy()

	j := newJob("J", defID, 10)
	if err := d.Submit(j); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	j.WaitTermination()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(clones)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(clones) != 1 {
		t.Fatalf("expected exactly one clone, got %d", len(clones))
	}
	if clones[0].ParentJobID != j.ID {
		t.Fatal("clone's ParentJobID must reference the original job")
	}
	if clones[0].ID == j.ID {
		t.Fatal("clone must have a new identity distinct from the original")
	}
}
