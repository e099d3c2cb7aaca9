package director

import (
	"time"

	"github.com/bareos-community/dirjobq/jcr"
)

// maxNap bounds each sleep step of the scheduled-start waiter (§4.B):
// it naps in steps no longer than this, re-checking cancellation and
// the deadline between naps, rather than sleeping once for the full
// remaining delay.
const maxNap = 30 * time.Second

// spawnWaiter starts the scheduled-start waiter for a job submitted
// with a future SchedTime. It is a pure producer: it only ever calls
// back into submitNow, and never touches the queue lists directly.
// The waiter holds a use-count reference on j for its lifetime.
//
// The quitting check and the errgroup.Go call that registers the
// waiter both happen under mu, in the same critical section Destroy
// uses to flip quitting before it calls d.waiters.Wait. That ordering
// guarantees every Go call completes before the matching Wait begins,
// which is the only safe way to interleave errgroup.Group's Add and
// Wait across goroutines — without it, a reschedule racing with
// Destroy could register a new waiter after Wait had already observed
// the group empty. Once quitting, a job with a future SchedTime is
// submitted directly instead, landing on waiting where shutdown's
// documented leak-to-the-external-owner policy picks it up.
func (d *Director) spawnWaiter(j *jcr.JCR) {
	d.mu.Lock()
	if d.quitting {
		d.mu.Unlock()
		_ = d.submitNow(j)
		return
	}
	j.IncUseCount()
	d.waiters.Go(func() error {
		defer j.DecUseCount()
		for {
			if j.Canceled() {
				return d.submitNow(j)
			}
			remaining := time.Until(j.SchedTime)
			if remaining <= 0 {
				return d.submitNow(j)
			}
			nap := remaining
			if nap > maxNap {
				nap = maxNap
			}
			time.Sleep(nap)
		}
	})
	d.mu.Unlock()
}
