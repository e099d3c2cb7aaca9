package director

import (
	"time"

	"github.com/bareos-community/dirjobq/jcr"
)

// dispositionMode is the reschedule engine's post-termination verdict
// for one execution of drainReady's loop body.
type dispositionMode int

const (
	dispositionTerminate dispositionMode = iota
	dispositionInPlace
	dispositionClone
)

// prepareReschedule runs §4.F up to (but not including) the duplicate-
// job oracle consultation: the candidacy test, and, if the job is a
// candidate, the sched_time/reschedule-count/status-and-error-counter
// mutation the spec applies to the original jcr regardless of which
// disposition mode eventually applies. Must be called with mu held,
// since it reads catalog state.
func (d *Director) prepareReschedule(j *jcr.JCR) (candidate bool) {
	def, ok := d.catalog.Definition(j.JobDefID)
	if !ok {
		return false
	}

	incompleteCandidate := def.RescheduleIncompleteJobs &&
		j.Status == jcr.StatusIncomplete && j.IsBackup() && j.Level != jcr.LevelBase
	errorCandidate := def.RescheduleOnError &&
		j.Status != jcr.StatusTerminatedOk && !j.Canceled() && j.IsBackup()
	if !incompleteCandidate && !errorCandidate {
		return false
	}
	if def.RescheduleTimes > 0 && j.RescheduleCount >= def.RescheduleTimes {
		return false
	}

	j.SchedTime = time.Now().Add(def.RescheduleInterval)
	j.RescheduleCount++
	j.Status = jcr.StatusWaitStartTime
	j.ErrorCount = 0
	return true
}

// buildClone implements the clone disposition of §4.F, taken when the
// original produced bytes and so must keep its job id in the catalog:
// a fresh jcr via the job factory, carrying forward the fields named
// in the spec (level, pool and its overrides, storage lists, message
// destination, spool-data flag, priority, scheduled times, reschedule
// count), with ParentJobID recording the id it succeeds.
func (d *Director) buildClone(j *jcr.JCR) *jcr.JCR {
	clone := d.newJCR()
	clone.Name = j.Name
	clone.Type = j.Type
	clone.JobDefID = j.JobDefID
	clone.Level = j.Level
	clone.PoolID = j.PoolID
	clone.PoolOverrides = j.PoolOverrides
	clone.ReadStorage = j.ReadStorage
	clone.WriteStorage = j.WriteStorage
	clone.MessageDestination = j.MessageDestination
	clone.SpoolData = j.SpoolData
	clone.Priority = j.Priority
	clone.InitialSchedTime = j.InitialSchedTime
	clone.SchedTime = j.SchedTime
	clone.RescheduleCount = j.RescheduleCount
	clone.IgnoreClientConcurrency = j.IgnoreClientConcurrency
	clone.IgnoreStorageConcurrency = j.IgnoreStorageConcurrency
	clone.MigrateJobID = j.MigrateJobID
	clone.ParentJobID = j.ID
	return clone
}

// decideReschedule runs the full reschedule engine for one terminated
// job: candidacy test and mutation under mu, then the duplicate-job
// oracle consultation with mu released (the default oracle scans the
// running list, which takes mu itself). Returns the disposition and,
// for dispositionClone, the clone to submit. Must be called with mu
// held; the oracle check itself runs without it.
func (d *Director) decideReschedule(j *jcr.JCR) (dispositionMode, *jcr.JCR) {
	if !d.prepareReschedule(j) {
		return dispositionTerminate, nil
	}

	d.mu.Unlock()
	allowed := d.duplicateOracle.AllowDuplicateJob(j)
	d.mu.Lock()
	if !allowed {
		return dispositionTerminate, nil
	}

	if j.JobBytes == 0 {
		return dispositionInPlace, nil
	}
	return dispositionClone, d.buildClone(j)
}
