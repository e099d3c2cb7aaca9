package catalogcache

import "github.com/bareos-community/dirjobq/jcr"

// RunningNames reports the names of jobs currently running, for the
// duplicate-job oracle below. A director supplies this as a closure over
// its own running list; catalogcache holds no queue state itself.
type RunningNames func() []string

// DenyDuplicateOracle is the default allow_duplicate_job implementation
// named in the supplemented features: deny reschedule of a job whose
// name already belongs to another running job, allow otherwise. A real
// deployment with administrative duplicate-job policy supplies its own
// oracle instead; this one exists so the reschedule engine has a usable
// default with no configuration.
type DenyDuplicateOracle struct {
	running RunningNames
}

// NewDenyDuplicateOracle builds the default oracle over the given
// running-jobs snapshot function.
func NewDenyDuplicateOracle(running RunningNames) *DenyDuplicateOracle {
	return &DenyDuplicateOracle{running: running}
}

// AllowDuplicateJob denies if another job with the same name is
// currently running; the candidate jcr itself (already removed from
// running by the time reschedule consults the oracle) does not count
// against itself.
func (o *DenyDuplicateOracle) AllowDuplicateJob(j *jcr.JCR) bool {
	for _, name := range o.running() {
		if name == j.Name {
			return false
		}
	}
	return true
}
