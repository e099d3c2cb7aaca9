package jcr

import (
	"time"

	"github.com/bareos-community/dirjobq/id"
)

// Definition carries the per-job-definition policy the admission
// controller and reschedule engine consult. Loading job definitions
// from configuration is an external collaborator (§6); Definition is
// the shape the core needs out of that process.
type Definition struct {
	ID id.JobDefID

	MaxConcurrentJobs int

	RescheduleOnError        bool
	RescheduleIncompleteJobs bool
	// RescheduleTimes bounds the number of reattempts. Zero means
	// unlimited.
	RescheduleTimes    int
	RescheduleInterval time.Duration

	// AllowMixedPriority lets jobs of this definition run concurrently
	// with jobs of a different priority value, per §4.D stage 1.
	AllowMixedPriority bool
}
