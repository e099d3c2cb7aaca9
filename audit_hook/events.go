package audithook

// Audit event actions. Each constant corresponds to one hooks lifecycle
// event and becomes the Action field of the audit event.
const (
	ActionSubmitted   = "job.submitted"
	ActionAdmitted    = "job.admitted"
	ActionStarved     = "job.starved"
	ActionRescheduled = "job.rescheduled"
	ActionTerminated  = "job.terminated"
)

// Audit event category. The queue core only produces one kind of audit
// subject, so unlike the extension this was adapted from there is a
// single category rather than one per subsystem.
const CategoryJob = "dirjobq.job"

// ResourceJob is the Resource field value for every event this hook
// emits.
const ResourceJob = "job"

// AllActions returns every action this hook can emit.
func AllActions() []string {
	return []string{
		ActionSubmitted,
		ActionAdmitted,
		ActionStarved,
		ActionRescheduled,
		ActionTerminated,
	}
}
