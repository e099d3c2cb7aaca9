package director

import (
	"context"
	"log/slog"

	"github.com/bareos-community/dirjobq/hooks"
	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
	"github.com/bareos-community/dirjobq/registry"
	"github.com/bareos-community/dirjobq/telemetry"
)

// EngineFunc is the external run entry point (§6): invoked with the
// queue mutex released, it performs or drives the actual job execution
// and is responsible for setting j.Status to a terminal value before
// returning. The worker loop binds j into ctx via scope.Bind.
type EngineFunc func(ctx context.Context, j *jcr.JCR)

// DuplicateJobOracle is consulted by the reschedule engine (§4.F) for
// every reschedule candidate, before the in-place or clone disposition
// is chosen: allow_duplicate_job.
// catalogcache.DenyDuplicateOracle satisfies this by structural typing.
type DuplicateJobOracle interface {
	AllowDuplicateJob(j *jcr.JCR) bool
}

// NewJCRFunc constructs the clone's identity when the reschedule engine
// needs a fresh jcr (the external job factory named in §4.F). The
// default allocates a new job id and leaves Name/Type for the caller to
// copy onto the returned value.
type NewJCRFunc func() *jcr.JCR

// Option configures a Director at construction time.
type Option func(*Director)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Director) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithHooks registers a lifecycle hook registry. Submitted, admitted,
// starved, rescheduled, and terminated events fire through it.
func WithHooks(r *hooks.Registry) Option {
	return func(d *Director) { d.hooks = r }
}

// WithDuplicateJobOracle overrides the default allow_duplicate_job
// policy (deny if a job of the same name is already running, via
// catalogcache.NewDenyDuplicateOracle backed by d.runningNames).
func WithDuplicateJobOracle(o DuplicateJobOracle) Option {
	return func(d *Director) { d.duplicateOracle = o }
}

// WithNewJCRFunc overrides how the reschedule engine's clone
// disposition allocates the clone's identity.
func WithNewJCRFunc(f NewJCRFunc) Option {
	return func(d *Director) {
		if f != nil {
			d.newJCR = f
		}
	}
}

// WithTelemetry installs the gauge-style instrumentation the queue
// holds directly (num_workers, queue_depth, resource_in_use), none of
// which is naturally shaped as a lifecycle event. The hook's counters
// (submitted/admitted/starved/rescheduled/terminated) are driven
// separately by registering it with WithHooks.
func WithTelemetry(h *telemetry.Hook) Option {
	return func(d *Director) { d.telemetry = h }
}

// RegisterJobDefinition loads a job definition into the catalog cache
// and sets its concurrency permit ceiling in the registry in one call,
// the combination the admission controller and reschedule engine both
// rely on.
func (d *Director) RegisterJobDefinition(def jcr.Definition) {
	d.catalog.PutDefinition(def)
	d.registry.SetMax(registry.KindJobDef, def.ID, def.MaxConcurrentJobs)
}

// RegisterClient sets a client's concurrency permit ceiling.
func (d *Director) RegisterClient(clientID id.ClientID, max int) {
	d.catalog.SetClientMax(clientID, max)
	d.registry.SetMax(registry.KindClient, clientID, max)
}

// RegisterStorage sets a storage resource's concurrency permit ceiling.
func (d *Director) RegisterStorage(storageID id.StorageID, max int) {
	d.catalog.SetStorageMax(storageID, max)
	d.registry.SetMax(registry.KindReadStorage, storageID, max)
	d.registry.SetMax(registry.KindWriteStorage, storageID, max)
}
