// Package jcr defines the Job Control Record: the per-job state the
// queue core reads and writes as a job moves from submission through
// admission, execution, and termination or reschedule.
package jcr

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bareos-community/dirjobq/id"
)

// Type is the job type. Migrate, Copy, and Consolidate jobs are excluded
// from client concurrency (and, for their control variant, from storage
// concurrency too) by admission policy — see ApplyConcurrencyPolicy.
type Type int

const (
	TypeBackup Type = iota
	TypeRestore
	TypeVerify
	TypeAdmin
	TypeMigrate
	TypeCopy
	TypeConsolidate
)

func (t Type) String() string {
	switch t {
	case TypeBackup:
		return "Backup"
	case TypeRestore:
		return "Restore"
	case TypeVerify:
		return "Verify"
	case TypeAdmin:
		return "Admin"
	case TypeMigrate:
		return "Migrate"
	case TypeCopy:
		return "Copy"
	case TypeConsolidate:
		return "Consolidate"
	default:
		return "Unknown"
	}
}

// Level is the backup level. Only backups care about Level; other job
// types leave it at LevelNone.
type Level int

const (
	LevelNone Level = iota
	LevelFull
	LevelIncremental
	LevelDifferential
	LevelVirtualFull
	LevelBase
)

// Status is the job's current lifecycle state. Only the core-relevant
// values are modeled; a real director's full status enum (spooling,
// despooling, waiting on the storage daemon, etc.) lives in the
// execution routine, not here.
type Status int

const (
	StatusWaitStartTime Status = iota
	StatusWaitPriority
	StatusWaitClientRes
	StatusWaitStoreRes
	StatusWaitJobRes
	StatusReady
	StatusRunning
	StatusCanceled
	StatusErrorTerminated
	StatusIncomplete
	StatusTerminatedOk
)

func (s Status) String() string {
	switch s {
	case StatusWaitStartTime:
		return "WaitStartTime"
	case StatusWaitPriority:
		return "WaitPriority"
	case StatusWaitClientRes:
		return "WaitClientRes"
	case StatusWaitStoreRes:
		return "WaitStoreRes"
	case StatusWaitJobRes:
		return "WaitJobRes"
	case StatusReady:
		return "Ready"
	case StatusRunning:
		return "Running"
	case StatusCanceled:
		return "Canceled"
	case StatusErrorTerminated:
		return "ErrorTerminated"
	case StatusIncomplete:
		return "Incomplete"
	case StatusTerminatedOk:
		return "TerminatedOk"
	default:
		return "Unknown"
	}
}

// JCR is the Job Control Record. The queue core, admission controller,
// worker pool, and reschedule engine all read and write it; invariants
// 1-7 of the data model constrain who may touch which field when.
//
// AcquiredLocks, RescheduleCount, ErrorCount, and the resource
// references are only mutated while the queue mutex is held (by the
// queue core or a worker). Status and JobBytes are mutated the same way,
// and additionally by engine_fn, which runs with the queue mutex
// released while the jcr sits on running. Canceled is the one field that must
// be readable and writable without the queue mutex, since the external
// cancellation collaborator and the engine function both touch it from
// arbitrary goroutines; it is an atomic.Bool for that reason.
type JCR struct {
	ID   id.JobID
	Name string
	Type Type
	// JobDefID identifies the job definition whose policy (§6 config)
	// governs this JCR's admission and reschedule behavior.
	JobDefID id.JobDefID
	Level    Level

	InitialSchedTime time.Time
	SchedTime        time.Time
	Priority         uint

	Status Status

	// Resource references. The zero id.ID (IsNil() == true) means "not
	// set" — admission skips the corresponding permit entirely.
	ReadStorage  id.StorageID
	WriteStorage id.StorageID
	Client       id.ClientID
	PoolID       id.PoolID

	// PoolOverrides carries the run-time pool substitutions (full/inc/
	// diff/next pool and their "was this run-time overridden" flags)
	// that a clone reschedule must copy verbatim.
	PoolOverrides PoolOverrides

	MessageDestination string
	SpoolData          bool

	// MigrateJobID is set on Migrate/Copy/Consolidate jobs to the id of
	// the job being migrated/copied/consolidated. The zero value marks
	// this JCR as the *control* job for that operation (IsControlJob).
	MigrateJobID id.JobID

	// AcquiredLocks is true only while this JCR holds its four
	// concurrency permits (invariant 2/3).
	AcquiredLocks bool

	// IgnoreClientConcurrency and IgnoreStorageConcurrency are set by
	// job-type policy (§4.D, ApplyConcurrencyPolicy) when the queue core
	// places the jcr on waiting, and never by the caller.
	IgnoreClientConcurrency  bool
	IgnoreStorageConcurrency bool

	RescheduleCount int
	JobBytes        uint64
	ErrorCount      int

	// ParentJobID is set on a clone produced by the reschedule engine's
	// clone disposition (§4.F); it is the id of the JCR the clone
	// succeeds. The zero value means this JCR was never cloned from
	// another.
	ParentJobID id.JobID

	canceled atomic.Bool
	useCount atomic.Int32

	termMu   sync.Mutex
	termCond *sync.Cond
	done     bool
}

// New creates a JCR with use count 1 (the caller's reference) and an
// initialized termination condition.
func New(jobID id.JobID, name string, jt Type) *JCR {
	j := &JCR{
		ID:   jobID,
		Name: name,
		Type: jt,
	}
	j.termCond = sync.NewCond(&j.termMu)
	j.useCount.Store(1)
	return j
}

// IsControlJob reports whether this is the control job of a Migrate,
// Copy, or Consolidate operation (MigrateJobID unset). Copied verbatim
// from the original implementation's "MigrateJobId == 0" test.
func (j *JCR) IsControlJob() bool {
	return j.MigrateJobID.IsNil()
}

// IsBackup reports whether this JCR is a backup job.
func (j *JCR) IsBackup() bool { return j.Type == TypeBackup }

// Canceled reports whether external cancellation has been requested.
// Safe to call from any goroutine without holding the queue mutex.
func (j *JCR) Canceled() bool { return j.canceled.Load() }

// Cancel marks the JCR canceled. Safe to call from any goroutine; this
// is the hook the external cancellation collaborator calls.
func (j *JCR) Cancel() { j.canceled.Store(true) }

// IncUseCount increments the shared-ownership use count. Called by the
// queue core, the scheduled-start waiter, and the worker pool whenever
// each takes a transient reference to the JCR.
func (j *JCR) IncUseCount() int32 { return j.useCount.Add(1) }

// UseCount returns the current use count.
func (j *JCR) UseCount() int32 { return j.useCount.Load() }

// DecUseCount decrements the use count and reports whether this was the
// last holder (use count reached zero), in which case the caller is
// responsible for any final cleanup.
func (j *JCR) DecUseCount() bool {
	return j.useCount.Add(-1) == 0
}

// IsTerminatedOk reports whether the job finished successfully.
func (j *JCR) IsTerminatedOk() bool { return j.Status == StatusTerminatedOk }

// IsIncomplete reports whether the job finished in the Incomplete state.
func (j *JCR) IsIncomplete() bool { return j.Status == StatusIncomplete }

// MarkDone signals any caller blocked in WaitTermination that this JCR
// has reached a terminal status. Called by the worker pool's drain step
// once the job is removed from running and (if not requeued) about to
// be freed.
func (j *JCR) MarkDone() {
	j.termMu.Lock()
	j.done = true
	j.termCond.Broadcast()
	j.termMu.Unlock()
}

// WaitTermination blocks until MarkDone is called. This is the
// "termination-waiter condition" named by the data model section —
// an administrative console waiting on a specific job's completion
// uses it instead of polling Status.
func (j *JCR) WaitTermination() {
	j.termMu.Lock()
	for !j.done {
		j.termCond.Wait()
	}
	j.termMu.Unlock()
}

// PoolOverrides mirrors the run-time pool substitution fields a backup
// job definition may carry (Full/Incremental/Differential/Next pool,
// each independently overridable at run time). The reschedule engine's
// clone disposition copies this struct verbatim (§4.F).
type PoolOverrides struct {
	FullPool            id.PoolID
	RunFullPoolOverride bool
	IncPool             id.PoolID
	RunIncPoolOverride  bool
	DiffPool            id.PoolID
	RunDiffPoolOverride bool
	NextPool            id.PoolID
	RunNextPoolOverride bool
}

// ApplyConcurrencyPolicy sets the ignore-flags per the job-type
// exceptions in §4.D: Migrate, Copy, and Consolidate jobs never touch
// the client, so they always ignore client concurrency; their control
// variant (MigrateJobID unset) doesn't touch storage either.
func (j *JCR) ApplyConcurrencyPolicy() {
	switch j.Type {
	case TypeMigrate, TypeCopy, TypeConsolidate:
		j.IgnoreClientConcurrency = true
		if j.IsControlJob() {
			j.IgnoreStorageConcurrency = true
		}
	}
}
