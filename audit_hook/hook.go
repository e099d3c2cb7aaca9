package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bareos-community/dirjobq/hooks"
	"github.com/bareos-community/dirjobq/jcr"
)

// Compile-time interface checks.
var (
	_ hooks.Hook        = (*Hook)(nil)
	_ hooks.Submitted   = (*Hook)(nil)
	_ hooks.Admitted    = (*Hook)(nil)
	_ hooks.Starved     = (*Hook)(nil)
	_ hooks.Rescheduled = (*Hook)(nil)
	_ hooks.Terminated  = (*Hook)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event, free of any
// dependency on a concrete audit backend. Callers provide a
// RecorderFunc adapter that bridges to their own backend.
type AuditEvent struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Hook bridges director lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the
// [Recorder].
type Hook struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// Option configures a Hook.
type Option func(*Hook)

// WithActions restricts the hook to emit only the listed lifecycle
// actions (ActionSubmitted, ActionAdmitted, ActionStarved,
// ActionRescheduled, ActionTerminated). By default all are enabled.
// Unknown actions are silently ignored.
func WithActions(actions ...string) Option {
	return func(h *Hook) {
		h.enabled = make(map[string]bool, len(actions))
		for _, a := range actions {
			h.enabled[a] = true
		}
	}
}

// WithLogger sets a custom logger for audit-record delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hook) { h.logger = l }
}

// New creates a Hook that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Hook {
	h := &Hook{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements hooks.Hook.
func (h *Hook) Name() string { return "audit-hook" }

// OnSubmitted implements hooks.Submitted.
func (h *Hook) OnSubmitted(ctx context.Context, j *jcr.JCR) error {
	return h.record(ctx, ActionSubmitted, SeverityInfo, OutcomeSuccess, j.ID.String(), nil,
		"job_name", j.Name,
		"job_type", j.Type.String(),
		"priority", j.Priority,
	)
}

// OnAdmitted implements hooks.Admitted.
func (h *Hook) OnAdmitted(ctx context.Context, j *jcr.JCR) error {
	return h.record(ctx, ActionAdmitted, SeverityInfo, OutcomeSuccess, j.ID.String(), nil,
		"job_name", j.Name,
		"job_type", j.Type.String(),
	)
}

// OnStarved implements hooks.Starved.
func (h *Hook) OnStarved(ctx context.Context, j *jcr.JCR, resource string) error {
	return h.record(ctx, ActionStarved, SeverityWarning, OutcomeFailure, j.ID.String(), nil,
		"job_name", j.Name,
		"resource", resource,
		"status", j.Status.String(),
	)
}

// OnRescheduled implements hooks.Rescheduled.
func (h *Hook) OnRescheduled(ctx context.Context, j *jcr.JCR, clone *jcr.JCR) error {
	kvs := []any{
		"job_name", j.Name,
		"reschedule_count", j.RescheduleCount,
		"status", j.Status.String(),
	}
	if clone != nil {
		kvs = append(kvs, "clone_id", clone.ID.String())
	}
	return h.record(ctx, ActionRescheduled, SeverityInfo, OutcomeSuccess, j.ID.String(), nil, kvs...)
}

// OnTerminated implements hooks.Terminated.
func (h *Hook) OnTerminated(ctx context.Context, j *jcr.JCR) error {
	severity, outcome := SeverityInfo, OutcomeSuccess
	var terminationErr error
	if j.IsIncomplete() || j.Status == jcr.StatusErrorTerminated {
		severity, outcome = SeverityCritical, OutcomeFailure
		terminationErr = fmt.Errorf("job terminated with status %s", j.Status)
	}
	return h.record(ctx, ActionTerminated, severity, outcome, j.ID.String(), terminationErr,
		"job_name", j.Name,
		"status", j.Status.String(),
		"error_count", j.ErrorCount,
	)
}

// record builds and sends an audit event if the action is enabled.
// kvPairs is a list of key-value pairs added to Metadata.
func (h *Hook) record(
	ctx context.Context,
	action, severity, outcome, resourceID string,
	err error,
	kvPairs ...any,
) error {
	if h.enabled != nil && !h.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceJob,
		Category:   CategoryJob,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := h.recorder.Record(ctx, evt); recErr != nil {
		h.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
