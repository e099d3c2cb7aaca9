package hooks

import (
	"context"
	"log/slog"

	"github.com/bareos-community/dirjobq/jcr"
)

type submittedEntry struct {
	name string
	hook Submitted
}

type admittedEntry struct {
	name string
	hook Admitted
}

type starvedEntry struct {
	name string
	hook Starved
}

type rescheduledEntry struct {
	name string
	hook Rescheduled
}

type terminatedEntry struct {
	name string
	hook Terminated
}

// Registry holds registered hooks and dispatches lifecycle events to
// them. It type-caches hooks at registration time so emit calls iterate
// only over hooks that implement the relevant event.
type Registry struct {
	hooks  []Hook
	logger *slog.Logger

	submitted   []submittedEntry
	admitted    []admittedEntry
	starved     []starvedEntry
	rescheduled []rescheduledEntry
	terminated  []terminatedEntry
}

// NewRegistry creates a hook registry with the given logger. A nil
// logger falls back to slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable event
// caches. Hooks are notified in registration order.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
	name := h.Name()

	if v, ok := h.(Submitted); ok {
		r.submitted = append(r.submitted, submittedEntry{name, v})
	}
	if v, ok := h.(Admitted); ok {
		r.admitted = append(r.admitted, admittedEntry{name, v})
	}
	if v, ok := h.(Starved); ok {
		r.starved = append(r.starved, starvedEntry{name, v})
	}
	if v, ok := h.(Rescheduled); ok {
		r.rescheduled = append(r.rescheduled, rescheduledEntry{name, v})
	}
	if v, ok := h.(Terminated); ok {
		r.terminated = append(r.terminated, terminatedEntry{name, v})
	}
}

// Hooks returns all registered hooks.
func (r *Registry) Hooks() []Hook { return r.hooks }

// EmitSubmitted notifies all hooks that implement Submitted.
func (r *Registry) EmitSubmitted(ctx context.Context, j *jcr.JCR) {
	for _, e := range r.submitted {
		if err := e.hook.OnSubmitted(ctx, j); err != nil {
			r.logHookError("OnSubmitted", e.name, err)
		}
	}
}

// EmitAdmitted notifies all hooks that implement Admitted.
func (r *Registry) EmitAdmitted(ctx context.Context, j *jcr.JCR) {
	for _, e := range r.admitted {
		if err := e.hook.OnAdmitted(ctx, j); err != nil {
			r.logHookError("OnAdmitted", e.name, err)
		}
	}
}

// EmitStarved notifies all hooks that implement Starved.
func (r *Registry) EmitStarved(ctx context.Context, j *jcr.JCR, resource string) {
	for _, e := range r.starved {
		if err := e.hook.OnStarved(ctx, j, resource); err != nil {
			r.logHookError("OnStarved", e.name, err)
		}
	}
}

// EmitRescheduled notifies all hooks that implement Rescheduled.
func (r *Registry) EmitRescheduled(ctx context.Context, j *jcr.JCR, clone *jcr.JCR) {
	for _, e := range r.rescheduled {
		if err := e.hook.OnRescheduled(ctx, j, clone); err != nil {
			r.logHookError("OnRescheduled", e.name, err)
		}
	}
}

// EmitTerminated notifies all hooks that implement Terminated.
func (r *Registry) EmitTerminated(ctx context.Context, j *jcr.JCR) {
	for _, e := range r.terminated {
		if err := e.hook.OnTerminated(ctx, j); err != nil {
			r.logHookError("OnTerminated", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the queue.
func (r *Registry) logHookError(event, hookName string, err error) {
	r.logger.Warn("hook error",
		slog.String("event", event),
		slog.String("hook", hookName),
		slog.String("error", err.Error()),
	)
}
