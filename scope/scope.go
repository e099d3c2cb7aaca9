// Package scope binds a jcr to a context.Context, the Go equivalent of
// bind_jcr_to_thread/unbind_jcr_from_thread (§6): logging performed
// inside engine_fn, or anywhere downstream of it, can attribute
// messages to the job in progress without threading a *jcr.JCR through
// every call signature.
package scope

import (
	"context"

	"github.com/bareos-community/dirjobq/jcr"
)

type jcrKey struct{}

// Bind attaches j to the context. The worker loop calls this before
// invoking engine_fn and discards the derived context once engine_fn
// returns — there is no explicit Unbind, since the binding dies with
// the context rather than a thread-local that must be cleared.
func Bind(ctx context.Context, j *jcr.JCR) context.Context {
	return context.WithValue(ctx, jcrKey{}, j)
}

// From retrieves the bound jcr, if any. Returns nil, false outside a
// worker's execution of engine_fn.
func From(ctx context.Context) (*jcr.JCR, bool) {
	j, ok := ctx.Value(jcrKey{}).(*jcr.JCR)
	return j, ok
}

// LogAttrs returns slog attributes identifying the bound jcr, for
// inclusion in any log call made inside engine_fn. Returns nil if no
// jcr is bound.
func LogAttrs(ctx context.Context) []any {
	j, ok := From(ctx)
	if !ok {
		return nil
	}
	return []any{"job_id", j.ID.String(), "job_name", j.Name}
}
