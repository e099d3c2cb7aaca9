package hooks

import (
	"context"
	"testing"

	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
)

type recordingHook struct {
	name      string
	submitted []string
	terminated []string
}

func (h *recordingHook) Name() string { return h.name }

func (h *recordingHook) OnSubmitted(_ context.Context, j *jcr.JCR) error {
	h.submitted = append(h.submitted, j.Name)
	return nil
}

func (h *recordingHook) OnTerminated(_ context.Context, j *jcr.JCR) error {
	h.terminated = append(h.terminated, j.Name)
	return nil
}

func TestRegistryDispatchesOnlyImplementedEvents(t *testing.T) {
	r := NewRegistry(nil)
	h := &recordingHook{name: "recorder"}
	r.Register(h)

	j := jcr.New(id.NewJobID(), "nightly", jcr.TypeBackup)

	r.EmitSubmitted(context.Background(), j)
	r.EmitAdmitted(context.Background(), j) // no-op: h doesn't implement Admitted
	r.EmitTerminated(context.Background(), j)

	if len(h.submitted) != 1 || h.submitted[0] != "nightly" {
		t.Fatalf("submitted = %v, want [nightly]", h.submitted)
	}
	if len(h.terminated) != 1 || h.terminated[0] != "nightly" {
		t.Fatalf("terminated = %v, want [nightly]", h.terminated)
	}
}

type erroringHook struct{}

func (erroringHook) Name() string { return "erroring" }
func (erroringHook) OnSubmitted(_ context.Context, _ *jcr.JCR) error {
	return errHookFailed
}

var errHookFailed = hookError("boom")

type hookError string

func (e hookError) Error() string { return string(e) }

func TestRegistryErrorsAreSwallowed(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(erroringHook{})

	j := jcr.New(id.NewJobID(), "x", jcr.TypeBackup)
	r.EmitSubmitted(context.Background(), j) // must not panic or propagate
}
