// Package audithook bridges director lifecycle events to an audit trail
// backend. Each lifecycle hook emits a structured audit event through a
// caller-supplied Recorder; the package never picks a concrete backend.
package audithook
