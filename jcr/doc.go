// Package jcr's [JCR] is intentionally thin: it holds exactly the fields
// the queue core, admission controller, worker pool, and reschedule
// engine read or write (§3 of the design). Everything the execution
// routine needs beyond that — credentials, volume lists, catalog
// handles — belongs to the external collaborator that implements
// EngineFunc, not here.
package jcr
