package director

import "context"

// gaugeNumWorkers, gaugeQueueDepth, and gaugeResourceInUse are nil-safe
// wrappers around the optional telemetry hook's direct setters, for the
// state the queue core holds that has no natural lifecycle-event shape.
func (d *Director) gaugeNumWorkers(delta int64) {
	if d.telemetry == nil {
		return
	}
	d.telemetry.SetNumWorkers(context.Background(), delta)
}

func (d *Director) gaugeQueueDepth(list string, delta int64) {
	if d.telemetry == nil {
		return
	}
	d.telemetry.SetQueueDepthDelta(context.Background(), list, delta)
}

func (d *Director) gaugeResourceInUse(kind string, delta int64) {
	if d.telemetry == nil {
		return
	}
	d.telemetry.SetResourceInUseDelta(context.Background(), kind, delta)
}
