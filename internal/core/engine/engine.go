// Package engine defines the per-frame work contract driven by the runner.
package engine

// Tickable is a unit of per-frame work gated by a predicate.
type Tickable interface {
	// IsTickable is evaluated on every Tick; implementations must not
	// assume the result is cached between frames.
	IsTickable() bool
	// TickEngine performs the frame's work.
	TickEngine()
}

// Engine is a Tickable that owns resources released by Dispose.
// Nothing calls Dispose automatically; the owner must.
type Engine interface {
	Tickable
	Dispose()
}

// Tick runs t's body once if its gate currently holds.
func Tick(t Tickable) {
	if !t.IsTickable() {
		return
	}
	t.TickEngine()
}

// Base provides the default no-op Dispose. Embed it in engines that own
// nothing.
type Base struct{}

func (Base) Dispose() {}

// Func adapts plain functions to Engine.
// A nil Gate is always tickable; a nil Release disposes nothing.
type Func struct {
	Gate    func() bool
	Body    func()
	Release func()
}

func (f Func) IsTickable() bool {
	if f.Gate == nil {
		return true
	}
	return f.Gate()
}

func (f Func) TickEngine() {
	if f.Body != nil {
		f.Body()
	}
}

func (f Func) Dispose() {
	if f.Release != nil {
		f.Release()
	}
}
