package system

import (
	"sort"

	"github.com/boraty14/Becs/internal/core/engine"
)

type entry struct {
	phase  Phase
	engine engine.Engine
}

// Runner is the frame scheduler: it ticks registered engines in phase order
// once per frame. Engines sharing a phase keep their registration order.
type Runner struct {
	entries  []entry
	order    []engine.Engine // registration order, for disposal
	sorted   bool
	frame    uint64
	disposed bool
}

func NewRunner() *Runner {
	return &Runner{
		entries: make([]entry, 0, 16),
		order:   make([]engine.Engine, 0, 16),
	}
}

func (r *Runner) Register(phase Phase, e engine.Engine) {
	r.entries = append(r.entries, entry{phase: phase, engine: e})
	r.order = append(r.order, e)
	r.sorted = false
}

// Tick advances the frame counter and ticks every engine.
func (r *Runner) Tick() {
	r.ensureSorted()
	r.frame++
	for _, en := range r.entries {
		engine.Tick(en.engine)
	}
}

// TickPhase ticks only the engines of the given phase. The frame counter is
// left untouched.
func (r *Runner) TickPhase(phase Phase) {
	r.ensureSorted()
	for _, en := range r.entries {
		if en.phase == phase {
			engine.Tick(en.engine)
		}
	}
}

// Frame returns the number of completed Tick calls.
func (r *Runner) Frame() uint64 { return r.frame }

func (r *Runner) Len() int { return len(r.entries) }

// Dispose releases every engine in reverse registration order. Later calls
// are no-ops.
func (r *Runner) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	for i := len(r.order) - 1; i >= 0; i-- {
		r.order[i].Dispose()
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.entries, func(i, j int) bool {
			return r.entries[i].phase < r.entries[j].phase
		})
		r.sorted = true
	}
}
