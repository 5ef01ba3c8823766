package system

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput      Phase = iota // 0: scripted spawn/despawn decisions
	PhasePreUpdate               // 1: deliver last frame's events
	PhaseUpdate                  // 2: unit logic
	PhasePostUpdate              // 3: lifetime expiry
	PhasePersist                 // 4: pool statistics snapshots
	PhaseCleanup                 // 5: flush deferred despawns
)

var phaseNames = [...]string{"input", "pre_update", "update", "post_update", "persist", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}
