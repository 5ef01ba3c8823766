package system

import (
	"context"
	"time"

	"github.com/boraty14/Becs/internal/persist"
	"github.com/boraty14/Becs/internal/world"
	"go.uber.org/zap"
)

// StatsWriter stores pool snapshots.
type StatsWriter interface {
	WriteSnapshot(ctx context.Context, snaps []persist.PoolSnapshot) error
}

// StatsSystem snapshots every prefab's pool counters every interval frames.
// Phase 4 (Persist). Dispose writes one last snapshot.
type StatsSystem struct {
	world    *world.World
	writer   StatsWriter
	frame    func() uint64
	interval uint64
	log      *zap.Logger
	written  int
}

func NewStatsSystem(w *world.World, writer StatsWriter, frame func() uint64, interval uint64, log *zap.Logger) *StatsSystem {
	return &StatsSystem{
		world:    w,
		writer:   writer,
		frame:    frame,
		interval: interval,
		log:      log,
	}
}

func (s *StatsSystem) IsTickable() bool {
	if s.writer == nil || s.interval == 0 {
		return false
	}
	f := s.frame()
	return f > 0 && f%s.interval == 0
}

func (s *StatsSystem) TickEngine() { s.flush() }

func (s *StatsSystem) Dispose() {
	if s.writer == nil {
		return
	}
	s.flush()
}

// Written is the number of snapshot rows stored so far.
func (s *StatsSystem) Written() int { return s.written }

// Snapshot captures the current counters in registration order.
func (s *StatsSystem) Snapshot() []persist.PoolSnapshot {
	now := time.Now()
	frame := s.frame()
	stats := s.world.Stats()
	out := make([]persist.PoolSnapshot, 0, len(stats))
	for _, name := range s.world.Names() {
		st := stats[name]
		out = append(out, persist.PoolSnapshot{
			Frame:    frame,
			Prefab:   name,
			Live:     s.world.Count(name),
			Created:  st.All,
			Active:   st.Active,
			Inactive: st.Inactive,
			Max:      st.Max,
			TakenAt:  now,
		})
	}
	return out
}

func (s *StatsSystem) flush() {
	snaps := s.Snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.writer.WriteSnapshot(ctx, snaps); err != nil {
		s.log.Error("write pool snapshot", zap.Uint64("frame", s.frame()), zap.Error(err))
		return
	}
	s.written += len(snaps)
}
