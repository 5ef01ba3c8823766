package system

import (
	"github.com/boraty14/Becs/internal/core/engine"
	"github.com/boraty14/Becs/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred despawn queue at frame end.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	engine.Base
	world *world.World
	log   *zap.Logger
}

func NewCleanupSystem(w *world.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: w, log: log}
}

func (s *CleanupSystem) IsTickable() bool { return s.world.PendingDespawns() > 0 }

func (s *CleanupSystem) TickEngine() {
	if err := s.world.FlushDespawnQueue(); err != nil {
		s.log.Error("flush despawn queue", zap.Error(err))
	}
}
