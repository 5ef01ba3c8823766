package system

import (
	"github.com/boraty14/Becs/internal/core/engine"
	"github.com/boraty14/Becs/internal/core/event"
	"go.uber.org/zap"
)

// EventSystem delivers last frame's events. Phase 1 (PreUpdate).
type EventSystem struct {
	engine.Base
	bus *event.Bus
}

// NewEventSystem also subscribes debug logging for unit spawns and despawns.
func NewEventSystem(bus *event.Bus, log *zap.Logger) *EventSystem {
	event.Subscribe(bus, func(ev event.UnitSpawned) {
		log.Debug("unit spawned",
			zap.String("prefab", ev.Prefab), zap.Uint64("id", ev.ObjectID), zap.Int("live", ev.Count))
	})
	event.Subscribe(bus, func(ev event.UnitDespawned) {
		log.Debug("unit despawned",
			zap.String("prefab", ev.Prefab), zap.Uint64("id", ev.ObjectID),
			zap.Int("live", ev.Count), zap.Bool("expired", ev.Expired))
	})
	return &EventSystem{bus: bus}
}

func (s *EventSystem) IsTickable() bool { return s.bus.Pending() }

func (s *EventSystem) TickEngine() {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
