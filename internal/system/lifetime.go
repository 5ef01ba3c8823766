package system

import (
	"github.com/boraty14/Becs/internal/core/engine"
	"github.com/boraty14/Becs/internal/scene"
	"github.com/boraty14/Becs/internal/world"
	"go.uber.org/zap"
)

// AgingSystem advances the age of every live unit. Phase 2 (Update).
type AgingSystem struct {
	engine.Base
	world *world.World
}

func NewAgingSystem(w *world.World) *AgingSystem {
	return &AgingSystem{world: w}
}

func (s *AgingSystem) IsTickable() bool { return s.world.Total() > 0 }

func (s *AgingSystem) TickEngine() {
	s.world.Each(func(_ string, obj *scene.Object) {
		obj.Step()
	})
}

// LifetimeSystem releases units that outlived their prefab's lifetime, one
// batch per prefab. Phase 3 (PostUpdate).
type LifetimeSystem struct {
	engine.Base
	world  *world.World
	mortal []string // prefabs with a lifetime
	log    *zap.Logger
}

func NewLifetimeSystem(w *world.World, log *zap.Logger) *LifetimeSystem {
	s := &LifetimeSystem{world: w, log: log}
	for _, name := range w.Names() {
		if p, _ := w.Prefab(name); p.Lifetime > 0 {
			s.mortal = append(s.mortal, name)
		}
	}
	return s
}

func (s *LifetimeSystem) IsTickable() bool {
	for _, name := range s.mortal {
		if s.world.Count(name) > 0 {
			return true
		}
	}
	return false
}

func (s *LifetimeSystem) TickEngine() {
	for _, name := range s.mortal {
		n, err := s.world.DespawnExpired(name)
		if err != nil {
			s.log.Error("expire units", zap.String("prefab", name), zap.Error(err))
			continue
		}
		if n > 0 {
			s.log.Debug("units expired", zap.String("prefab", name), zap.Int("count", n))
		}
	}
}
