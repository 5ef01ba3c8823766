package world

import (
	"errors"
	"fmt"

	"github.com/boraty14/Becs/internal/config"
	"github.com/boraty14/Becs/internal/core/event"
	"github.com/boraty14/Becs/internal/core/unit"
	"github.com/boraty14/Becs/internal/data"
	"github.com/boraty14/Becs/internal/scene"
	"go.uber.org/zap"
)

var ErrUnknownPrefab = errors.New("world: unknown prefab")

// Manager is the unit manager used for every prefab.
type Manager = unit.Manager[*scene.Object]

type kind struct {
	prefab  data.Prefab
	owner   *scene.Node
	manager *Manager
}

type pendingDespawn struct {
	prefab string
	obj    *scene.Object
}

// World owns one unit manager per registered prefab, each parented under its
// own node of the scene root. Accessed only from the frame loop.
type World struct {
	root         *scene.Node
	kinds        map[string]*kind
	order        []string
	despawnQueue []pendingDespawn
	bus          *event.Bus
	log          *zap.Logger
}

func New(bus *event.Bus, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	if bus == nil {
		bus = event.NewBus()
	}
	return &World{
		root:         scene.NewNode("world"),
		kinds:        make(map[string]*kind),
		despawnQueue: make([]pendingDespawn, 0, 64),
		bus:          bus,
		log:          log,
	}
}

func (w *World) Root() *scene.Node { return w.root }
func (w *World) Bus() *event.Bus   { return w.bus }

// Register creates the manager for p and initializes its pool from base with
// the prefab's overrides applied.
func (w *World) Register(p data.Prefab, base config.PoolConfig) error {
	if _, dup := w.kinds[p.Name]; dup {
		return fmt.Errorf("register %s: already registered", p.Name)
	}
	owner := w.root.AddChild(p.Name)
	lc := unit.PrefabLifecycle[*scene.Object]{
		Prefab: scene.Template{Name: p.Name, Lifetime: p.Lifetime},
		Owner:  owner,
	}
	m := unit.New[*scene.Object](lc, w.log.With(zap.String("prefab", p.Name)))
	if err := m.InitPool(p.Pool.Apply(base)); err != nil {
		w.root.RemoveChild(owner)
		return fmt.Errorf("register %s: %w", p.Name, err)
	}
	w.kinds[p.Name] = &kind{prefab: p, owner: owner, manager: m}
	w.order = append(w.order, p.Name)
	return nil
}

// RegisterAll registers every prefab of the table in file order.
func (w *World) RegisterAll(table *data.PrefabTable, base config.PoolConfig) error {
	for _, p := range table.All() {
		if err := w.Register(p, base); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) lookup(name string) (*kind, error) {
	k, ok := w.kinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrefab, name)
	}
	return k, nil
}

// Manager returns the unit manager of a prefab.
func (w *World) Manager(name string) (*Manager, bool) {
	k, ok := w.kinds[name]
	if !ok {
		return nil, false
	}
	return k.manager, true
}

func (w *World) Prefab(name string) (data.Prefab, bool) {
	k, ok := w.kinds[name]
	if !ok {
		return data.Prefab{}, false
	}
	return k.prefab, true
}

// Names returns registered prefab names in registration order.
func (w *World) Names() []string { return w.order }

// Spawn checks out one unit. Single prefabs go through AddSingle.
func (w *World) Spawn(name string) (*scene.Object, error) {
	k, err := w.lookup(name)
	if err != nil {
		return nil, err
	}
	var obj *scene.Object
	if k.prefab.Single {
		obj, err = k.manager.AddSingle()
	} else {
		obj, err = k.manager.AddUnit()
	}
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}
	event.Emit(w.bus, event.UnitSpawned{Prefab: name, ObjectID: obj.ID, Count: k.manager.Count()})
	return obj, nil
}

// Despawn releases the live unit at index.
func (w *World) Despawn(name string, index int) error {
	k, err := w.lookup(name)
	if err != nil {
		return err
	}
	units := k.manager.Units()
	if err := k.manager.RemoveIndex(index); err != nil {
		return fmt.Errorf("despawn %s: %w", name, err)
	}
	event.Emit(w.bus, event.UnitDespawned{Prefab: name, ObjectID: units[index].ID, Count: k.manager.Count()})
	return nil
}

// DespawnIndices releases the live units at the given positions as one batch.
// Positions past the live count are skipped.
func (w *World) DespawnIndices(name string, indices []int) error {
	k, err := w.lookup(name)
	if err != nil {
		return err
	}
	before := k.manager.Units()
	err = k.manager.RemoveIndices(indices)
	// A failed batch may already have released its higher positions.
	w.emitRemoved(name, k, before)
	if err != nil {
		return fmt.Errorf("despawn %s: %w", name, err)
	}
	return nil
}

// emitRemoved reports every unit of before that is no longer live.
func (w *World) emitRemoved(name string, k *kind, before []*scene.Object) {
	live := make(map[*scene.Object]struct{}, k.manager.Count())
	for _, obj := range k.manager.Enumerate() {
		live[obj] = struct{}{}
	}
	for _, obj := range before {
		if _, ok := live[obj]; !ok {
			event.Emit(w.bus, event.UnitDespawned{Prefab: name, ObjectID: obj.ID, Count: k.manager.Count()})
		}
	}
}

// DespawnExpired releases every expired unit of a prefab in one batch and
// returns how many were removed.
func (w *World) DespawnExpired(name string) (int, error) {
	k, err := w.lookup(name)
	if err != nil {
		return 0, err
	}
	var indices []int
	var expired []*scene.Object
	for i, obj := range k.manager.Enumerate() {
		if obj.Expired() {
			indices = append(indices, i)
			expired = append(expired, obj)
		}
	}
	if len(indices) == 0 {
		return 0, nil
	}
	if err := k.manager.RemoveIndices(indices); err != nil {
		return 0, fmt.Errorf("expire %s: %w", name, err)
	}
	for _, obj := range expired {
		event.Emit(w.bus, event.UnitDespawned{Prefab: name, ObjectID: obj.ID, Count: k.manager.Count(), Expired: true})
	}
	return len(indices), nil
}

// MarkForDespawn queues a unit for release at the end of the frame.
func (w *World) MarkForDespawn(name string, obj *scene.Object) {
	w.despawnQueue = append(w.despawnQueue, pendingDespawn{prefab: name, obj: obj})
}

// PendingDespawns is the length of the deferred despawn queue.
func (w *World) PendingDespawns() int { return len(w.despawnQueue) }

// FlushDespawnQueue releases all queued units. Units that are no longer live
// are skipped. Called by CleanupSystem at the end of each frame.
func (w *World) FlushDespawnQueue() error {
	defer func() { w.despawnQueue = w.despawnQueue[:0] }()
	for _, p := range w.despawnQueue {
		k, err := w.lookup(p.prefab)
		if err != nil {
			return err
		}
		before := k.manager.Count()
		if err := k.manager.RemoveUnit(p.obj); err != nil {
			return fmt.Errorf("despawn %s: %w", p.prefab, err)
		}
		if k.manager.Count() < before {
			event.Emit(w.bus, event.UnitDespawned{Prefab: p.prefab, ObjectID: p.obj.ID, Count: k.manager.Count()})
		}
	}
	return nil
}

// Clear releases every live unit of a prefab.
func (w *World) Clear(name string) error {
	k, err := w.lookup(name)
	if err != nil {
		return err
	}
	if err := k.manager.ClearUnits(); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}
	return nil
}

// ClearAll releases every live unit of every prefab.
func (w *World) ClearAll() error {
	for _, name := range w.order {
		if err := w.Clear(name); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the live count of a prefab; unknown prefabs count zero.
func (w *World) Count(name string) int {
	k, ok := w.kinds[name]
	if !ok {
		return 0
	}
	return k.manager.Count()
}

// Total is the live count across all prefabs.
func (w *World) Total() int {
	n := 0
	for _, k := range w.kinds {
		n += k.manager.Count()
	}
	return n
}

// Each visits every live unit, prefab by prefab in registration order.
func (w *World) Each(fn func(prefab string, obj *scene.Object)) {
	for _, name := range w.order {
		for _, obj := range w.kinds[name].manager.Enumerate() {
			fn(name, obj)
		}
	}
}

// Stats returns pool counters per prefab.
func (w *World) Stats() map[string]unit.PoolStats {
	out := make(map[string]unit.PoolStats, len(w.kinds))
	for name, k := range w.kinds {
		out[name] = k.manager.Stats()
	}
	return out
}

// Dispose destroys every unit retained by the pools.
func (w *World) Dispose() {
	for _, name := range w.order {
		w.kinds[name].manager.Dispose()
	}
}
