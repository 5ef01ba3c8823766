// Package unit manages live units checked out of a recycling pool.
//
// A Manager hands out units from an ObjectPool, keeps them in an ordered live
// list, and returns them to the pool on removal. Index positions in the live
// list are stable until the next removal and are part of the API.
package unit

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/boraty14/Becs/internal/config"
	"github.com/boraty14/Becs/internal/core/pool"
	"go.uber.org/zap"
)

var (
	ErrPoolNotInitialized = errors.New("unit: InitPool must be called before using the pool")
	ErrIndexOutOfRange    = errors.New("unit: index out of range")
)

// PoolStats is a point-in-time view of a manager's pool.
type PoolStats struct {
	All      int
	Active   int
	Inactive int
	Max      int
}

// Manager tracks the units of one kind. Not safe for concurrent use; it is
// owned by the frame loop.
type Manager[T comparable] struct {
	lifecycle Lifecycle[T]
	pool      *pool.ObjectPool[T]
	units     []T
	log       *zap.Logger
}

func New[T comparable](lc Lifecycle[T], log *zap.Logger) *Manager[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager[T]{
		lifecycle: lc,
		units:     make([]T, 0, 16),
		log:       log,
	}
}

// InitPool (re)builds the pool. Live units stay in the live list and are
// counted as handed out by the new pool, which takes them back on removal.
func (m *Manager[T]) InitPool(cfg config.PoolConfig) error {
	create := createFunc(m.lifecycle)
	if create == nil {
		return fmt.Errorf("init pool: %w", pool.ErrNoFactory)
	}
	p, err := pool.New(pool.Hooks[T]{
		Create:    create,
		OnGet:     m.lifecycle.Activate,
		OnRelease: m.lifecycle.Deactivate,
		OnDestroy: m.lifecycle.Destroy,
	}, cfg.CollectionChecks, cfg.Initial, cfg.Max)
	if err != nil {
		return fmt.Errorf("init pool: %w", err)
	}
	p.Adopt(len(m.units))
	m.pool = p
	return nil
}

// createFunc returns lc's constructor, or nil when lc cannot build units.
func createFunc[T any](lc Lifecycle[T]) func() T {
	switch h := lc.(type) {
	case nil:
		return nil
	case Hooks[T]:
		return h.OnCreate
	case *Hooks[T]:
		if h == nil {
			return nil
		}
		return h.OnCreate
	}
	return lc.Create
}

func (m *Manager[T]) getPool() (*pool.ObjectPool[T], error) {
	if m.pool == nil {
		return nil, ErrPoolNotInitialized
	}
	return m.pool, nil
}

// AddUnit takes a unit from the pool and appends it to the live list.
func (m *Manager[T]) AddUnit() (T, error) {
	p, err := m.getPool()
	if err != nil {
		var zero T
		return zero, err
	}
	u := p.Get()
	m.units = append(m.units, u)
	return u, nil
}

// RemoveUnit drops the first live occurrence of u and releases it. A unit that
// is not live is ignored.
func (m *Manager[T]) RemoveUnit(u T) error {
	p, err := m.getPool()
	if err != nil {
		return err
	}
	i := slices.Index(m.units, u)
	if i < 0 {
		return nil
	}
	m.units = slices.Delete(m.units, i, i+1)
	return p.Release(u)
}

// AddSingle adds a unit to a manager expected to hold at most one. Existing
// units are logged and cleared first.
func (m *Manager[T]) AddSingle() (T, error) {
	if n := m.Count(); n != 0 {
		m.log.Warn("unit is not single",
			zap.String("type", m.typeName()), zap.Int("count", n))
		if err := m.ClearUnits(); err != nil {
			var zero T
			return zero, err
		}
	}
	return m.AddUnit()
}

func (m *Manager[T]) RemoveIndex(index int) error {
	if index < 0 || index >= len(m.units) {
		return m.outOfRange(index)
	}
	return m.RemoveUnit(m.units[index])
}

// RemoveIndices removes the units at the given positions as one batch.
// Positions are processed highest first so earlier removals never shift a
// pending one. A position at or past the current count is skipped, which also
// swallows stale or duplicate positions.
func (m *Manager[T]) RemoveIndices(indices []int) error {
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	for _, index := range sorted {
		if index >= m.Count() {
			continue
		}
		if err := m.RemoveIndex(index); err != nil {
			return err
		}
	}
	return nil
}

// ClearUnits releases every live unit, last to first.
func (m *Manager[T]) ClearUnits() error {
	for i := len(m.units) - 1; i >= 0; i-- {
		if err := m.RemoveUnit(m.units[i]); err != nil {
			return err
		}
	}
	return nil
}

// Units returns a copy of the live list.
func (m *Manager[T]) Units() []T {
	return slices.Clone(m.units)
}

// Enumerate yields (index, unit) pairs in live order. Do not add or remove
// units while iterating.
func (m *Manager[T]) Enumerate() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, u := range m.units {
			if !yield(i, u) {
				return
			}
		}
	}
}

// Single returns the first live unit, warning when the manager does not hold
// exactly one.
func (m *Manager[T]) Single() (T, error) {
	n := m.Count()
	if n != 1 {
		m.log.Warn("unit is not single",
			zap.String("type", m.typeName()), zap.Int("count", n))
	}
	if n == 0 {
		var zero T
		return zero, m.outOfRange(0)
	}
	return m.units[0], nil
}

func (m *Manager[T]) Count() int    { return len(m.units) }
func (m *Manager[T]) IsEmpty() bool { return len(m.units) == 0 }

// Stats reports the pool's counters. The zero value is returned before
// InitPool.
func (m *Manager[T]) Stats() PoolStats {
	if m.pool == nil {
		return PoolStats{}
	}
	return PoolStats{
		All:      m.pool.CountAll(),
		Active:   m.pool.CountActive(),
		Inactive: m.pool.CountInactive(),
		Max:      m.pool.MaxSize(),
	}
}

// Dispose destroys the units retained by the pool. Live units are untouched.
func (m *Manager[T]) Dispose() {
	if m.pool != nil {
		m.pool.Dispose()
	}
}

func (m *Manager[T]) outOfRange(index int) error {
	return fmt.Errorf("%w: index %d, count %d", ErrIndexOutOfRange, index, len(m.units))
}

func (m *Manager[T]) typeName() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
