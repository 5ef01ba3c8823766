package unit

import "github.com/boraty14/Becs/internal/scene"

// Lifecycle constructs, toggles and destroys managed units. The manager treats
// units as opaque and only goes through these four calls.
type Lifecycle[T any] interface {
	Create() T
	Activate(u T)
	Deactivate(u T)
	Destroy(u T)
}

// Hooks adapts four functions to Lifecycle. OnCreate is required; nil toggles
// and Destroy are no-ops.
type Hooks[T any] struct {
	OnCreate     func() T
	OnActivate   func(T)
	OnDeactivate func(T)
	OnDestroy    func(T)
}

func (h Hooks[T]) Create() T {
	return h.OnCreate()
}

func (h Hooks[T]) Activate(u T) {
	if h.OnActivate != nil {
		h.OnActivate(u)
	}
}

func (h Hooks[T]) Deactivate(u T) {
	if h.OnDeactivate != nil {
		h.OnDeactivate(u)
	}
}

func (h Hooks[T]) Destroy(u T) {
	if h.OnDestroy != nil {
		h.OnDestroy(u)
	}
}

// Unit is what the prefab lifecycle needs from an instantiated object.
type Unit interface {
	SetActive(active bool)
	Destroy()
}

// Prefab builds new units under an owner node.
type Prefab[T Unit] interface {
	Instantiate(owner *scene.Node) T
}

// PrefabLifecycle is the default lifecycle: instantiate the prefab under the
// owner, activate on get, deactivate on release, destroy when discarded.
type PrefabLifecycle[T Unit] struct {
	Prefab Prefab[T]
	Owner  *scene.Node
}

func (l PrefabLifecycle[T]) Create() T      { return l.Prefab.Instantiate(l.Owner) }
func (l PrefabLifecycle[T]) Activate(u T)   { u.SetActive(true) }
func (l PrefabLifecycle[T]) Deactivate(u T) { u.SetActive(false) }
func (l PrefabLifecycle[T]) Destroy(u T)    { u.Destroy() }
