package pool

import "errors"

var (
	ErrInvalidMaxSize  = errors.New("pool: max size must be greater than 0")
	ErrNoFactory       = errors.New("pool: create hook is required")
	ErrAlreadyReleased = errors.New("pool: object has already been released to the pool")
)

// Hooks are the four lifecycle callbacks of a pooled object. Only Create is
// required.
type Hooks[T any] struct {
	Create    func() T
	OnGet     func(T)
	OnRelease func(T)
	OnDestroy func(T)
}

// ObjectPool is a bounded free list of inactive objects. Released objects are
// retained up to maxSize; beyond that they are destroyed instead.
// Not safe for concurrent use.
type ObjectPool[T comparable] struct {
	hooks           Hooks[T]
	free            []T
	maxSize         int
	collectionCheck bool
	countAll        int
}

// New creates a pool. defaultCapacity only pre-sizes the free list; objects
// are created lazily on Get.
func New[T comparable](hooks Hooks[T], collectionCheck bool, defaultCapacity, maxSize int) (*ObjectPool[T], error) {
	if maxSize <= 0 {
		return nil, ErrInvalidMaxSize
	}
	if hooks.Create == nil {
		return nil, ErrNoFactory
	}
	if defaultCapacity < 0 {
		defaultCapacity = 0
	}
	return &ObjectPool[T]{
		hooks:           hooks,
		free:            make([]T, 0, defaultCapacity),
		maxSize:         maxSize,
		collectionCheck: collectionCheck,
	}, nil
}

// Get pops the most recently released object, or creates a new one.
func (p *ObjectPool[T]) Get() T {
	var v T
	if n := len(p.free); n > 0 {
		v = p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
	} else {
		v = p.hooks.Create()
		p.countAll++
	}
	if p.hooks.OnGet != nil {
		p.hooks.OnGet(v)
	}
	return v
}

// Release returns v to the pool. When the pool already retains maxSize
// objects, v is destroyed rather than kept.
func (p *ObjectPool[T]) Release(v T) error {
	if p.collectionCheck && p.contains(v) {
		return ErrAlreadyReleased
	}
	if len(p.free) < p.maxSize {
		if p.hooks.OnRelease != nil {
			p.hooks.OnRelease(v)
		}
		p.free = append(p.free, v)
		return nil
	}
	p.destroy(v)
	p.countAll--
	return nil
}

// Adopt counts n objects created elsewhere as handed out by this pool, so
// releasing them later keeps the counters consistent.
func (p *ObjectPool[T]) Adopt(n int) {
	if n > 0 {
		p.countAll += n
	}
}

// Clear destroys every retained object.
func (p *ObjectPool[T]) Clear() {
	for i, v := range p.free {
		p.destroy(v)
		var zero T
		p.free[i] = zero
	}
	p.countAll -= len(p.free)
	p.free = p.free[:0]
}

func (p *ObjectPool[T]) Dispose() { p.Clear() }

// CountAll is the number of objects created by the pool and not yet destroyed.
func (p *ObjectPool[T]) CountAll() int { return p.countAll }

// CountActive is the number of objects handed out and not released.
func (p *ObjectPool[T]) CountActive() int { return p.countAll - len(p.free) }

// CountInactive is the number of retained objects awaiting reuse.
func (p *ObjectPool[T]) CountInactive() int { return len(p.free) }

func (p *ObjectPool[T]) MaxSize() int { return p.maxSize }

func (p *ObjectPool[T]) contains(v T) bool {
	for _, f := range p.free {
		if f == v {
			return true
		}
	}
	return false
}

func (p *ObjectPool[T]) destroy(v T) {
	if p.hooks.OnDestroy != nil {
		p.hooks.OnDestroy(v)
	}
}
