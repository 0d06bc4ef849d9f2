package block

import "sync"

// Lazy is a deferred value produced by a loader on first use. The result,
// including any error, is memoised.
type Lazy[T any] struct {
	once   sync.Once
	load   func() (T, error)
	value  T
	err    error
	loaded bool
}

// NewLazy wraps load.
func NewLazy[T any](load func() (T, error)) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Ready wraps an already available value.
func Ready[T any](v T) *Lazy[T] {
	l := &Lazy[T]{value: v, loaded: true}
	l.once.Do(func() {})
	return l
}

// Resolve runs the loader once and returns its result.
func (l *Lazy[T]) Resolve() (T, error) {
	l.once.Do(func() {
		l.value, l.err = l.load()
		l.loaded = true
	})
	return l.value, l.err
}

// Resolved reports whether the loader has already run.
func (l *Lazy[T]) Resolved() bool { return l.loaded }
