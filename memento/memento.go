// Package memento defines the snapshot/restore contract shared by all stateful components.
//
// A Memento is an immutable, structurally shared snapshot of a component.
// Restoring is in place: the live instance is mutated back into the captured
// shape and returned, no replacement instance is allocated for the caller.
package memento

type Memento[T any] interface {
	Restore(inSitu T) T
}

// A component that can produce a Memento of itself
type Restorable[T any] interface {
	GetMemento() Memento[T]
}

// Adapts a function to the Memento interface
type Func[T any] func(inSitu T) T

func (f Func[T]) Restore(inSitu T) T {
	return f(inSitu)
}
