package choice

import (
	"fmt"
	"math/rand"
)

// A generator enumerating a fixed list of values in list order
type listChoice[T any] struct {
	base
	name   string
	kind   Kind
	values []T
	count  int
}

func newListChoice[T any](name string, kind Kind, id string, values []T) listChoice[T] {
	return listChoice[T]{
		base:   base{id: id},
		name:   name,
		kind:   kind,
		values: values,
		count:  -1,
	}
}

func (l *listChoice[T]) Kind() Kind {
	return l.kind
}

func (l *listChoice[T]) HasMoreChoices() bool {
	return !l.isDone && l.count < len(l.values)-1
}

// Returns the current choice, the zero value before the first advance
func (l *listChoice[T]) NextChoice() T {
	if l.count < 0 || l.count >= len(l.values) {
		var zero T
		return zero
	}
	return l.values[l.count]
}

func (l *listChoice[T]) Choice() any {
	return l.NextChoice()
}

func (l *listChoice[T]) Advance() {
	if l.count < len(l.values)-1 {
		l.count++
	}
}

func (l *listChoice[T]) Reset() {
	l.count = -1
	l.isDone = false
}

func (l *listChoice[T]) TotalNumberOfChoices() int {
	return len(l.values)
}

func (l *listChoice[T]) ProcessedNumberOfChoices() int {
	return l.count + 1
}

// The alternatives in enumeration order
func (l *listChoice[T]) Values() []T {
	out := make([]T, len(l.values))
	copy(out, l.values)
	return out
}

func (l *listChoice[T]) String() string {
	alternatives := make([]string, len(l.values))
	for i, v := range l.values {
		alternatives[i] = fmt.Sprint(v)
	}
	return format(l.name, &l.base, alternatives, l.count)
}

func (l *listChoice[T]) shuffle(r *rand.Rand) {
	r.Shuffle(len(l.values), func(i, j int) {
		l.values[i], l.values[j] = l.values[j], l.values[i]
	})
	l.Reset()
}
