// Package tree records the transitions taken by a search.
//
// Every node holds the step that led to it. The path from the root to a
// node replays the choices that reach the state of the node.
package tree

import (
	"fmt"
	"strings"
)

type Tree[T any] struct {
	payload  T
	parent   *Tree[T]
	children []*Tree[T]
	depth    int
}

func New[T any](payload T) *Tree[T] {
	return &Tree[T]{
		payload:  payload,
		children: []*Tree[T]{},
	}
}

// Returns the total number of nodes in the tree
func (t *Tree[T]) Len() int {
	n := 1
	for _, child := range t.children {
		n += child.Len()
	}
	return n
}

// Adds a new child with the provided payload and returns it
func (t *Tree[T]) AddChild(payload T) *Tree[T] {
	child := &Tree[T]{
		payload:  payload,
		parent:   t,
		children: []*Tree[T]{},
		depth:    t.depth + 1,
	}
	t.children = append(t.children, child)
	return child
}

func (t *Tree[T]) Payload() T {
	return t.payload
}

// Update the payload, e.g. once the state reached by the step is known
func (t *Tree[T]) SetPayload(payload T) {
	t.payload = payload
}

func (t *Tree[T]) Parent() *Tree[T] {
	return t.parent
}

func (t *Tree[T]) Children() []*Tree[T] {
	return t.children
}

func (t *Tree[T]) Depth() int {
	return t.depth
}

func (t *Tree[T]) IsRoot() bool {
	return t.parent == nil
}

func (t *Tree[T]) IsLeafNode() bool {
	return len(t.children) == 0
}

// Returns the leaf nodes below t, in depth first order
func (t *Tree[T]) Leaves() []*Tree[T] {
	if t.IsLeafNode() {
		return []*Tree[T]{t}
	}
	leaves := []*Tree[T]{}
	for _, child := range t.children {
		leaves = append(leaves, child.Leaves()...)
	}
	return leaves
}

// Returns the payloads from the root to t
func (t *Tree[T]) Path() []T {
	path := make([]T, t.depth+1)
	for n := t; n != nil; n = n.parent {
		path[n.depth] = n.payload
	}
	return path
}

// Returns the first node in depth first order for which match returns true, or nil
func (t *Tree[T]) Find(match func(T) bool) *Tree[T] {
	if match(t.payload) {
		return t
	}
	for _, child := range t.children {
		if found := child.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// One line per node, indented by depth
func (t *Tree[T]) String() string {
	out := strings.Builder{}
	out.WriteString(strings.Repeat("-", t.depth))
	out.WriteString(fmt.Sprintf("%v\n", t.payload))
	for _, child := range t.children {
		out.WriteString(child.String())
	}
	return out.String()
}

// The tree in Newick format, e.g. for rendering with a phylogeny viewer
func (t *Tree[T]) Newick() string {
	out := strings.Builder{}
	if len(t.children) > 0 {
		out.WriteString("(")
		for i, child := range t.children {
			if i > 0 {
				out.WriteString(",")
			}
			out.WriteString(child.Newick())
		}
		out.WriteString(")")
	}
	out.WriteString(fmt.Sprintf("%q", fmt.Sprint(t.payload)))
	if t.IsRoot() {
		out.WriteString(";")
	}
	return out.String()
}
