// Package choice implements the enumerators of the alternatives at a nondeterministic decision point.
//
// A generator exposes no choice until it is advanced for the first time.
// Each Advance moves to the next alternative until all of them have been
// processed. The order of the alternatives only depends on the id and the
// configuration of a generator, so a generator created again for the same
// decision reproduces the same sequence.
package choice

import (
	"fmt"
	"strings"
)

// Placed in front of the current choice by String
const Marker = ">>"

type Kind string

const (
	KindBoolean Kind = "boolean"
	KindInt     Kind = "int"
	KindThread  Kind = "thread"
)

// The capabilities shared by all generators, independent of the choice type
type ChoiceGenerator interface {
	ID() string
	Kind() Kind

	HasMoreChoices() bool
	// Move to the next choice. Does nothing once the last choice is reached
	Advance()
	// Move back to the state before the first Advance
	Reset()
	TotalNumberOfChoices() int
	ProcessedNumberOfChoices() int

	IsDone() bool
	// Skip the remaining choices
	SetDone()
	// A cascaded generator is followed by another generator of the same transition
	IsCascaded() bool
	SetCascaded()

	// Returns true if the choice is a thread scheduling decision
	IsSchedulingPoint() bool

	// The current choice as an untyped value
	Choice() any

	Previous() ChoiceGenerator
	SetPrevious(prev ChoiceGenerator)

	String() string
}

// A ChoiceGenerator with typed access to the current choice
type Generator[T any] interface {
	ChoiceGenerator
	NextChoice() T
}

type base struct {
	id         string
	isDone     bool
	isCascaded bool
	prev       ChoiceGenerator
}

func (b *base) ID() string {
	return b.id
}

func (b *base) IsDone() bool {
	return b.isDone
}

func (b *base) SetDone() {
	b.isDone = true
}

func (b *base) IsCascaded() bool {
	return b.isCascaded
}

func (b *base) SetCascaded() {
	b.isCascaded = true
}

func (b *base) Previous() ChoiceGenerator {
	return b.prev
}

func (b *base) SetPrevious(prev ChoiceGenerator) {
	b.prev = prev
}

func (b *base) IsSchedulingPoint() bool {
	return false
}

// Render the header and the alternatives with the marker in front of the current one.
// current is -1 before the first advance.
func format(name string, b *base, alternatives []string, current int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v[id=%q,isCascaded:%v,{", name, b.id, b.isCascaded)
	for i, a := range alternatives {
		if i > 0 {
			sb.WriteString(",")
		}
		if i == current {
			sb.WriteString(Marker)
		}
		sb.WriteString(a)
	}
	sb.WriteString("}]")
	return sb.String()
}
