// Package state keeps the chain of choice generators that leads to the current program state.
package state

import (
	"errors"

	"bytemc/choice"
	"bytemc/memento"
	"bytemc/vmerr"
)

var ErrAtomicSection = errors.New("state: no choice generator can be installed inside an atomic section")

// The boundary between transitions.
//
// current is the choice generator of the running transition. Its Previous
// links lead back to the root of the search. next is the generator installed
// during the running transition, it becomes current when the next transition
// is initialized.
type SystemState struct {
	current choice.ChoiceGenerator
	next    choice.ChoiceGenerator

	atomicLevel              int
	isBlockedInAtomicSection bool
}

func New() *SystemState {
	return &SystemState{}
}

// Install cg as the choice generator of the next transition.
//
// If a generator was already installed during this transition, cg is
// cascaded behind it. Inside an atomic section the install is refused unless
// the running thread blocked and the section has to be broken.
func (ss *SystemState) SetNextChoiceGenerator(cg choice.ChoiceGenerator) error {
	if cg == nil {
		return nil
	}
	if ss.IsAtomic() && !ss.isBlockedInAtomicSection {
		return ErrAtomicSection
	}
	if ss.next != nil {
		cg.SetPrevious(ss.next)
		ss.next.SetCascaded()
	} else {
		cg.SetPrevious(ss.current)
	}
	ss.next = cg
	return nil
}

// Returns the generator installed during the running transition, or nil
func (ss *SystemState) NextChoiceGenerator() choice.ChoiceGenerator {
	return ss.next
}

func (ss *SystemState) CurrentChoiceGenerator() choice.ChoiceGenerator {
	return ss.current
}

// Returns true if the running transition ends in a decision point
func (ss *SystemState) HasNextChoiceGenerator() bool {
	return ss.next != nil
}

// Start the next transition: the installed generator becomes current and
// exposes its first choice. Returns the new current generator, or nil if
// none was installed.
//
// A thread that blocked inside an atomic section gives up the section here,
// since another thread is scheduled.
func (ss *SystemState) InitializeNextTransition() choice.ChoiceGenerator {
	if ss.next == nil {
		return nil
	}
	ss.current = ss.next
	ss.next = nil
	ss.current.Advance()
	if ss.isBlockedInAtomicSection {
		ss.isBlockedInAtomicSection = false
		ss.atomicLevel = 0
	}
	return ss.current
}

// Move the current generator to its next choice for the next branch.
// Returns false if there is no current generator or it is exhausted.
func (ss *SystemState) AdvanceCurrent() bool {
	if ss.current == nil || !ss.current.HasMoreChoices() {
		return false
	}
	ss.current.Advance()
	return true
}

//--- atomic sections

func (ss *SystemState) EnterAtomic() {
	ss.atomicLevel++
}

func (ss *SystemState) ExitAtomic() {
	if ss.atomicLevel <= 0 {
		vmerr.Fatalf("state.ExitAtomic", "no atomic section to exit")
	}
	ss.atomicLevel--
}

func (ss *SystemState) IsAtomic() bool {
	return ss.atomicLevel > 0
}

func (ss *SystemState) AtomicLevel() int {
	return ss.atomicLevel
}

// Allow a choice generator inside the atomic section because the running thread blocked
func (ss *SystemState) SetBlockedInAtomicSection() {
	ss.isBlockedInAtomicSection = true
}

func (ss *SystemState) IsBlockedInAtomicSection() bool {
	return ss.isBlockedInAtomicSection
}

//--- the chain

// Returns the generators leading to the current state, root first
func (ss *SystemState) ChoiceGenerators() []choice.ChoiceGenerator {
	out := make([]choice.ChoiceGenerator, ss.Depth())
	i := len(out) - 1
	for cg := ss.current; cg != nil; cg = cg.Previous() {
		out[i] = cg
		i--
	}
	return out
}

// Returns the most recent generator of the given kind, or nil
func (ss *SystemState) LastOfKind(kind choice.Kind) choice.ChoiceGenerator {
	for cg := ss.current; cg != nil; cg = cg.Previous() {
		if cg.Kind() == kind {
			return cg
		}
	}
	return nil
}

// Number of generators leading to the current state
func (ss *SystemState) Depth() int {
	n := 0
	for cg := ss.current; cg != nil; cg = cg.Previous() {
		n++
	}
	return n
}

type systemStateMemento struct {
	current                  choice.ChoiceGenerator
	atomicLevel              int
	isBlockedInAtomicSection bool
}

// Snapshot the position in the chain. The generators themselves are not
// copied, their progress is the progress of the search.
func (ss *SystemState) GetMemento() memento.Memento[*SystemState] {
	return &systemStateMemento{
		current:                  ss.current,
		atomicLevel:              ss.atomicLevel,
		isBlockedInAtomicSection: ss.isBlockedInAtomicSection,
	}
}

func (sm *systemStateMemento) Restore(ss *SystemState) *SystemState {
	ss.current = sm.current
	ss.next = nil
	ss.atomicLevel = sm.atomicLevel
	ss.isBlockedInAtomicSection = sm.isBlockedInAtomicSection
	return ss
}
