package checking

import (
	"bytemc/thread"
)

// Check that the predicate happens eventually.
//
// Return a predicate that run the provided predicate on terminal states.
// Returns the value of the original predicate if the state is terminal.
// Otherwise, it always returns true.
func Eventually(pred Predicate) Predicate {
	return func(s State) bool {
		if !s.IsTerminal {
			return true
		}
		return pred(s)
	}
}

// Check that condition returns true for all threads in the provided state
//
// Returns false if cond returns false for some thread.
// Returns true otherwise.
// If aliveOnly is true, threads that have not started or have terminated are skipped.
func ForAllThreads(cond func(*thread.ThreadInfo) bool, s State, aliveOnly bool) bool {
	for _, ti := range s.Kernel.Threads().All() {
		if aliveOnly && !ti.IsAlive() {
			continue
		}
		if !cond(ti) {
			return false
		}
	}
	return true
}

// Holds unless all alive threads are blocked or waiting without timeout
func NoDeadlock(s State) bool {
	return !s.Kernel.IsDeadlocked()
}

// Holds unless the modeled program raised an uncaught exception or failed an assertion
func NoAssertionViolation(s State) bool {
	return s.Violation == nil
}

// Holds in terminal states in which all threads have terminated
func Terminates(s State) bool {
	return !s.IsTerminal || s.Kernel.IsTerminated()
}
