package checking

import (
	"bytemc/kernel"
	"bytemc/state"
)

// The state of the modeled program at the current point of the search
type State struct {
	// Heap, threads and statics
	Kernel *kernel.KernelState
	// The choice generators leading to this state
	System *state.SystemState
	// True if no transition leaves this state. False otherwise.
	IsTerminal bool
	// An uncaught exception or failed assertion of the modeled program. nil if there is none
	Violation error
}
