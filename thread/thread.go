package thread

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// The scheduling state of a thread in the modeled program
type State int

const (
	Created State = iota
	Running
	Blocked
	Unblocked
	Waiting
	TimeoutWaiting
	Notified
	Interrupted
	Timedout
	Sleeping
	Terminated
)

var stateNames = map[State]string{
	Created:        "NEW",
	Running:        "RUNNING",
	Blocked:        "BLOCKED",
	Unblocked:      "UNBLOCKED",
	Waiting:        "WAITING",
	TimeoutWaiting: "TIMEOUT_WAITING",
	Notified:       "NOTIFIED",
	Interrupted:    "INTERRUPTED",
	Timedout:       "TIMEDOUT",
	Sleeping:       "SLEEPING",
	Terminated:     "TERMINATED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// A thread of the modeled program.
//
// Threads are identified by a dense, search global id. The id defines the
// ordering used wherever thread sets have to be canonical, e.g. the waiter
// list of a Monitor.
type ThreadInfo struct {
	id     int
	name   string
	state  State
	daemon bool

	// Reference of the thread object on the heap. -1 if there is none
	objRef int
	// Reference of the object the thread is blocked on or waiting for. -1 if there is none
	lockRef int
	// References of the objects locked by this thread, in acquisition order
	lockedRefs []int

	// The call stack. The last frame is the top frame
	stack []*Frame
}

// Create a new thread in the Created state
func New(id int, name string, objRef int) *ThreadInfo {
	return &ThreadInfo{
		id:      id,
		name:    name,
		state:   Created,
		objRef:  objRef,
		lockRef: -1,
	}
}

func (ti *ThreadInfo) Id() int {
	return ti.id
}

func (ti *ThreadInfo) Name() string {
	return ti.name
}

func (ti *ThreadInfo) State() State {
	return ti.state
}

func (ti *ThreadInfo) SetState(s State) {
	ti.state = s
}

func (ti *ThreadInfo) ObjectRef() int {
	return ti.objRef
}

func (ti *ThreadInfo) LockRef() int {
	return ti.lockRef
}

func (ti *ThreadInfo) SetLockRef(ref int) {
	ti.lockRef = ref
}

func (ti *ThreadInfo) IsDaemon() bool {
	return ti.daemon
}

func (ti *ThreadInfo) SetDaemon(daemon bool) {
	ti.daemon = daemon
}

// Returns true if the thread can be scheduled.
// Sleeping and timed out threads count as runnable since time is not modeled.
func (ti *ThreadInfo) IsRunnable() bool {
	switch ti.state {
	case Running, Unblocked, Interrupted, Timedout, Sleeping:
		return true
	}
	return false
}

// Returns true if the thread has been started and has not terminated
func (ti *ThreadInfo) IsAlive() bool {
	return ti.state != Created && ti.state != Terminated
}

func (ti *ThreadInfo) IsTerminated() bool {
	return ti.state == Terminated
}

func (ti *ThreadInfo) IsBlocked() bool {
	return ti.state == Blocked
}

func (ti *ThreadInfo) IsWaiting() bool {
	return ti.state == Waiting || ti.state == TimeoutWaiting
}

// Returns true if the thread is waiting with a timeout and therefore can always make progress
func (ti *ThreadInfo) IsTimeoutWaiting() bool {
	return ti.state == TimeoutWaiting
}

func (ti *ThreadInfo) StackDepth() int {
	return len(ti.stack)
}

func (ti *ThreadInfo) PushFrame(f *Frame) {
	ti.stack = append(ti.stack, f)
}

// Remove and return the top frame. Returns nil if the stack is empty
func (ti *ThreadInfo) PopFrame() *Frame {
	if len(ti.stack) == 0 {
		return nil
	}
	f := ti.stack[len(ti.stack)-1]
	ti.stack = ti.stack[:len(ti.stack)-1]
	return f
}

// Returns the top frame, or nil if the stack is empty
func (ti *ThreadInfo) TopFrame() *Frame {
	if len(ti.stack) == 0 {
		return nil
	}
	return ti.stack[len(ti.stack)-1]
}

// Returns the frames of the stack, top frame first
func (ti *ThreadInfo) Frames() []*Frame {
	out := make([]*Frame, 0, len(ti.stack))
	for i := len(ti.stack) - 1; i >= 0; i-- {
		out = append(out, ti.stack[i])
	}
	return out
}

func (ti *ThreadInfo) AddLockedObject(ref int) {
	ti.lockedRefs = append(ti.lockedRefs, ref)
}

// Remove the most recent acquisition of ref
func (ti *ThreadInfo) RemoveLockedObject(ref int) {
	for i := len(ti.lockedRefs) - 1; i >= 0; i-- {
		if ti.lockedRefs[i] == ref {
			ti.lockedRefs = slices.Delete(ti.lockedRefs, i, i+1)
			return
		}
	}
}

func (ti *ThreadInfo) LockedObjects() []int {
	return slices.Clone(ti.lockedRefs)
}

// Compare the identity of two threads.
// Returns a negative number if ti orders before other, 0 if they are the same thread and a positive number otherwise.
func (ti *ThreadInfo) Compare(other *ThreadInfo) int {
	return ti.id - other.id
}

// Mark the heap references held by the thread
func (ti *ThreadInfo) MarkRoots(m RootMarker) {
	if ti.objRef != -1 {
		m.MarkThreadRoot(ti.objRef, ti.id)
	}
	if !ti.IsAlive() {
		return
	}
	if ti.lockRef != -1 {
		m.MarkThreadRoot(ti.lockRef, ti.id)
	}
	for _, f := range ti.stack {
		for _, ref := range f.Refs {
			if ref != -1 {
				m.MarkThreadRoot(ref, ti.id)
			}
		}
	}
}

func (ti *ThreadInfo) String() string {
	return fmt.Sprintf("{Thread %v %q %v}", ti.id, ti.name, ti.state)
}

// Receives the references reachable from thread roots during the mark phase of a garbage collection
type RootMarker interface {
	MarkThreadRoot(objref int, tid int)
}
