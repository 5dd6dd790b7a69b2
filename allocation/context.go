package allocation

import (
	"fmt"
	"strings"

	"bytemc/thread"

	"github.com/cespare/xxhash/v2"
)

// A code position within a call stack
type Location struct {
	Method string
	PC     int
}

// The position of a thread: its id and the locations of its call stack, top frame first.
// Instances returned by Pool.ExecutionContext are canonical and can be compared by identity.
type ExecutionContext struct {
	tid   int
	stack []Location
	hash  uint64
}

func newExecutionContext(ti *thread.ThreadInfo) *ExecutionContext {
	ec := &ExecutionContext{tid: ti.Id()}
	d := xxhash.New()
	writeUint64(d, uint64(ti.Id()))
	for _, f := range ti.Frames() {
		ec.stack = append(ec.stack, Location{Method: f.Method, PC: f.PC})
		d.WriteString(f.Method)
		writeUint64(d, uint64(f.PC))
	}
	ec.hash = d.Sum64()
	return ec
}

func (ec *ExecutionContext) ThreadId() int {
	return ec.tid
}

func (ec *ExecutionContext) StackDepth() int {
	return len(ec.stack)
}

func (ec *ExecutionContext) Stack() []Location {
	return ec.stack
}

func (ec *ExecutionContext) Hash() uint64 {
	return ec.hash
}

func (ec *ExecutionContext) Equal(other *ExecutionContext) bool {
	if ec == other {
		return true
	}
	if ec.hash != other.hash || ec.tid != other.tid || len(ec.stack) != len(other.stack) {
		return false
	}
	for i := range ec.stack {
		if ec.stack[i] != other.stack[i] {
			return false
		}
	}
	return true
}

func (ec *ExecutionContext) String() string {
	locs := make([]string, len(ec.stack))
	for i, l := range ec.stack {
		locs[i] = fmt.Sprintf("%v@%v", l.Method, l.PC)
	}
	return fmt.Sprintf("(tid=%v,stack=[%v])", ec.tid, strings.Join(locs, ","))
}

// An allocation context identified by its hash.
// Two contexts with the same hash are considered equal.
type HashedAllocationContext struct {
	id uint64
}

func (ctx *HashedAllocationContext) Id() uint64 {
	return ctx.id
}

func (ctx *HashedAllocationContext) String() string {
	return fmt.Sprintf("ctx-%016x", ctx.id)
}
