// Package allocation canonicalizes execution and allocation contexts.
//
// Object references are derived from the context an object is allocated in,
// so the same allocation reached along different paths of the search receives
// the same reference. This keeps heap states of equivalent paths comparable.
//
// The caches are scoped to one search session. Init has to be called before
// the first lookup and Reset releases everything at the end of the session.
package allocation

import (
	"encoding/binary"

	"bytemc/classes"
	"bytemc/thread"
	"bytemc/vmerr"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/maps"
)

// Mixed into system contexts so they never collide with a SUT context of the same class
const systemSalt = 0x14040118

type refKey struct {
	ctx uint64
	n   int
}

// The session scoped caches
type Pool struct {
	initialized bool

	execContexts  map[uint64]*ExecutionContext
	allocContexts map[uint64]*HashedAllocationContext

	refs    map[refKey]int
	nextRef int
}

func NewPool() *Pool {
	return &Pool{}
}

// Start a new session. Any state of a previous session is dropped
func (p *Pool) Init() {
	p.execContexts = map[uint64]*ExecutionContext{}
	p.allocContexts = map[uint64]*HashedAllocationContext{}
	p.refs = map[refKey]int{}
	p.nextRef = 0
	p.initialized = true
}

// End the session and release the caches
func (p *Pool) Reset() {
	maps.Clear(p.execContexts)
	maps.Clear(p.allocContexts)
	maps.Clear(p.refs)
	p.nextRef = 0
	p.initialized = false
}

func (p *Pool) IsInitialized() bool {
	return p.initialized
}

func (p *Pool) checkInitialized(op string) {
	if !p.initialized {
		vmerr.Fatalf(op, "allocation pool used outside of a session")
	}
}

// Returns the canonical execution context of the thread's current position
func (p *Pool) ExecutionContext(ti *thread.ThreadInfo) *ExecutionContext {
	p.checkInitialized("allocation.ExecutionContext")
	lookup := newExecutionContext(ti)
	if ec, ok := p.execContexts[lookup.hash]; ok && ec.Equal(lookup) {
		return ec
	}
	p.execContexts[lookup.hash] = lookup
	return lookup
}

// Returns the context of an allocation made by the modeled program.
// The context covers the class, the allocating thread and its call stack, and the anchor
// which distinguishes several allocations made by the same instruction.
func (p *Pool) SUTContext(ci *classes.ClassInfo, ti *thread.ThreadInfo, anchor int) *HashedAllocationContext {
	p.checkInitialized("allocation.SUTContext")
	d := xxhash.New()
	d.WriteString(ci.Name())
	writeUint64(d, p.ExecutionContext(ti).hash)
	writeUint64(d, uint64(anchor))
	return p.canonical(d.Sum64())
}

// Returns the context of an allocation made by the engine on behalf of the modeled program,
// e.g. the backing array of a string. Only the class and the anchor are considered.
func (p *Pool) SystemContext(ci *classes.ClassInfo, anchor int) *HashedAllocationContext {
	p.checkInitialized("allocation.SystemContext")
	d := xxhash.New()
	d.WriteString(ci.Name())
	writeUint64(d, systemSalt)
	writeUint64(d, uint64(anchor))
	return p.canonical(d.Sum64())
}

// Derive the context of an allocation that is nested in the allocation described by ctx
func (p *Pool) Extend(ctx *HashedAllocationContext, ci *classes.ClassInfo, anchor int) *HashedAllocationContext {
	p.checkInitialized("allocation.Extend")
	d := xxhash.New()
	writeUint64(d, ctx.id)
	writeUint64(d, uint64(anchor))
	d.WriteString(ci.Name())
	return p.canonical(d.Sum64())
}

func (p *Pool) canonical(id uint64) *HashedAllocationContext {
	if ctx, ok := p.allocContexts[id]; ok {
		return ctx
	}
	ctx := &HashedAllocationContext{id: id}
	p.allocContexts[id] = ctx
	return ctx
}

// Returns the reference for the n-th allocation in ctx.
// References are dense and stable for the whole session.
func (p *Pool) RefFor(ctx *HashedAllocationContext, n int) int {
	p.checkInitialized("allocation.RefFor")
	key := refKey{ctx: ctx.id, n: n}
	if ref, ok := p.refs[key]; ok {
		return ref
	}
	ref := p.nextRef
	p.nextRef++
	p.refs[key] = ref
	return ref
}

// Number of references handed out in this session
func (p *Pool) NumRefs() int {
	return p.nextRef
}

func (p *Pool) NumExecutionContexts() int {
	return len(p.execContexts)
}

func (p *Pool) NumAllocationContexts() int {
	return len(p.allocContexts)
}

func writeUint64(d *xxhash.Digest, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	d.Write(buf[:])
}
