// Package serialize turns the state of the modeled program into a canonical
// byte string, so that states reached along different paths can be compared.
//
// Object references are renumbered in the order the serializer discovers
// them: threads first, then statics, then the objects reachable from there.
// Two heaps that only differ in the numbering of their objects therefore
// produce the same encoding.
package serialize

import (
	"fmt"

	"bytemc/choice"
	"bytemc/config"
	"bytemc/heap"
	"bytemc/kernel"
	"bytemc/monitor"
	"bytemc/thread"

	"github.com/cespare/xxhash/v2"
	"github.com/shamaton/msgpack/v2"
)

type Frame struct {
	Method string
	PC     int
	Refs   []int
	Values []int64
}

type Thread struct {
	Id         int
	State      int
	StackDepth int
	Object     int
	Lock       int
	Locked     []int
	Frames     []Frame
}

type Lock struct {
	Owner   int
	Count   int
	Waiting []int
}

type Statics struct {
	Class  string
	Values []int64
	Lock   Lock
}

type Object struct {
	Class  string
	Values []int64
	Lock   Lock
}

// The canonical form of a program state
type State struct {
	Threads []Thread
	Statics []Statics
	Objects []Object
}

// Serializes kernel states.
//
// In adaptive mode states at scheduling points only include the top frame of
// every thread and the objects directly referenced from thread state and top
// frames. Statics are skipped there, class locks are covered by the lock
// state of the threads. Other states include everything reachable.
type Serializer struct {
	adaptive bool
}

func New(cfg *config.Config) *Serializer {
	return &Serializer{adaptive: cfg.Bool(config.AdaptiveSerializer, true)}
}

func (s *Serializer) IsAdaptive() bool {
	return s.adaptive
}

// Returns the canonical form of ks.
// next is the choice generator installed for the next transition, or nil.
func (s *Serializer) Canonicalize(ks *kernel.KernelState, next choice.ChoiceGenerator) *State {
	w := &walker{
		heap:              ks.Heap(),
		ids:               map[int]int{},
		traverse:          true,
		isSchedulingPoint: s.adaptive && next != nil && next.IsSchedulingPoint(),
	}
	return w.walk(ks)
}

// Returns the msgpack encoding of the canonical form of ks
func (s *Serializer) Serialize(ks *kernel.KernelState, next choice.ChoiceGenerator) ([]byte, error) {
	return s.Canonicalize(ks, next).Encode()
}

// Returns a 64 bit hash of the encoding of ks
func (s *Serializer) Signature(ks *kernel.KernelState, next choice.ChoiceGenerator) (uint64, error) {
	return s.Canonicalize(ks, next).Signature()
}

// Returns the msgpack encoding of st
func (st *State) Encode() ([]byte, error) {
	b, err := msgpack.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	return b, nil
}

// Returns a 64 bit hash of the encoding of st
func (st *State) Signature() (uint64, error) {
	b, err := st.Encode()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

type walker struct {
	heap              *heap.Heap
	ids               map[int]int
	queue             []int
	traverse          bool
	isSchedulingPoint bool
	state             State
}

func (w *walker) walk(ks *kernel.KernelState) *State {
	w.state = State{Threads: []Thread{}, Statics: []Statics{}, Objects: []Object{}}
	for _, ti := range ks.Threads().All() {
		w.state.Threads = append(w.state.Threads, w.thread(ti))
	}
	if !w.isSchedulingPoint {
		for _, cl := range ks.ClassLoaders().All() {
			for _, sei := range cl.StaticArea().All() {
				values := make([]int64, sei.ClassInfo().NumStaticFields())
				for i := range values {
					values[i] = sei.Slot(i)
				}
				for _, slot := range sei.ClassInfo().StaticReferenceSlots() {
					values[slot] = int64(w.ref(int(values[slot])))
				}
				w.state.Statics = append(w.state.Statics, Statics{
					Class:  sei.ClassInfo().Name(),
					Values: values,
					Lock:   lock(sei.Monitor()),
				})
			}
		}
	}
	if w.isSchedulingPoint {
		// only the objects queued so far are serialized
		w.traverse = false
	}
	for len(w.queue) > 0 {
		ref := w.queue[0]
		w.queue = w.queue[1:]
		w.object(w.heap.Get(ref))
	}
	return &w.state
}

// Returns the canonical id of ref, queueing the object on first discovery
func (w *walker) ref(ref int) int {
	if ref == -1 || !w.heap.IsAlive(ref) {
		return -1
	}
	if id, ok := w.ids[ref]; ok {
		return id
	}
	id := len(w.ids)
	w.ids[ref] = id
	if w.traverse {
		w.queue = append(w.queue, ref)
	}
	return id
}

func (w *walker) thread(ti *thread.ThreadInfo) Thread {
	t := Thread{
		Id:         ti.Id(),
		State:      int(ti.State()),
		StackDepth: ti.StackDepth(),
		Object:     w.ref(ti.ObjectRef()),
		Lock:       w.ref(ti.LockRef()),
		Locked:     []int{},
		Frames:     []Frame{},
	}
	for _, ref := range ti.LockedObjects() {
		t.Locked = append(t.Locked, w.ref(ref))
	}
	frames := ti.Frames()
	if w.isSchedulingPoint && len(frames) > 0 {
		frames = frames[:1]
	}
	for _, f := range frames {
		refs := make([]int, len(f.Refs))
		for i, ref := range f.Refs {
			refs[i] = w.ref(ref)
		}
		t.Frames = append(t.Frames, Frame{Method: f.Method, PC: f.PC, Refs: refs, Values: f.Values})
	}
	return t
}

func (w *walker) object(ei *heap.ElementInfo) {
	values := make([]int64, ei.NumSlots())
	for i := range values {
		values[i] = ei.Slot(i)
	}
	ei.ForEachReferenceSlot(func(slot int, ref int) {
		values[slot] = int64(w.ref(ref))
	})
	w.state.Objects = append(w.state.Objects, Object{
		Class:  ei.ClassInfo().Name(),
		Values: values,
		Lock:   lock(ei.Monitor()),
	})
}

func lock(m *monitor.Monitor) Lock {
	l := Lock{Owner: -1, Count: m.LockCount(), Waiting: []int{}}
	if owner := m.LockingThread(); owner != nil {
		l.Owner = owner.Id()
	}
	for _, ti := range m.LockedThreads() {
		l.Waiting = append(l.Waiting, ti.Id())
	}
	return l
}
