package thread

import (
	"encoding/binary"

	"bytemc/memento"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

// The list of all threads of the modeled program, ordered by thread id
type ThreadList struct {
	threads []*ThreadInfo
	current *ThreadInfo
}

func NewList() *ThreadList {
	return &ThreadList{
		threads: []*ThreadInfo{},
	}
}

// Add a thread to the list. The list stays ordered by thread id.
// Adding a thread with an id that is already present replaces the existing thread.
func (tl *ThreadList) Add(ti *ThreadInfo) {
	i, found := slices.BinarySearchFunc(tl.threads, ti, func(a, b *ThreadInfo) int { return a.Compare(b) })
	if found {
		tl.threads[i] = ti
		return
	}
	tl.threads = slices.Insert(tl.threads, i, ti)
}

// Returns the thread with the given id or nil
func (tl *ThreadList) Get(id int) *ThreadInfo {
	for _, ti := range tl.threads {
		if ti.id == id {
			return ti
		}
	}
	return nil
}

func (tl *ThreadList) Len() int {
	return len(tl.threads)
}

// Returns all threads ordered by id
func (tl *ThreadList) All() []*ThreadInfo {
	return slices.Clone(tl.threads)
}

// The thread that executes the current transition. May be nil before the first transition
func (tl *ThreadList) Current() *ThreadInfo {
	return tl.current
}

func (tl *ThreadList) SetCurrent(ti *ThreadInfo) {
	tl.current = ti
}

func (tl *ThreadList) RunnableThreads() []*ThreadInfo {
	out := []*ThreadInfo{}
	for _, ti := range tl.threads {
		if ti.IsRunnable() {
			out = append(out, ti)
		}
	}
	return out
}

func (tl *ThreadList) RunnableThreadCount() int {
	n := 0
	for _, ti := range tl.threads {
		if ti.IsRunnable() {
			n++
		}
	}
	return n
}

// Returns the runnable threads, including ti even if it is not runnable
func (tl *ThreadList) RunnableThreadsWith(ti *ThreadInfo) []*ThreadInfo {
	out := []*ThreadInfo{}
	for _, t := range tl.threads {
		if t == ti || t.IsRunnable() {
			out = append(out, t)
		}
	}
	return out
}

// Returns the runnable threads, excluding ti
func (tl *ThreadList) RunnableThreadsWithout(ti *ThreadInfo) []*ThreadInfo {
	out := []*ThreadInfo{}
	for _, t := range tl.threads {
		if t != ti && t.IsRunnable() {
			out = append(out, t)
		}
	}
	return out
}

func (tl *ThreadList) HasAnyAliveThread() bool {
	for _, ti := range tl.threads {
		if ti.IsAlive() {
			return true
		}
	}
	return false
}

// Returns true if some alive non-daemon thread remains.
// The program is terminated once this returns false.
func (tl *ThreadList) HasMoreThreadsToRun() bool {
	for _, ti := range tl.threads {
		if ti.IsAlive() && !ti.IsDaemon() {
			return true
		}
	}
	return false
}

// Returns true if there are alive threads, none of them can make progress and at least one of them is a non-daemon
func (tl *ThreadList) IsDeadlocked() bool {
	hasNonDaemons := false
	hasBlockedThreads := false
	for _, ti := range tl.threads {
		if !ti.IsAlive() {
			continue
		}
		if ti.IsRunnable() || ti.IsTimeoutWaiting() {
			return false
		}
		hasNonDaemons = hasNonDaemons || !ti.IsDaemon()
		hasBlockedThreads = true
	}
	return hasNonDaemons && hasBlockedThreads
}

// Mark the references held by all threads
func (tl *ThreadList) MarkRoots(m RootMarker) {
	for _, ti := range tl.threads {
		ti.MarkRoots(m)
	}
}

// Add the thread states to the digest
func (tl *ThreadList) Hash(d *xxhash.Digest) {
	var buf [8]byte
	put := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}
	for _, ti := range tl.threads {
		put(int64(ti.id))
		put(int64(ti.state))
		put(int64(ti.lockRef))
		put(int64(len(ti.stack)))
		for _, f := range ti.stack {
			d.WriteString(f.Method)
			put(int64(f.PC))
			for _, r := range f.Refs {
				put(int64(r))
			}
			for _, v := range f.Values {
				put(v)
			}
		}
	}
}

// A snapshot of the mutable state of a single thread
type threadMemento struct {
	ti         *ThreadInfo
	state      State
	daemon     bool
	lockRef    int
	lockedRefs []int
	stack      []*Frame
}

func (ti *ThreadInfo) GetMemento() memento.Memento[*ThreadInfo] {
	stack := make([]*Frame, len(ti.stack))
	for i, f := range ti.stack {
		stack[i] = f.Clone()
	}
	return &threadMemento{
		ti:         ti,
		state:      ti.state,
		daemon:     ti.daemon,
		lockRef:    ti.lockRef,
		lockedRefs: slices.Clone(ti.lockedRefs),
		stack:      stack,
	}
}

// Restore the thread in place. Frames are cloned so that the memento can be restored again.
func (tm *threadMemento) Restore(ti *ThreadInfo) *ThreadInfo {
	ti.state = tm.state
	ti.daemon = tm.daemon
	ti.lockRef = tm.lockRef
	ti.lockedRefs = slices.Clone(tm.lockedRefs)
	ti.stack = ti.stack[:0]
	for _, f := range tm.stack {
		ti.stack = append(ti.stack, f.Clone())
	}
	return ti
}

type listMemento struct {
	threads []memento.Memento[*ThreadInfo]
	members []*ThreadInfo
	current *ThreadInfo
}

// Snapshot the list and all of its threads
func (tl *ThreadList) GetMemento() memento.Memento[*ThreadList] {
	m := &listMemento{
		threads: make([]memento.Memento[*ThreadInfo], len(tl.threads)),
		members: slices.Clone(tl.threads),
		current: tl.current,
	}
	for i, ti := range tl.threads {
		m.threads[i] = ti.GetMemento()
	}
	return m
}

// Restore the list in place.
// The ThreadInfo instances are the same as at snapshot time, so monitors referring to them stay valid.
// Threads added after the snapshot are dropped from the list.
func (lm *listMemento) Restore(tl *ThreadList) *ThreadList {
	tl.threads = tl.threads[:0]
	for i, ti := range lm.members {
		lm.threads[i].Restore(ti)
		tl.threads = append(tl.threads, ti)
	}
	tl.current = lm.current
	return tl
}
