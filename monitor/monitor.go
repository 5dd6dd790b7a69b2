// Package monitor implements the lock and wait bookkeeping attached to every object.
package monitor

import (
	"encoding/binary"
	"fmt"
	"strings"

	"bytemc/memento"
	"bytemc/thread"
	"bytemc/vmerr"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

// Lock and wait state of one object.
//
// lockedThreads holds the threads that are blocked on or waiting for the
// object. It is kept sorted by thread identity, so two monitors with the same
// logical state compare and hash equal regardless of the order in which the
// threads arrived.
type Monitor struct {
	lockingThread *thread.ThreadInfo
	lockCount     int
	// Stack depth of the owner when the lock was first acquired. -1 if unlocked
	lockedStackDepth int
	lockedThreads    []*thread.ThreadInfo
}

func New() *Monitor {
	return &Monitor{
		lockedStackDepth: -1,
	}
}

// Returns true if ti can acquire the lock, i.e. it is free or already owned by ti
func (m *Monitor) CanLock(ti *thread.ThreadInfo) bool {
	if m.lockingThread == nil {
		return true
	}
	return m.lockingThread == ti
}

func (m *Monitor) LockingThread() *thread.ThreadInfo {
	return m.lockingThread
}

func (m *Monitor) SetLockingThread(ti *thread.ThreadInfo) {
	m.lockingThread = ti
}

func (m *Monitor) LockCount() int {
	return m.lockCount
}

// Set the recursion depth directly, used when a waiting thread reacquires the lock
func (m *Monitor) SetLockCount(lc int) {
	if lc < 0 {
		vmerr.Fatalf("monitor", "attempt to set negative lockCount %v", lc)
	}
	m.lockCount = lc
}

func (m *Monitor) LockedStackDepth() int {
	return m.lockedStackDepth
}

func (m *Monitor) SetLockedStackDepth(depth int) {
	m.lockedStackDepth = depth
}

// Acquire the lock once more. The owner has to be set before the first acquisition.
func (m *Monitor) IncLockCount() {
	if m.lockCount == 0 {
		if m.lockingThread == nil {
			vmerr.Fatalf("monitor", "lock acquired without locking thread")
		}
		m.lockedStackDepth = m.lockingThread.StackDepth()
	}
	m.lockCount++
}

// Release the lock once. Releasing the last acquisition clears the owner.
func (m *Monitor) DecLockCount() {
	if m.lockCount <= 0 {
		vmerr.Fatalf("monitor", "negative lockCount")
	}
	m.lockCount--
	if m.lockCount == 0 {
		m.lockedStackDepth = -1
		m.lockingThread = nil
	}
}

// Returns the blocked and waiting threads ordered by thread identity
func (m *Monitor) LockedThreads() []*thread.ThreadInfo {
	return slices.Clone(m.lockedThreads)
}

func (m *Monitor) HasLockedThreads() bool {
	return len(m.lockedThreads) > 0
}

func (m *Monitor) HasWaitingThreads() bool {
	return slices.IndexFunc(m.lockedThreads, (*thread.ThreadInfo).IsWaiting) >= 0
}

// Returns the locked threads that are waiting to be notified
func (m *Monitor) WaitingThreads() []*thread.ThreadInfo {
	out := []*thread.ThreadInfo{}
	for _, ti := range m.lockedThreads {
		if ti.IsWaiting() {
			out = append(out, ti)
		}
	}
	return out
}

// Returns the locked threads that are blocked trying to acquire the lock
func (m *Monitor) BlockedThreads() []*thread.ThreadInfo {
	out := []*thread.ThreadInfo{}
	for _, ti := range m.lockedThreads {
		if ti.IsBlocked() {
			out = append(out, ti)
		}
	}
	return out
}

// Insert ti into the locked threads, keeping them sorted
func (m *Monitor) AddLocked(ti *thread.ThreadInfo) {
	m.lockedThreads = add(m.lockedThreads, ti)
}

// Remove ti from the locked threads. Does nothing if ti is not present
func (m *Monitor) RemoveLocked(ti *thread.ThreadInfo) {
	m.lockedThreads = remove(m.lockedThreads, ti)
}

// Drop terminated threads from the locked threads and release a lock held by a terminated owner
func (m *Monitor) CleanUp() bool {
	changed := false
	if m.lockingThread != nil && m.lockingThread.IsTerminated() {
		m.lockingThread = nil
		m.lockCount = 0
		m.lockedStackDepth = -1
		changed = true
	}
	n := len(m.lockedThreads)
	m.lockedThreads = slices.DeleteFunc(m.lockedThreads, (*thread.ThreadInfo).IsTerminated)
	return changed || n != len(m.lockedThreads)
}

// Returns true if CleanUp would change the monitor
func (m *Monitor) NeedsCleanUp() bool {
	if m.lockingThread != nil && m.lockingThread.IsTerminated() {
		return true
	}
	return slices.IndexFunc(m.lockedThreads, (*thread.ThreadInfo).IsTerminated) >= 0
}

// Linear ordered insert. The number of locked threads is small
func add(list []*thread.ThreadInfo, ti *thread.ThreadInfo) []*thread.ThreadInfo {
	pos := 0
	for pos < len(list) && ti.Compare(list[pos]) > 0 {
		pos++
	}
	out := make([]*thread.ThreadInfo, 0, len(list)+1)
	out = append(out, list[:pos]...)
	out = append(out, ti)
	return append(out, list[pos:]...)
}

func remove(list []*thread.ThreadInfo, ti *thread.ThreadInfo) []*thread.ThreadInfo {
	i := slices.Index(list, ti)
	if i < 0 {
		return list
	}
	if len(list) == 1 {
		return nil
	}
	out := make([]*thread.ThreadInfo, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func (m *Monitor) Clone() *Monitor {
	return &Monitor{
		lockingThread:    m.lockingThread,
		lockCount:        m.lockCount,
		lockedStackDepth: m.lockedStackDepth,
		lockedThreads:    slices.Clone(m.lockedThreads),
	}
}

type monitorMemento struct {
	state *Monitor
}

func (m *Monitor) GetMemento() memento.Memento[*Monitor] {
	return &monitorMemento{state: m.Clone()}
}

func (mm *monitorMemento) Restore(m *Monitor) *Monitor {
	m.lockingThread = mm.state.lockingThread
	m.lockCount = mm.state.lockCount
	m.lockedStackDepth = mm.state.lockedStackDepth
	m.lockedThreads = slices.Clone(mm.state.lockedThreads)
	return m
}

// Returns a clone of the monitor with ti added to the locked threads
func (m *Monitor) CloneWithLocked(ti *thread.ThreadInfo) *Monitor {
	c := m.Clone()
	c.lockedThreads = add(m.lockedThreads, ti)
	return c
}

// Returns a clone of the monitor with ti removed from the locked threads
func (m *Monitor) CloneWithoutLocked(ti *thread.ThreadInfo) *Monitor {
	c := m.Clone()
	c.lockedThreads = remove(slices.Clone(m.lockedThreads), ti)
	return c
}

func (m *Monitor) Equal(other *Monitor) bool {
	if other == nil {
		return false
	}
	return m.lockingThread == other.lockingThread &&
		m.lockCount == other.lockCount &&
		m.lockedStackDepth == other.lockedStackDepth &&
		slices.Equal(m.lockedThreads, other.lockedThreads)
}

// Add the monitor state to the digest
func (m *Monitor) Hash(d *xxhash.Digest) {
	var buf [8]byte
	put := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		d.Write(buf[:])
	}
	if m.lockingThread != nil {
		put(m.lockingThread.Id())
	} else {
		put(-1)
	}
	put(m.lockCount)
	put(m.lockedStackDepth)
	for _, ti := range m.lockedThreads {
		put(ti.Id())
	}
}

func (m *Monitor) HashCode() uint64 {
	d := xxhash.New()
	m.Hash(d)
	return d.Sum64()
}

func (m *Monitor) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	if m.lockingThread != nil {
		fmt.Fprintf(&sb, "locked by: %v", m.lockingThread.Name())
	} else {
		sb.WriteString("unlocked")
	}
	fmt.Fprintf(&sb, ", lockCount: %v, lockedStackDepth: %v, locked: {", m.lockCount, m.lockedStackDepth)
	for i, ti := range m.lockedThreads {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "%v:%v", ti.Name(), ti.State())
	}
	sb.WriteString("}]")
	return sb.String()
}
