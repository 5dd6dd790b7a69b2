package monitor

import (
	"errors"
	"math/rand"
	"testing"

	"bytemc/thread"
	"bytemc/vmerr"

	"golang.org/x/exp/slices"
)

func threads(n int) []*thread.ThreadInfo {
	out := []*thread.ThreadInfo{}
	for i := 0; i < n; i++ {
		ti := thread.New(i, "t", -1)
		ti.SetState(thread.Blocked)
		out = append(out, ti)
	}
	return out
}

func isSorted(list []*thread.ThreadInfo) bool {
	return slices.IsSortedFunc(list, func(a, b *thread.ThreadInfo) int { return a.Compare(b) })
}

func TestLockedThreadsStaySorted(t *testing.T) {
	ts := threads(16)
	r := rand.New(rand.NewSource(1))
	m := New()
	present := map[*thread.ThreadInfo]bool{}
	for i := 0; i < 2000; i++ {
		ti := ts[r.Intn(len(ts))]
		if present[ti] {
			m.RemoveLocked(ti)
			delete(present, ti)
		} else {
			m.AddLocked(ti)
			present[ti] = true
		}
		locked := m.LockedThreads()
		if !isSorted(locked) {
			t.Fatalf("Step %v: locked threads are not sorted: %v", i, locked)
		}
		if len(locked) != len(present) {
			t.Fatalf("Step %v: Unexpected number of locked threads. Got %v. Expected %v", i, len(locked), len(present))
		}
	}
}

func TestEqualIgnoresInsertionOrder(t *testing.T) {
	ts := threads(3)
	a, b := New(), New()
	for _, i := range []int{2, 0, 1} {
		a.AddLocked(ts[i])
	}
	for _, i := range []int{1, 2, 0} {
		b.AddLocked(ts[i])
	}
	if !a.Equal(b) {
		t.Errorf("Expected monitors to be equal. Got %v and %v", a, b)
	}
	if a.HashCode() != b.HashCode() {
		t.Errorf("Expected equal hashes. Got %v and %v", a.HashCode(), b.HashCode())
	}
	b.RemoveLocked(ts[1])
	if a.Equal(b) {
		t.Errorf("Did not expect monitors to be equal. Got %v and %v", a, b)
	}
}

func TestRecursiveLocking(t *testing.T) {
	owner := thread.New(0, "owner", -1)
	owner.SetState(thread.Running)
	owner.PushFrame(thread.NewFrame("main", 0, 0))
	owner.PushFrame(thread.NewFrame("sync", 0, 0))
	other := thread.New(1, "other", -1)

	m := New()
	if !m.CanLock(owner) || !m.CanLock(other) {
		t.Fatalf("Expected an unlocked monitor to be lockable by any thread")
	}
	m.SetLockingThread(owner)
	m.IncLockCount()
	owner.PushFrame(thread.NewFrame("nested", 0, 0))
	m.IncLockCount()

	if m.LockCount() != 2 || m.LockedStackDepth() != 2 {
		t.Errorf("Unexpected lock state. Got count %v depth %v. Expected count 2 depth 2", m.LockCount(), m.LockedStackDepth())
	}
	if m.CanLock(other) || !m.CanLock(owner) {
		t.Errorf("Expected only the owner to be able to lock")
	}
	m.DecLockCount()
	m.DecLockCount()
	if m.LockCount() != 0 || m.LockingThread() != nil || m.LockedStackDepth() != -1 {
		t.Errorf("Expected the monitor to be released. Got %v", m)
	}
}

func TestNegativeLockCountIsFatal(t *testing.T) {
	run := func() (err error) {
		defer vmerr.Recover(&err)
		New().DecLockCount()
		return nil
	}
	var ie *vmerr.InternalError
	if err := run(); !errors.As(err, &ie) {
		t.Errorf("Expected an InternalError. Got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ts := threads(3)
	m := New()
	m.AddLocked(ts[0])
	with := m.CloneWithLocked(ts[2])
	without := with.CloneWithoutLocked(ts[0])

	if len(m.LockedThreads()) != 1 {
		t.Errorf("Expected the original monitor to be unchanged. Got %v", m)
	}
	if !slices.Equal(with.LockedThreads(), []*thread.ThreadInfo{ts[0], ts[2]}) {
		t.Errorf("Unexpected locked threads. Got %v", with.LockedThreads())
	}
	if !slices.Equal(without.LockedThreads(), []*thread.ThreadInfo{ts[2]}) {
		t.Errorf("Unexpected locked threads. Got %v", without.LockedThreads())
	}
}

func TestCleanUpDropsTerminatedThreads(t *testing.T) {
	ts := threads(3)
	m := New()
	for _, ti := range ts {
		m.AddLocked(ti)
	}
	m.SetLockingThread(ts[0])
	m.SetLockCount(1)
	ts[0].SetState(thread.Terminated)
	ts[2].SetState(thread.Terminated)

	if !m.NeedsCleanUp() || !m.CleanUp() {
		t.Fatalf("Expected the monitor to be cleaned up")
	}
	if m.LockingThread() != nil || m.LockCount() != 0 {
		t.Errorf("Expected the lock of the terminated owner to be released. Got %v", m)
	}
	if !slices.Equal(m.LockedThreads(), []*thread.ThreadInfo{ts[1]}) {
		t.Errorf("Unexpected locked threads. Got %v", m.LockedThreads())
	}
	if m.NeedsCleanUp() {
		t.Errorf("Did not expect a second clean up to be needed")
	}
}

func TestWaitingThreads(t *testing.T) {
	ts := threads(3)
	ts[1].SetState(thread.Waiting)
	m := New()
	for _, ti := range ts {
		m.AddLocked(ti)
	}
	if !m.HasWaitingThreads() {
		t.Errorf("Expected waiting threads")
	}
	if got := m.WaitingThreads(); !slices.Equal(got, []*thread.ThreadInfo{ts[1]}) {
		t.Errorf("Unexpected waiting threads. Got %v", got)
	}
	if got := m.BlockedThreads(); !slices.Equal(got, []*thread.ThreadInfo{ts[0], ts[2]}) {
		t.Errorf("Unexpected blocked threads. Got %v", got)
	}
}

func TestMementoRoundTrip(t *testing.T) {
	ts := threads(4)
	owner := thread.New(9, "owner", -1)
	owner.SetState(thread.Running)
	m := New()
	m.SetLockingThread(owner)
	m.IncLockCount()
	m.AddLocked(ts[1])
	m.AddLocked(ts[3])
	snapshot := m.Clone()

	mem := m.GetMemento()
	m.AddLocked(ts[0])
	m.RemoveLocked(ts[3])
	m.DecLockCount()

	if restored := mem.Restore(m); restored != m {
		t.Errorf("Expected the monitor to be restored in place")
	}
	if !m.Equal(snapshot) {
		t.Errorf("Unexpected monitor after restore. Got %v. Expected %v", m, snapshot)
	}
}
