package thread

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

func ids(threads []*ThreadInfo) []int {
	out := []int{}
	for _, ti := range threads {
		out = append(out, ti.Id())
	}
	return out
}

func newRunning(id int) *ThreadInfo {
	ti := New(id, "t", -1)
	ti.SetState(Running)
	return ti
}

func TestAddKeepsOrder(t *testing.T) {
	tl := NewList()
	for _, id := range []int{3, 0, 2, 1} {
		tl.Add(newRunning(id))
	}
	if got := ids(tl.All()); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("Unexpected thread order. Got %v. Expected %v", got, []int{0, 1, 2, 3})
	}
}

func TestRunnableSets(t *testing.T) {
	tl := NewList()
	t0, t1, t2 := newRunning(0), newRunning(1), newRunning(2)
	t1.SetState(Blocked)
	tl.Add(t0)
	tl.Add(t1)
	tl.Add(t2)

	if got := ids(tl.RunnableThreads()); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("Unexpected runnables. Got %v. Expected %v", got, []int{0, 2})
	}
	if got := ids(tl.RunnableThreadsWith(t1)); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("Unexpected runnables with t1. Got %v. Expected %v", got, []int{0, 1, 2})
	}
	if got := ids(tl.RunnableThreadsWithout(t0)); !slices.Equal(got, []int{2}) {
		t.Errorf("Unexpected runnables without t0. Got %v. Expected %v", got, []int{2})
	}
	if tl.RunnableThreadCount() != 2 {
		t.Errorf("Unexpected runnable count. Got %v. Expected %v", tl.RunnableThreadCount(), 2)
	}
}

func TestDeadlock(t *testing.T) {
	for i, test := range deadlockTest {
		tl := NewList()
		for id, s := range test.states {
			ti := New(id, "t", -1)
			ti.SetState(s)
			tl.Add(ti)
		}
		if got := tl.IsDeadlocked(); got != test.expected {
			t.Errorf("Test %v: Unexpected deadlock status. Got %v. Expected %v", i, got, test.expected)
		}
	}
}

var deadlockTest = []struct {
	states   []State
	expected bool
}{
	{states: []State{Blocked, Blocked}, expected: true},
	{states: []State{Blocked, Running}, expected: false},
	{states: []State{Waiting, Terminated}, expected: true},
	{states: []State{TimeoutWaiting, Blocked}, expected: false},
	{states: []State{Terminated, Terminated}, expected: false},
	{states: []State{Created}, expected: false},
}

func TestMementoRestoresInPlace(t *testing.T) {
	tl := NewList()
	t0 := newRunning(0)
	f := NewFrame("main", 2, 1)
	f.Refs[0] = 5
	t0.PushFrame(f)
	tl.Add(t0)
	tl.SetCurrent(t0)

	m := tl.GetMemento()

	t0.TopFrame().Refs[0] = 9
	t0.TopFrame().PC = 4
	t0.PushFrame(NewFrame("run", 0, 0))
	t0.SetState(Blocked)
	t0.SetLockRef(5)
	tl.Add(newRunning(1))
	tl.SetCurrent(nil)

	restored := m.Restore(tl)
	if restored != tl {
		t.Fatalf("Expected the memento to restore in place")
	}
	if tl.Len() != 1 || tl.Get(0) != t0 {
		t.Fatalf("Expected only the original thread to remain. Got %v", tl.All())
	}
	if t0.State() != Running || t0.LockRef() != -1 || t0.StackDepth() != 1 {
		t.Errorf("Unexpected restored thread. Got %v, lockRef %v, depth %v", t0, t0.LockRef(), t0.StackDepth())
	}
	if t0.TopFrame().Refs[0] != 5 || t0.TopFrame().PC != 0 {
		t.Errorf("Unexpected restored frame. Got %v %v", t0.TopFrame(), t0.TopFrame().Refs)
	}
	if tl.Current() != t0 {
		t.Errorf("Unexpected current thread. Got %v. Expected %v", tl.Current(), t0)
	}

	// A memento can be restored several times
	t0.TopFrame().Refs[0] = 7
	m.Restore(tl)
	if t0.TopFrame().Refs[0] != 5 {
		t.Errorf("Unexpected frame after second restore. Got %v", t0.TopFrame().Refs)
	}
}

type recordingMarker struct {
	refs []int
}

func (rm *recordingMarker) MarkThreadRoot(objref int, tid int) {
	rm.refs = append(rm.refs, objref)
}

func TestMarkRoots(t *testing.T) {
	tl := NewList()
	alive := New(0, "main", 1)
	alive.SetState(Running)
	f := NewFrame("main", 3, 0)
	f.Refs[0], f.Refs[2] = 10, 11
	alive.PushFrame(f)
	dead := New(1, "worker", 2)
	dead.SetState(Terminated)
	dead.PushFrame(&Frame{Method: "run", Refs: []int{12}})
	tl.Add(alive)
	tl.Add(dead)

	rm := &recordingMarker{}
	tl.MarkRoots(rm)
	slices.Sort(rm.refs)
	if !slices.Equal(rm.refs, []int{1, 2, 10, 11}) {
		t.Errorf("Unexpected roots. Got %v. Expected %v", rm.refs, []int{1, 2, 10, 11})
	}
}

func TestHashEncoding(t *testing.T) {
	tl := NewList()
	tl.Add(newRunning(1))
	d := xxhash.New()
	tl.Hash(d)

	expected := xxhash.Sum64([]byte{
		1, 0, 0, 0, 0, 0, 0, 0, // id
		1, 0, 0, 0, 0, 0, 0, 0, // state
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // lock ref
		0, 0, 0, 0, 0, 0, 0, 0, // stack depth
	})
	if d.Sum64() != expected {
		t.Errorf("Unexpected hash. Got %x. Expected %x", d.Sum64(), expected)
	}

	other := NewList()
	ti := newRunning(1)
	ti.PushFrame(NewFrame("run", 1, 1))
	other.Add(ti)
	d2 := xxhash.New()
	other.Hash(d2)
	if d2.Sum64() == expected {
		t.Errorf("Expected the stack to change the hash")
	}
}
