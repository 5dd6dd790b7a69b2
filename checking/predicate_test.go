package checking

import (
	"errors"
	"strings"
	"testing"

	"bytemc/allocation"
	"bytemc/choice"
	"bytemc/classes"
	"bytemc/config"
	"bytemc/heap"
	"bytemc/kernel"
	"bytemc/state"
	"bytemc/statics"
	"bytemc/thread"
)

func newKernel(t *testing.T, states ...thread.State) *kernel.KernelState {
	t.Helper()
	pool := allocation.NewPool()
	pool.Init()
	t.Cleanup(pool.Reset)
	threads := thread.NewList()
	for i, s := range states {
		ti := thread.New(i, "t", -1)
		ti.SetState(s)
		threads.Add(ti)
	}
	loaders := statics.NewClassLoaderList()
	loaders.Add(statics.NewClassLoader(0, "system"))
	h := heap.New(pool, classes.NewRegistry(), config.New(nil), nil)
	return kernel.New(h, threads, loaders, nil)
}

func TestEventually(t *testing.T) {
	allTerminated := func(s State) bool {
		return s.Kernel.IsTerminated()
	}
	for i, test := range eventuallyTest {
		pred := Eventually(allTerminated)
		s := State{
			Kernel:     newKernel(t, test.states...),
			IsTerminal: test.terminal,
		}
		out := pred(s)
		if out != test.expected {
			t.Errorf("Received unexpected bool from predicate on test %v. Got %v", i, out)
		}
	}
}

func TestForAllThreads(t *testing.T) {
	cond := func(ti *thread.ThreadInfo) bool {
		return ti.IsRunnable()
	}
	for i, test := range forAllThreadsTest {
		s := State{Kernel: newKernel(t, test.states...)}
		out := ForAllThreads(cond, s, test.aliveOnly)
		if out != test.expected {
			t.Errorf("Received unexpected bool from predicate on test %v. Got %v", i, out)
		}
	}
}

func TestNoDeadlock(t *testing.T) {
	tests := []struct {
		states   []thread.State
		expected bool
	}{
		{[]thread.State{thread.Running}, true},
		{[]thread.State{thread.Blocked, thread.Waiting}, false},
		{[]thread.State{thread.Blocked, thread.TimeoutWaiting}, true},
		{[]thread.State{thread.Terminated}, true},
	}
	for i, test := range tests {
		out := NoDeadlock(State{Kernel: newKernel(t, test.states...)})
		if out != test.expected {
			t.Errorf("Test %v: Unexpected result. Got %v. Expected %v", i, out, test.expected)
		}
	}
}

func TestPredicateChecker(t *testing.T) {
	ss := state.New()
	if err := ss.SetNextChoiceGenerator(choice.NewBoolean("flag", true)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ss.InitializeNextTransition()
	pc := NewPredicateChecker(NoDeadlock, NoAssertionViolation, Terminates)

	ok, index := pc.CheckState(State{Kernel: newKernel(t, thread.Running), System: ss})
	if !ok || index != -1 {
		t.Errorf("Expected all predicates to hold. Got %v, %v", ok, index)
	}
	holds, _ := pc.Check(State{Kernel: newKernel(t, thread.Running), System: ss}).Response()
	if !holds {
		t.Errorf("Expected all predicates to hold")
	}

	violation := errors.New("java.lang.AssertionError")
	resp := pc.Check(State{Kernel: newKernel(t, thread.Running), System: ss, Violation: violation})
	holds, desc := resp.Response()
	if holds {
		t.Errorf("Expected a violation")
	}
	if !strings.Contains(desc, "Predicate: 1") || !strings.Contains(desc, "AssertionError") {
		t.Errorf("Unexpected description: %v", desc)
	}
	if export := resp.Export(); len(export) != 1 || !strings.Contains(export[0], "flag") {
		t.Errorf("Unexpected exported sequence. Got %v", export)
	}

	ok, index = pc.CheckState(State{Kernel: newKernel(t, thread.Running), IsTerminal: true})
	if ok || index != 2 {
		t.Errorf("Expected the termination predicate to fail. Got %v, %v", ok, index)
	}
}

var eventuallyTest = []struct {
	terminal bool
	states   []thread.State
	expected bool
}{
	{false, []thread.State{thread.Running}, true},
	{true, []thread.State{thread.Terminated, thread.Terminated}, true},
	{true, []thread.State{thread.Terminated, thread.Blocked}, false},
	{false, []thread.State{thread.Terminated, thread.Blocked}, true},
}

var forAllThreadsTest = []struct {
	states    []thread.State
	aliveOnly bool
	expected  bool
}{
	{[]thread.State{thread.Running, thread.Running}, true, true},
	{[]thread.State{thread.Blocked, thread.Running}, false, false},
	{[]thread.State{thread.Terminated, thread.Running}, false, false},
	{[]thread.State{thread.Terminated, thread.Running}, true, true},
}
