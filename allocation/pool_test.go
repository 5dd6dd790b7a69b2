package allocation

import (
	"errors"
	"testing"

	"bytemc/classes"
	"bytemc/thread"
	"bytemc/vmerr"
)

func newThread(id int, pcs ...int) *thread.ThreadInfo {
	ti := thread.New(id, "t", -1)
	for _, pc := range pcs {
		f := thread.NewFrame("run", 0, 0)
		f.PC = pc
		ti.PushFrame(f)
	}
	return ti
}

func TestExecutionContextIsCanonical(t *testing.T) {
	p := NewPool()
	p.Init()
	a := p.ExecutionContext(newThread(1, 3, 7))
	b := p.ExecutionContext(newThread(1, 3, 7))
	c := p.ExecutionContext(newThread(1, 3, 8))
	d := p.ExecutionContext(newThread(2, 3, 7))

	if a != b {
		t.Errorf("Expected the same instance for equal positions. Got %v and %v", a, b)
	}
	if a == c || a == d {
		t.Errorf("Expected different contexts for different positions")
	}
	if p.NumExecutionContexts() != 3 {
		t.Errorf("Unexpected number of cached contexts. Got %v. Expected 3", p.NumExecutionContexts())
	}
	if a.StackDepth() != 2 || a.Stack()[0].PC != 7 {
		t.Errorf("Expected the top frame first. Got %v", a)
	}
}

func TestRefsAreStableAcrossPaths(t *testing.T) {
	r := classes.NewRegistry()
	obj, _ := r.ResolveClass(classes.Object)
	str, _ := r.ResolveClass(classes.String)

	p := NewPool()
	p.Init()
	sut := p.SUTContext(obj, newThread(1, 4), 0)
	first := p.RefFor(sut, 0)
	second := p.RefFor(sut, 1)
	// the same allocation reached again, e.g. after backtracking
	again := p.RefFor(p.SUTContext(obj, newThread(1, 4), 0), 0)

	if first == second {
		t.Errorf("Expected distinct references for distinct allocations. Got %v", first)
	}
	if again != first {
		t.Errorf("Expected a stable reference. Got %v. Expected %v", again, first)
	}
	sys := p.SystemContext(obj, 0)
	if sys == sut {
		t.Errorf("Did not expect system and SUT contexts to collide")
	}
	if p.SystemContext(str, 0) == sys {
		t.Errorf("Expected the class to be part of the context")
	}
	ext := p.Extend(sut, str, 1)
	if ext == sut || ext != p.Extend(sut, str, 1) {
		t.Errorf("Unexpected extended context %v", ext)
	}
	if p.NumRefs() != 2 {
		t.Errorf("Unexpected number of references. Got %v. Expected 2", p.NumRefs())
	}
}

func TestResetEndsSession(t *testing.T) {
	r := classes.NewRegistry()
	obj, _ := r.ResolveClass(classes.Object)
	p := NewPool()
	p.Init()
	p.RefFor(p.SystemContext(obj, 0), 0)
	p.Reset()

	if p.IsInitialized() || p.NumRefs() != 0 || p.NumAllocationContexts() != 0 {
		t.Errorf("Expected an empty pool after reset")
	}
	use := func() (err error) {
		defer vmerr.Recover(&err)
		p.SystemContext(obj, 0)
		return nil
	}
	var ie *vmerr.InternalError
	if err := use(); !errors.As(err, &ie) {
		t.Errorf("Expected an InternalError when using a reset pool. Got %v", err)
	}

	p.Init()
	if ref := p.RefFor(p.SystemContext(obj, 0), 0); ref != 0 {
		t.Errorf("Expected references to restart at 0 in a new session. Got %v", ref)
	}
}
