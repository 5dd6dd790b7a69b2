package statics

import (
	"errors"
	"testing"

	"bytemc/classes"
	"bytemc/vmerr"

	"golang.org/x/exp/slices"
)

type recordingMarker struct {
	refs []int
}

func (rm *recordingMarker) MarkStaticRoot(objref int) {
	rm.refs = append(rm.refs, objref)
}

func defineCounter(t *testing.T) (*classes.Registry, *classes.ClassInfo) {
	t.Helper()
	r := classes.NewRegistry()
	ci, err := r.Define(classes.Decl{
		Name:    "Counter",
		Statics: []classes.FieldDecl{{Name: "count", Kind: classes.Int}, {Name: "shared", Kind: classes.Reference}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return r, ci
}

func TestClassIdsAreStable(t *testing.T) {
	r, counter := defineCounter(t)
	object, _ := r.ResolveClass(classes.Object)
	sa := NewStaticArea()

	first := sa.NewClass(counter, nil)
	second := sa.NewClass(object, nil)
	again := sa.NewClass(counter, nil)
	if first != 0 || second != 1 || again != first {
		t.Errorf("Unexpected class ids. Got %v, %v, %v. Expected 0, 1, 0", first, second, again)
	}
	if sa.Lookup("Counter") != sa.Get(first) {
		t.Errorf("Expected lookup by name to return the statics of the class")
	}
	if ref, _ := sa.Get(first).ReferenceField("shared"); ref != -1 {
		t.Errorf("Expected static references to start out null. Got %v", ref)
	}
}

func TestMarkRoots(t *testing.T) {
	_, counter := defineCounter(t)
	cll := NewClassLoaderList()
	cl := NewClassLoader(0, "system")
	cll.Add(cl)
	sei := cl.DefineClass(counter, nil)
	if err := sei.SetReferenceField("shared", 5); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rm := &recordingMarker{}
	cll.MarkRoots(rm)
	if !slices.Equal(rm.refs, []int{5}) {
		t.Errorf("Unexpected static roots. Got %v. Expected [5]", rm.refs)
	}
}

func TestMementoRestoresStatics(t *testing.T) {
	r, counter := defineCounter(t)
	object, _ := r.ResolveClass(classes.Object)
	cll := NewClassLoaderList()
	cl := NewClassLoader(0, "system")
	cll.Add(cl)
	cl.DefineClass(counter, nil).SetIntField("count", 1)

	m := cll.GetMemento()
	sa := cl.StaticArea()
	id := sa.Lookup("Counter").Id()

	var ie *vmerr.InternalError
	if err := func() (err error) {
		defer vmerr.Recover(&err)
		sa.Get(id).SetIntField("count", 2)
		return nil
	}(); !errors.As(err, &ie) {
		t.Errorf("Expected writing frozen statics to be fatal. Got %v", err)
	}

	sa.GetModifiable(id).SetIntField("count", 2)
	cl.DefineClass(object, nil)
	cll.Add(NewClassLoader(1, "app"))

	m.Restore(cll)
	if cll.Len() != 1 {
		t.Errorf("Expected loaders added after the snapshot to be dropped. Got %v", cll.Len())
	}
	if cl.IsDefined(classes.Object) {
		t.Errorf("Expected classes defined after the snapshot to be undefined")
	}
	if v, _ := sa.Get(id).IntField("count"); v != 1 {
		t.Errorf("Unexpected static value after restore. Got %v. Expected 1", v)
	}
	if sa.Len() != 1 {
		t.Errorf("Unexpected number of statics after restore. Got %v. Expected 1", sa.Len())
	}
}
