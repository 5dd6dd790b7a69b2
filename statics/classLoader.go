package statics

import (
	"fmt"

	"bytemc/classes"
	"bytemc/heap"
	"bytemc/memento"
	"bytemc/thread"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A class loader and the statics of the classes it defined
type ClassLoaderInfo struct {
	id      int
	name    string
	defined map[string]int
	statics *StaticArea
}

func NewClassLoader(id int, name string) *ClassLoaderInfo {
	return &ClassLoaderInfo{
		id:      id,
		name:    name,
		defined: map[string]int{},
		statics: NewStaticArea(),
	}
}

func (cl *ClassLoaderInfo) Id() int {
	return cl.id
}

func (cl *ClassLoaderInfo) Name() string {
	return cl.name
}

func (cl *ClassLoaderInfo) StaticArea() *StaticArea {
	return cl.statics
}

// Define ci in this loader and create its statics. Defining a class twice returns the existing statics
func (cl *ClassLoaderInfo) DefineClass(ci *classes.ClassInfo, ti *thread.ThreadInfo) *StaticElementInfo {
	if id, ok := cl.defined[ci.Name()]; ok {
		return cl.statics.Get(id)
	}
	id := cl.statics.NewClass(ci, ti)
	cl.defined[ci.Name()] = id
	return cl.statics.Get(id)
}

func (cl *ClassLoaderInfo) IsDefined(className string) bool {
	_, ok := cl.defined[className]
	return ok
}

func (cl *ClassLoaderInfo) String() string {
	return fmt.Sprintf("{ClassLoader %v %q}", cl.id, cl.name)
}

type classLoaderMemento struct {
	defined map[string]int
	statics memento.Memento[*StaticArea]
}

func (cl *ClassLoaderInfo) GetMemento() memento.Memento[*ClassLoaderInfo] {
	return &classLoaderMemento{
		defined: maps.Clone(cl.defined),
		statics: cl.statics.GetMemento(),
	}
}

func (cm *classLoaderMemento) Restore(cl *ClassLoaderInfo) *ClassLoaderInfo {
	cl.defined = maps.Clone(cm.defined)
	cm.statics.Restore(cl.statics)
	return cl
}

// All class loaders of the modeled program. The first loader is the system class loader
type ClassLoaderList struct {
	loaders []*ClassLoaderInfo
}

func NewClassLoaderList() *ClassLoaderList {
	return &ClassLoaderList{}
}

func (cll *ClassLoaderList) Add(cl *ClassLoaderInfo) {
	cll.loaders = append(cll.loaders, cl)
}

// Returns the loader at position i or nil
func (cll *ClassLoaderList) Get(i int) *ClassLoaderInfo {
	if i < 0 || i >= len(cll.loaders) {
		return nil
	}
	return cll.loaders[i]
}

func (cll *ClassLoaderList) Len() int {
	return len(cll.loaders)
}

func (cll *ClassLoaderList) All() []*ClassLoaderInfo {
	return slices.Clone(cll.loaders)
}

// Mark the static roots of all loaders
func (cll *ClassLoaderList) MarkRoots(m heap.StaticMarker) {
	for _, cl := range cll.loaders {
		cl.statics.MarkRoots(m)
	}
}

type classLoaderListMemento struct {
	loaders []*ClassLoaderInfo
	states  []memento.Memento[*ClassLoaderInfo]
}

func (cll *ClassLoaderList) GetMemento() memento.Memento[*ClassLoaderList] {
	m := &classLoaderListMemento{
		loaders: slices.Clone(cll.loaders),
		states:  make([]memento.Memento[*ClassLoaderInfo], len(cll.loaders)),
	}
	for i, cl := range cll.loaders {
		m.states[i] = cl.GetMemento()
	}
	return m
}

// Restore every loader in place. Loaders added after the snapshot are dropped
func (lm *classLoaderListMemento) Restore(cll *ClassLoaderList) *ClassLoaderList {
	cll.loaders = slices.Clone(lm.loaders)
	for i, cl := range cll.loaders {
		lm.states[i].Restore(cl)
	}
	return cll
}
