// Package statics keeps the static fields of loaded classes and the class loaders owning them.
package statics

import (
	"bytemc/classes"
	"bytemc/heap"
	"bytemc/memento"
	"bytemc/thread"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

// The static fields of all classes of one class loader.
//
// Class ids are dense and derived from the class name, so a class keeps its
// id on every path of the search. The table is shared with snapshots in the
// same way as the heap table.
type StaticArea struct {
	ids    map[string]int
	nextId int

	elements []*StaticElementInfo
	changed  bool
}

func NewStaticArea() *StaticArea {
	return &StaticArea{
		ids:      map[string]int{},
		elements: []*StaticElementInfo{},
		changed:  true,
	}
}

func (sa *StaticArea) computeId(ci *classes.ClassInfo) int {
	if id, ok := sa.ids[ci.Name()]; ok {
		return id
	}
	id := sa.nextId
	sa.nextId++
	sa.ids[ci.Name()] = id
	return id
}

func (sa *StaticArea) set(id int, sei *StaticElementInfo) {
	if !sa.changed {
		sa.elements = slices.Clone(sa.elements)
		sa.changed = true
	}
	if id >= len(sa.elements) {
		sa.elements = slices.Grow(sa.elements, id+1-len(sa.elements))
		sa.elements = sa.elements[:id+1]
	}
	sa.elements[id] = sei
}

// Create the statics of ci and return the class id
func (sa *StaticArea) NewClass(ci *classes.ClassInfo, ti *thread.ThreadInfo) int {
	id := sa.computeId(ci)
	tid := -1
	if ti != nil {
		tid = ti.Id()
	}
	sa.set(id, newStaticElementInfo(id, ci, tid))
	return id
}

// Returns the statics with the given class id or nil
func (sa *StaticArea) Get(id int) *StaticElementInfo {
	if id < 0 || id >= len(sa.elements) {
		return nil
	}
	return sa.elements[id]
}

// Returns the statics of the named class or nil if the class has none in this state
func (sa *StaticArea) Lookup(className string) *StaticElementInfo {
	id, ok := sa.ids[className]
	if !ok {
		return nil
	}
	return sa.Get(id)
}

// Returns writable statics, cloning them if they are shared with a snapshot
func (sa *StaticArea) GetModifiable(id int) *StaticElementInfo {
	sei := sa.Get(id)
	if sei == nil || !sei.frozen {
		return sei
	}
	c := sei.clone()
	sa.set(id, c)
	return c
}

func (sa *StaticArea) Len() int {
	n := 0
	for _, sei := range sa.elements {
		if sei != nil {
			n++
		}
	}
	return n
}

// Returns the statics of all classes ordered by class id
func (sa *StaticArea) All() []*StaticElementInfo {
	out := []*StaticElementInfo{}
	for _, sei := range sa.elements {
		if sei != nil {
			out = append(out, sei)
		}
	}
	return out
}

// Mark the references held by static fields
func (sa *StaticArea) MarkRoots(m heap.StaticMarker) {
	for _, sei := range sa.elements {
		if sei == nil {
			continue
		}
		for _, ref := range sei.References() {
			m.MarkStaticRoot(ref)
		}
	}
}

// Drop terminated threads from class locks and clear static references to
// objects that are no longer on the heap
func (sa *StaticArea) CleanUpDanglingReferences(h *heap.Heap) {
	for id, sei := range sa.elements {
		if sei == nil {
			continue
		}
		if sei.monitor.NeedsCleanUp() {
			sa.GetModifiable(id).monitor.CleanUp()
		}
		for _, slot := range sei.ci.StaticReferenceSlots() {
			ref := int(sa.elements[id].values[slot])
			if ref != -1 && !h.IsAlive(ref) {
				sa.GetModifiable(id).SetSlot(slot, -1)
			}
		}
	}
}

func (sa *StaticArea) Hash(d *xxhash.Digest) {
	for _, sei := range sa.elements {
		if sei != nil {
			sei.Hash(d)
		}
	}
}

type staticAreaMemento struct {
	elements []*StaticElementInfo
}

func (sa *StaticArea) GetMemento() memento.Memento[*StaticArea] {
	if sa.changed {
		for _, sei := range sa.elements {
			if sei != nil {
				sei.frozen = true
			}
		}
		sa.changed = false
	}
	return &staticAreaMemento{elements: sa.elements}
}

func (sm *staticAreaMemento) Restore(sa *StaticArea) *StaticArea {
	sa.elements = sm.elements
	sa.changed = false
	return sa
}
