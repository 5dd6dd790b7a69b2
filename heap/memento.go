package heap

import (
	"bytemc/memento"
)

type heapMemento struct {
	elements      []*ElementInfo
	nLive         int
	attributes    uint32
	pinDownList   []int
	internStrings map[string]int
	allocCounts   map[uint64]int
}

// Snapshot the heap.
// The snapshot shares the object table and the lists with the heap. Objects
// are frozen and the change attributes are cleared, so the next write clones
// what it modifies.
func (h *Heap) GetMemento() memento.Memento[*Heap] {
	if h.attributes&attrElementsChanged != 0 {
		for _, ei := range h.elements {
			if ei != nil {
				ei.freeze()
			}
		}
	}
	h.markUnchanged()
	return &heapMemento{
		elements:      h.elements,
		nLive:         h.nLive,
		attributes:    h.attributes & attrStoreMask,
		pinDownList:   h.pinDownList,
		internStrings: h.internStrings,
		allocCounts:   h.allocCounts,
	}
}

// Restore the heap in place
func (hm *heapMemento) Restore(h *Heap) *Heap {
	h.elements = hm.elements
	h.nLive = hm.nLive
	h.attributes = hm.attributes
	h.pinDownList = hm.pinDownList
	h.internStrings = hm.internStrings
	h.allocCounts = hm.allocCounts
	h.weakRefs = nil
	h.markQueue.Clear()
	return h
}
