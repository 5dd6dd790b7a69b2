package heap

import (
	"bytemc/vmerr"
)

// Run a full mark and sweep collection.
//
// Roots are the pin down list, then the static roots and then the thread
// roots. Objects that are not reached are released and removed. Weak
// references whose referent was removed are cleared afterwards.
func (h *Heap) GC() {
	for _, l := range h.listeners {
		l.GCBegin()
	}
	before := h.nLive

	h.weakRefs = nil
	h.liveBitValue = !h.liveBitValue

	h.mark()
	h.sweep()
	h.cleanupWeakRefs()

	h.gcCycles++
	h.log.Debug("Garbage collection finished",
		"cycle", h.gcCycles,
		"released", before-h.nLive,
		"live", h.nLive,
	)
	for _, l := range h.listeners {
		l.GCEnd()
	}
}

func (h *Heap) mark() {
	h.markQueue.Clear()

	for _, ref := range h.pinDownList {
		h.queueMark(ref)
	}
	if h.roots != nil {
		h.roots.MarkStaticRoots(h)
		h.roots.MarkThreadRoots(h)
	}

	h.markQueue.Process(h.markReferences)
}

// Add a non-null, not yet marked reference to the mark queue
func (h *Heap) queueMark(ref int) {
	if ref == -1 {
		return
	}
	ei := h.Get(ref)
	if ei == nil {
		vmerr.Fatalf("heap.GC", "reference to missing object %v", ref)
	}
	if !ei.IsMarked() {
		ei.setMarked()
		h.markQueue.Add(ref)
	}
}

func (h *Heap) MarkStaticRoot(ref int) {
	h.queueMark(ref)
}

func (h *Heap) MarkThreadRoot(ref int, tid int) {
	h.queueMark(ref)
}

// Queue everything reachable from ref.
// The referent of a weak reference is not traced.
func (h *Heap) markReferences(ref int) {
	ei := h.elements[ref]
	weak := ei.ci.IsWeakReference()
	if weak {
		h.RegisterWeakReference(ei)
	}
	ei.ForEachReferenceSlot(func(slot int, target int) {
		if weak && slot == 0 {
			return
		}
		h.queueMark(target)
	})
}

// Record a weak reference reached in the running collection
func (h *Heap) RegisterWeakReference(ei *ElementInfo) {
	h.weakRefs = append(h.weakRefs, ei.ref)
}

func (h *Heap) sweep() {
	elements := h.elements
	for ref, ei := range elements {
		if ei == nil {
			continue
		}
		if ei.IsMarked() {
			ei.setUnmarked()
			ei.setAlive(h.liveBitValue)
			h.cleanUp(ref)
			continue
		}

		ei.processReleaseActions()
		if ei.ci.HasFinalizer() && h.RunsFinalizers() {
			h.log.Debug("Released object with finalizer", "object", ei.String())
		}
		for _, l := range h.listeners {
			l.ObjectReleased(ei)
		}
		h.remove(ref)
	}
}

// Drop terminated threads from the monitor of a live object
func (h *Heap) cleanUp(ref int) {
	if h.elements[ref].needsCleanUp() {
		h.GetModifiable(ref).monitor.CleanUp()
	}
}

// Set weak references to null whose referent has been collected.
// The referent is always field 0 of a weak reference.
func (h *Heap) cleanupWeakRefs() {
	for _, ref := range h.weakRefs {
		ei := h.Get(ref)
		referent := int(ei.values[0])
		if referent != -1 && h.Get(referent) == nil {
			h.GetModifiable(ref).SetSlot(0, -1)
		}
	}
	h.weakRefs = nil
}

// Scrub references held outside of reference fields, i.e. monitors of
// objects referring to terminated threads. Called after a collection once
// only live objects remain.
func (h *Heap) CleanUpDanglingReferences() {
	for ref, ei := range h.elements {
		if ei != nil {
			h.cleanUp(ref)
		}
	}
}
