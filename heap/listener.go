package heap

import "bytemc/thread"

// Observes allocation and collection
type Listener interface {
	// ti is nil for system allocations
	ObjectCreated(ti *thread.ThreadInfo, ei *ElementInfo)
	ObjectReleased(ei *ElementInfo)
	GCBegin()
	GCEnd()
}

// Receives references reachable from static fields during the mark phase
type StaticMarker interface {
	MarkStaticRoot(objref int)
}

// Supplies the roots of a collection besides the pin down list.
// Static roots are marked before thread roots.
type Roots interface {
	MarkStaticRoots(m StaticMarker)
	MarkThreadRoots(m thread.RootMarker)
}
