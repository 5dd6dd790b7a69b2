package heap

// Maximum number of entries kept for reuse
const maxFree = 1024

type queueEntry struct {
	next   *queueEntry
	objref int
}

// FIFO work queue of the mark phase.
//
// Marking is driven by this queue instead of recursion so long reference
// chains do not grow the call stack. Processed entries are kept on a bounded
// free list and reused by later collections.
type ReferenceQueue struct {
	head *queueEntry
	tail *queueEntry

	free  *queueEntry
	nFree int
}

func (q *ReferenceQueue) Add(objref int) {
	var e *queueEntry
	if q.nFree > 0 {
		e = q.free
		q.free = e.next
		q.nFree--
	} else {
		e = &queueEntry{}
	}
	e.objref = objref
	e.next = nil

	if q.tail != nil {
		q.tail.next = e
	} else {
		q.head = e
	}
	q.tail = e
}

// Call proc for every queued reference in insertion order.
// References added by proc are processed in the same call.
func (q *ReferenceQueue) Process(proc func(objref int)) {
	for e := q.head; e != nil; {
		proc(e.objref)
		next := e.next
		if q.nFree < maxFree {
			e.next = q.free
			q.free = e
			q.nFree++
		}
		e = next
	}
	q.Clear()
}

func (q *ReferenceQueue) Clear() {
	q.head = nil
	q.tail = nil
}

func (q *ReferenceQueue) IsEmpty() bool {
	return q.head == nil
}
