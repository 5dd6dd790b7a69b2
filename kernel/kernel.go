// Package kernel combines the heap, the threads and the class loaders into the
// state of the modeled program.
package kernel

import (
	"log/slog"

	"bytemc/heap"
	"bytemc/statics"
	"bytemc/thread"
	"bytemc/vmerr"

	"github.com/cespare/xxhash/v2"
)

// Notified on the next change of the kernel state.
// A listener is dropped after its notification and has to be pushed again.
type ChangeListener interface {
	KernelStateChanged(ks *KernelState)
}

// A listener that keeps track of changes incrementally.
// At most one of them may be pushed at a time.
type IncrementalChangeTracker interface {
	ChangeListener
	IncrementalChangeTracker()
}

// Observes snapshots and restores
type Observer interface {
	MementoCreated()
	MementoRestored()
}

// The heap, the threads and the class loaders of the modeled program
type KernelState struct {
	heap    *heap.Heap
	threads *thread.ThreadList
	loaders *statics.ClassLoaderList

	log       *slog.Logger
	listeners []ChangeListener
	observers []Observer

	// Last completed stage of a running restore
	restoreStage stage
}

// Create the kernel state and make it the root provider of the heap.
// loaders has to contain at least the system class loader.
func New(h *heap.Heap, threads *thread.ThreadList, loaders *statics.ClassLoaderList, logger *slog.Logger) *KernelState {
	if loaders.Len() == 0 {
		vmerr.Fatalf("kernel.New", "no system class loader")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ks := &KernelState{
		heap:         h,
		threads:      threads,
		loaders:      loaders,
		log:          logger,
		restoreStage: stageHeap,
	}
	h.SetRoots(ks)
	return ks
}

func (ks *KernelState) Heap() *heap.Heap {
	return ks.heap
}

func (ks *KernelState) Threads() *thread.ThreadList {
	return ks.threads
}

func (ks *KernelState) ClassLoaders() *statics.ClassLoaderList {
	return ks.loaders
}

func (ks *KernelState) AddClassLoader(cl *statics.ClassLoaderInfo) {
	ks.loaders.Add(cl)
}

// Returns the static area of the system class loader
func (ks *KernelState) StaticArea() *statics.StaticArea {
	return ks.loaders.Get(0).StaticArea()
}

func (ks *KernelState) AddObserver(o Observer) {
	ks.observers = append(ks.observers, o)
}

func (ks *KernelState) MarkStaticRoots(m heap.StaticMarker) {
	ks.loaders.MarkRoots(m)
}

func (ks *KernelState) MarkThreadRoots(m thread.RootMarker) {
	ks.threads.MarkRoots(m)
}

// Collect garbage if the collector is enabled.
// Afterwards stale references outside of reference fields are scrubbed.
func (ks *KernelState) GC() {
	if !ks.heap.IsGcEnabled() {
		return
	}
	ks.heap.GC()
	ks.heap.CleanUpDanglingReferences()
	for _, cl := range ks.loaders.All() {
		cl.StaticArea().CleanUpDanglingReferences(ks.heap)
	}
}

// Returns true once no alive non-daemon thread is left
func (ks *KernelState) IsTerminated() bool {
	return !ks.threads.HasMoreThreadsToRun()
}

func (ks *KernelState) IsDeadlocked() bool {
	return ks.threads.IsDeadlocked()
}

func (ks *KernelState) ThreadCount() int {
	return ks.threads.Len()
}

// Returns a hash over the heap, the statics and the threads
func (ks *KernelState) Hash() uint64 {
	d := xxhash.New()
	ks.heap.Hash(d)
	for _, cl := range ks.loaders.All() {
		cl.StaticArea().Hash(d)
	}
	ks.threads.Hash(d)
	return d.Sum64()
}

// Push a listener that is notified on the next change.
// Pushing a second IncrementalChangeTracker is fatal.
func (ks *KernelState) PushChangeListener(cl ChangeListener) {
	if _, ok := cl.(IncrementalChangeTracker); ok {
		for _, l := range ks.listeners {
			if _, ok := l.(IncrementalChangeTracker); ok {
				vmerr.Fatalf("kernel.PushChangeListener", "only one IncrementalChangeTracker allowed")
			}
		}
	}
	ks.listeners = append(ks.listeners, cl)
}

// Notify and drop all pushed listeners, the most recently pushed first
func (ks *KernelState) Changed() {
	for len(ks.listeners) > 0 {
		n := len(ks.listeners) - 1
		l := ks.listeners[n]
		ks.listeners = ks.listeners[:n]
		l.KernelStateChanged(ks)
	}
}
