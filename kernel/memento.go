package kernel

import (
	"bytemc/heap"
	"bytemc/memento"
	"bytemc/statics"
	"bytemc/thread"
	"bytemc/vmerr"
)

type stage int

const (
	stageNone stage = iota
	stageThreads
	stageStatics
	stageHeap
)

var stageNames = map[stage]string{
	stageNone:    "none",
	stageThreads: "threads",
	stageStatics: "statics",
	stageHeap:    "heap",
}

func (s stage) String() string {
	return stageNames[s]
}

// Creates the mementos of the parts of a kernel state
type MementoFactory interface {
	ThreadListMemento(tl *thread.ThreadList) memento.Memento[*thread.ThreadList]
	ClassLoaderListMemento(cll *statics.ClassLoaderList) memento.Memento[*statics.ClassLoaderList]
	HeapMemento(h *heap.Heap) memento.Memento[*heap.Heap]
}

// Uses the mementos of the components themselves
type DefaultRestorer struct{}

func (DefaultRestorer) ThreadListMemento(tl *thread.ThreadList) memento.Memento[*thread.ThreadList] {
	return tl.GetMemento()
}

func (DefaultRestorer) ClassLoaderListMemento(cll *statics.ClassLoaderList) memento.Memento[*statics.ClassLoaderList] {
	return cll.GetMemento()
}

func (DefaultRestorer) HeapMemento(h *heap.Heap) memento.Memento[*heap.Heap] {
	return h.GetMemento()
}

// Snapshot of the kernel state.
//
// The parts are captured threads first, then statics, then heap, and have to
// be restored in the same order: the heap relies on consistent thread and
// static roots. Restore runs all stages, the stage methods allow a driver to
// interleave its own work between them.
type Memento struct {
	threads memento.Memento[*thread.ThreadList]
	loaders memento.Memento[*statics.ClassLoaderList]
	heap    memento.Memento[*heap.Heap]
}

func (ks *KernelState) GetMemento() memento.Memento[*KernelState] {
	return ks.GetMementoWith(DefaultRestorer{})
}

// Snapshot the parts in restore order through factory
func (ks *KernelState) GetMementoWith(factory MementoFactory) memento.Memento[*KernelState] {
	m := &Memento{
		threads: factory.ThreadListMemento(ks.threads),
		loaders: factory.ClassLoaderListMemento(ks.loaders),
		heap:    factory.HeapMemento(ks.heap),
	}
	for _, o := range ks.observers {
		o.MementoCreated()
	}
	return m
}

func (ks *KernelState) enterStage(s stage) {
	if ks.restoreStage != s-1 {
		vmerr.Fatalf("kernel.Restore", "restoring %v after %v", s, ks.restoreStage)
	}
	ks.restoreStage = s
}

func (m *Memento) RestoreThreads(ks *KernelState) {
	if ks.restoreStage != stageHeap {
		vmerr.Fatalf("kernel.Restore", "restore started while the previous one stopped after %v", ks.restoreStage)
	}
	ks.restoreStage = stageNone
	ks.enterStage(stageThreads)
	m.threads.Restore(ks.threads)
}

func (m *Memento) RestoreStatics(ks *KernelState) {
	ks.enterStage(stageStatics)
	m.loaders.Restore(ks.loaders)
}

func (m *Memento) RestoreHeap(ks *KernelState) {
	ks.enterStage(stageHeap)
	m.heap.Restore(ks.heap)
}

// Restore all parts in place
func (m *Memento) Restore(ks *KernelState) *KernelState {
	m.RestoreThreads(ks)
	m.RestoreStatics(ks)
	m.RestoreHeap(ks)
	ks.log.Debug("Restored kernel state", "threads", ks.threads.Len(), "objects", ks.heap.Len())
	for _, o := range ks.observers {
		o.MementoRestored()
	}
	return ks
}
