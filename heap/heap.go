// Package heap implements the simulated heap of the modeled program.
//
// Objects live in a dense table indexed by their reference. The table, the pin
// down list, the intern table and the allocation counters are shared with the
// snapshots taken by GetMemento and are cloned on the first write after a
// snapshot. The matching *Changed attribute records that the clone happened,
// so later writes of the same transition mutate in place.
package heap

import (
	"errors"
	"fmt"
	"log/slog"

	"bytemc/allocation"
	"bytemc/classes"
	"bytemc/config"
	"bytemc/thread"
	"bytemc/vmerr"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	attrGC           uint32 = 0x0001
	attrOutOfMemory  uint32 = 0x0002
	attrRunFinalizer uint32 = 0x0004

	attrElementsChanged  uint32 = 0x10000
	attrPinDownChanged   uint32 = 0x20000
	attrInternChanged    uint32 = 0x40000
	attrAttributeChanged uint32 = 0x80000
	attrAllocChanged     uint32 = 0x100000

	// Attributes that are part of the snapshot
	attrStoreMask  uint32 = 0x0000ffff
	attrAnyChanged        = attrElementsChanged | attrPinDownChanged | attrInternChanged | attrAttributeChanged | attrAllocChanged
)

var ErrInconsistent = errors.New("heap: inconsistent heap")

// The simulated heap
type Heap struct {
	pool      *allocation.Pool
	provider  classes.Provider
	log       *slog.Logger
	listeners []Listener
	roots     Roots

	elements []*ElementInfo
	nLive    int

	attributes    uint32
	pinDownList   []int
	internStrings map[string]int
	// Allocations made so far per allocation context along the current path
	allocCounts map[uint64]int

	maxObjects int

	// Collector bookkeeping, not part of the snapshot
	liveBitValue bool
	weakRefs     []int
	markQueue    ReferenceQueue
	gcCycles     int
}

// Create an empty heap.
// vm.sweep enables the collector, vm.finalize records that finalizers run and
// vm.max_objects limits the number of live objects before the simulated out
// of memory condition is raised.
func New(pool *allocation.Pool, provider classes.Provider, cfg *config.Config, logger *slog.Logger) *Heap {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Heap{
		pool:          pool,
		provider:      provider,
		log:           logger,
		elements:      []*ElementInfo{},
		pinDownList:   []int{},
		internStrings: map[string]int{},
		allocCounts:   map[uint64]int{},
		maxObjects:    cfg.Int(config.MaxObjects, 0),
		// nothing is shared yet, no need to clone on the first write
		attributes: attrElementsChanged | attrPinDownChanged | attrInternChanged | attrAllocChanged,
	}
	if cfg.Bool(config.Finalize, true) {
		h.attributes |= attrRunFinalizer
	}
	if cfg.Bool(config.Sweep, true) {
		h.attributes |= attrGC
	}
	return h
}

func (h *Heap) AddListener(l Listener) {
	h.listeners = append(h.listeners, l)
}

// Set the roots of the collection, usually the kernel state owning the heap
func (h *Heap) SetRoots(r Roots) {
	h.roots = r
}

//--- table access

// Returns the object with the given reference, or nil if there is none.
// The object may be frozen, use GetModifiable before changing it.
func (h *Heap) Get(ref int) *ElementInfo {
	if ref < 0 || ref >= len(h.elements) {
		return nil
	}
	return h.elements[ref]
}

// Returns a writable version of the object, cloning it if it is shared with a snapshot
func (h *Heap) GetModifiable(ref int) *ElementInfo {
	ei := h.Get(ref)
	if ei == nil || !ei.IsFrozen() {
		return ei
	}
	c := ei.clone()
	h.set(ref, c)
	return c
}

func (h *Heap) IsAlive(ref int) bool {
	return h.Get(ref) != nil
}

// Number of live objects
func (h *Heap) Len() int {
	return h.nLive
}

// Returns the live objects ordered by reference
func (h *Heap) LiveObjects() []*ElementInfo {
	out := make([]*ElementInfo, 0, h.nLive)
	for _, ei := range h.elements {
		if ei != nil {
			out = append(out, ei)
		}
	}
	return out
}

func (h *Heap) ensureElementsModifiable() {
	if h.attributes&attrElementsChanged == 0 {
		h.elements = slices.Clone(h.elements)
		h.attributes |= attrElementsChanged
	}
}

func (h *Heap) set(ref int, ei *ElementInfo) {
	h.ensureElementsModifiable()
	if ref >= len(h.elements) {
		h.elements = slices.Grow(h.elements, ref+1-len(h.elements))
		h.elements = h.elements[:ref+1]
	}
	h.elements[ref] = ei
}

func (h *Heap) remove(ref int) {
	h.ensureElementsModifiable()
	h.elements[ref] = nil
	h.nLive--
}

//--- allocation

func (h *Heap) contextOf(ci *classes.ClassInfo, ti *thread.ThreadInfo, anchor int) *allocation.HashedAllocationContext {
	if ti == nil {
		return h.pool.SystemContext(ci, anchor)
	}
	return h.pool.SUTContext(ci, ti, anchor)
}

func (h *Heap) nextRef(ctx *allocation.HashedAllocationContext) int {
	if h.attributes&attrAllocChanged == 0 {
		h.allocCounts = maps.Clone(h.allocCounts)
		h.attributes |= attrAllocChanged
	}
	n := h.allocCounts[ctx.Id()]
	h.allocCounts[ctx.Id()] = n + 1
	ref := h.pool.RefFor(ctx, n)
	if h.Get(ref) != nil {
		vmerr.Fatalf("heap.allocate", "reference %v of %v is already in use", ref, ctx)
	}
	return ref
}

func (h *Heap) register(ei *ElementInfo, ti *thread.ThreadInfo) {
	ei.setAlive(h.liveBitValue)
	h.set(ei.ref, ei)
	h.nLive++
	for _, l := range h.listeners {
		l.ObjectCreated(ti, ei)
	}
}

func tidOf(ti *thread.ThreadInfo) int {
	if ti == nil {
		return -1
	}
	return ti.Id()
}

// Checks the simulated memory limit before an allocation.
// Returns an OutOfMemoryError to be raised in the modeled program if the heap is exhausted.
func (h *Heap) CheckAllocation() error {
	if h.maxObjects > 0 && h.nLive >= h.maxObjects {
		h.SetOutOfMemory(true)
	}
	if h.IsOutOfMemory() {
		return vmerr.NewProgramException(vmerr.OutOfMemoryError, "heap limit of %v objects reached", h.maxObjects)
	}
	return nil
}

// Allocate an instance of ci.
// The anchor tells apart several allocations made by the same instruction.
// ti is nil for allocations made by the engine.
func (h *Heap) NewObject(ci *classes.ClassInfo, ti *thread.ThreadInfo, anchor int) *ElementInfo {
	if ci.IsArray() {
		vmerr.Fatalf("heap.NewObject", "%v is an array class", ci)
	}
	ref := h.nextRef(h.contextOf(ci, ti, anchor))
	ei := newElementInfo(ref, ci, ci.NumInstanceFields(), tidOf(ti))
	h.register(ei, ti)
	return ei
}

// Allocate an array with n elements of the given type descriptor
func (h *Heap) NewArray(elementType string, n int, ti *thread.ThreadInfo, anchor int) (*ElementInfo, error) {
	if n < 0 {
		return nil, vmerr.NewProgramException(vmerr.NegativeArraySizeException, "%v", n)
	}
	ci, err := h.provider.ResolveClass(classes.ArrayClassName(elementType))
	if err != nil {
		return nil, err
	}
	ref := h.nextRef(h.contextOf(ci, ti, anchor))
	ei := newElementInfo(ref, ci, n, tidOf(ti))
	h.register(ei, ti)
	return ei, nil
}

func (h *Heap) resolve(name string) *classes.ClassInfo {
	ci, err := h.provider.ResolveClass(name)
	if err != nil {
		vmerr.Fatalf("heap", "missing system class: %v", err)
	}
	return ci
}

// Allocate a java.lang.String and its character array
func (h *Heap) NewString(s string, ti *thread.ThreadInfo) *ElementInfo {
	strCi := h.resolve(classes.String)
	charsCi := h.resolve(classes.CharArray)

	strCtx := h.contextOf(strCi, ti, 0)
	str := newElementInfo(h.nextRef(strCtx), strCi, strCi.NumInstanceFields(), tidOf(ti))
	h.register(str, ti)

	runes := []rune(s)
	chars := newElementInfo(h.nextRef(h.pool.Extend(strCtx, charsCi, 0)), charsCi, len(runes), tidOf(ti))
	for i, r := range runes {
		chars.values[i] = int64(r)
	}
	h.register(chars, ti)

	str.SetReferenceField("value", chars.ref)
	return str
}

// Returns the value of a java.lang.String object
func (h *Heap) StringValue(ref int) (string, bool) {
	ei := h.Get(ref)
	if ei == nil || ei.ci.Name() != classes.String {
		return "", false
	}
	charsRef, err := ei.ReferenceField("value")
	if err != nil {
		return "", false
	}
	chars := h.Get(charsRef)
	if chars == nil {
		return "", false
	}
	runes := make([]rune, len(chars.values))
	for i, v := range chars.values {
		runes[i] = rune(v)
	}
	return string(runes), true
}

// Returns the canonical string object for s, allocating it on first use.
// Interned strings are pinned down so the collector keeps them.
func (h *Heap) NewInternString(s string, ti *thread.ThreadInfo) *ElementInfo {
	if ref, ok := h.internStrings[s]; ok {
		if v, ok := h.StringValue(ref); ok && v == s {
			return h.Get(ref)
		}
	}
	ei := h.NewString(s, ti)
	ei.attributes |= eiInterned
	h.RegisterPinDown(ei.ref)

	if h.attributes&attrInternChanged == 0 {
		h.internStrings = maps.Clone(h.internStrings)
		h.attributes |= attrInternChanged
	}
	h.internStrings[s] = ei.ref
	return ei
}

//--- pin down

func (h *Heap) addToPinDownList(ref int) {
	if h.attributes&attrPinDownChanged == 0 {
		h.pinDownList = slices.Clone(h.pinDownList)
		h.attributes |= attrPinDownChanged
	}
	h.pinDownList = append(h.pinDownList, ref)
}

func (h *Heap) removeFromPinDownList(ref int) {
	if h.attributes&attrPinDownChanged == 0 {
		h.pinDownList = slices.Clone(h.pinDownList)
		h.attributes |= attrPinDownChanged
	}
	if i := slices.Index(h.pinDownList, ref); i >= 0 {
		h.pinDownList = slices.Delete(h.pinDownList, i, i+1)
	}
}

// Exempt the object from collection. Pins are counted
func (h *Heap) RegisterPinDown(ref int) {
	ei := h.GetModifiable(ref)
	if ei == nil {
		vmerr.Fatalf("heap.RegisterPinDown", "pinDown reference not a live object: %v", ref)
	}
	if ei.incPinDown() {
		h.addToPinDownList(ref)
	}
}

// Release one pin of the object. Releasing an object that is not pinned is fatal
func (h *Heap) ReleasePinDown(ref int) {
	ei := h.Get(ref)
	if ei == nil {
		vmerr.Fatalf("heap.ReleasePinDown", "pinDown reference not a live object: %v", ref)
	}
	if !ei.IsPinnedDown() {
		vmerr.Fatalf("heap.ReleasePinDown", "object %v is not pinned down", ref)
	}
	if h.GetModifiable(ref).decPinDown() {
		h.removeFromPinDownList(ref)
	}
}

// The pinned down references in registration order
func (h *Heap) PinDownList() []int {
	return slices.Clone(h.pinDownList)
}

//--- attributes

func (h *Heap) setAttribute(attr uint32, on bool) {
	if on == (h.attributes&attr != 0) {
		return
	}
	if on {
		h.attributes |= attr
	} else {
		h.attributes &^= attr
	}
	h.attributes |= attrAttributeChanged
}

func (h *Heap) IsGcEnabled() bool {
	return h.attributes&attrGC != 0
}

func (h *Heap) SetGcEnabled(doGC bool) {
	h.setAttribute(attrGC, doGC)
}

func (h *Heap) RunsFinalizers() bool {
	return h.attributes&attrRunFinalizer != 0
}

func (h *Heap) IsOutOfMemory() bool {
	return h.attributes&attrOutOfMemory != 0
}

// Set the simulated out of memory condition. The host memory is not involved
func (h *Heap) SetOutOfMemory(oom bool) {
	h.setAttribute(attrOutOfMemory, oom)
}

// Returns true if anything changed since the last snapshot or restore
func (h *Heap) HasChanged() bool {
	return h.attributes&attrAnyChanged != 0
}

// Record a change made to an object outside of the heap's own operations.
// The object table is detached from the last snapshot first.
func (h *Heap) MarkChanged() {
	h.ensureElementsModifiable()
}

func (h *Heap) markUnchanged() {
	h.attributes &^= attrAnyChanged
}

// Number of collections run on this heap
func (h *Heap) GCCycles() int {
	return h.gcCycles
}

//--- hashing and consistency

// Add the state of all live objects to the digest
func (h *Heap) Hash(d *xxhash.Digest) {
	for _, ei := range h.elements {
		if ei != nil {
			ei.Hash(d)
		}
	}
}

// Verify the structural invariants of the heap
func (h *Heap) CheckConsistency() error {
	n := 0
	for ref, ei := range h.elements {
		if ei == nil {
			continue
		}
		n++
		if ei.ref != ref {
			return fmt.Errorf("%w: object %v stored at %v", ErrInconsistent, ei, ref)
		}
		if ei.IsMarked() {
			return fmt.Errorf("%w: object %v is still marked", ErrInconsistent, ei)
		}
		var dangling error
		ei.ForEachReferenceSlot(func(slot int, target int) {
			if dangling == nil && target != -1 && h.Get(target) == nil {
				dangling = fmt.Errorf("%w: slot %v of %v references missing object %v", ErrInconsistent, slot, ei, target)
			}
		})
		if dangling != nil {
			return dangling
		}
		m := ei.monitor
		if (m.LockCount() > 0) != (m.LockingThread() != nil) {
			return fmt.Errorf("%w: monitor of %v is %v", ErrInconsistent, ei, m)
		}
		if ei.IsPinnedDown() != slices.Contains(h.pinDownList, ref) {
			return fmt.Errorf("%w: pin down list does not match pin count of %v", ErrInconsistent, ei)
		}
	}
	if n != h.nLive {
		return fmt.Errorf("%w: %v objects in table, %v recorded", ErrInconsistent, n, h.nLive)
	}
	return nil
}
