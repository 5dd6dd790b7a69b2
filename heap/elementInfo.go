package heap

import (
	"encoding/binary"
	"fmt"

	"bytemc/classes"
	"bytemc/memento"
	"bytemc/monitor"
	"bytemc/vmerr"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

const (
	// The instance is shared with a snapshot and must not be modified
	eiFrozen uint8 = 1 << iota
	// Reached in the mark phase of the current collection
	eiMarked
	// Survived the collection with the matching live bit value
	eiAlive
	// Referenced from the intern table
	eiInterned
)

// Called before an object is removed from the heap
type ReleaseAction func(ei *ElementInfo)

// A heap object.
//
// Instance fields and array elements share one slot vector. References are
// stored as slot values, -1 being null. Once a snapshot is taken the instance
// is frozen and Heap.GetModifiable has to be used to obtain a writable copy.
type ElementInfo struct {
	ref int
	ci  *classes.ClassInfo
	// Id of the allocating thread. -1 for system allocations
	tid int

	values  []int64
	monitor *monitor.Monitor

	attributes   uint8
	pinDownCount int

	releaseActions []ReleaseAction
}

func newElementInfo(ref int, ci *classes.ClassInfo, nSlots int, tid int) *ElementInfo {
	ei := &ElementInfo{
		ref:     ref,
		ci:      ci,
		tid:     tid,
		values:  make([]int64, nSlots),
		monitor: monitor.New(),
	}
	if ci.IsReferenceArray() {
		for i := range ei.values {
			ei.values[i] = -1
		}
	} else if !ci.IsArray() {
		for _, slot := range ci.ReferenceSlots() {
			ei.values[slot] = -1
		}
	}
	return ei
}

func (ei *ElementInfo) Ref() int {
	return ei.ref
}

func (ei *ElementInfo) ClassInfo() *classes.ClassInfo {
	return ei.ci
}

// Id of the thread that allocated the object, -1 if the engine allocated it
func (ei *ElementInfo) AllocatingThread() int {
	return ei.tid
}

func (ei *ElementInfo) IsArray() bool {
	return ei.ci.IsArray()
}

func (ei *ElementInfo) Monitor() *monitor.Monitor {
	return ei.monitor
}

func (ei *ElementInfo) IsFrozen() bool {
	return ei.attributes&eiFrozen != 0
}

func (ei *ElementInfo) IsInterned() bool {
	return ei.attributes&eiInterned != 0
}

func (ei *ElementInfo) IsPinnedDown() bool {
	return ei.pinDownCount > 0
}

func (ei *ElementInfo) PinDownCount() int {
	return ei.pinDownCount
}

func (ei *ElementInfo) IsMarked() bool {
	return ei.attributes&eiMarked != 0
}

// Mark and live bits are collector bookkeeping, not object state.
// They can change on frozen instances.
func (ei *ElementInfo) setMarked() {
	ei.attributes |= eiMarked
}

func (ei *ElementInfo) setUnmarked() {
	ei.attributes &^= eiMarked
}

func (ei *ElementInfo) setAlive(liveBit bool) {
	if liveBit {
		ei.attributes |= eiAlive
	} else {
		ei.attributes &^= eiAlive
	}
}

func (ei *ElementInfo) freeze() {
	ei.attributes |= eiFrozen
}

func (ei *ElementInfo) checkModifiable() {
	if ei.IsFrozen() {
		vmerr.Fatalf("heap.ElementInfo", "modification of frozen object %v", ei.ref)
	}
}

// Returns an unfrozen copy. The monitor is copied as well
func (ei *ElementInfo) clone() *ElementInfo {
	return &ElementInfo{
		ref:            ei.ref,
		ci:             ei.ci,
		tid:            ei.tid,
		values:         slices.Clone(ei.values),
		monitor:        ei.monitor.Clone(),
		attributes:     ei.attributes &^ eiFrozen,
		pinDownCount:   ei.pinDownCount,
		releaseActions: slices.Clone(ei.releaseActions),
	}
}

// Register an action that runs when the object is collected
func (ei *ElementInfo) AddReleaseAction(action ReleaseAction) {
	ei.checkModifiable()
	ei.releaseActions = append(ei.releaseActions, action)
}

func (ei *ElementInfo) processReleaseActions() {
	for _, action := range ei.releaseActions {
		action(ei)
	}
}

func (ei *ElementInfo) incPinDown() bool {
	ei.checkModifiable()
	ei.pinDownCount++
	return ei.pinDownCount == 1
}

func (ei *ElementInfo) decPinDown() bool {
	ei.checkModifiable()
	ei.pinDownCount--
	return ei.pinDownCount == 0
}

// Number of slots, i.e. instance fields or array elements
func (ei *ElementInfo) NumSlots() int {
	return len(ei.values)
}

// Raw slot access
func (ei *ElementInfo) Slot(i int) int64 {
	return ei.values[i]
}

func (ei *ElementInfo) SetSlot(i int, v int64) {
	ei.checkModifiable()
	ei.values[i] = v
}

func (ei *ElementInfo) IntField(name string) (int64, error) {
	fi, err := ei.ci.InstanceField(name)
	if err != nil {
		return 0, err
	}
	return ei.values[fi.Index], nil
}

func (ei *ElementInfo) SetIntField(name string, v int64) error {
	fi, err := ei.ci.InstanceField(name)
	if err != nil {
		return err
	}
	ei.SetSlot(fi.Index, v)
	return nil
}

func (ei *ElementInfo) ReferenceField(name string) (int, error) {
	fi, err := ei.ci.InstanceField(name)
	if err != nil {
		return -1, err
	}
	return int(ei.values[fi.Index]), nil
}

func (ei *ElementInfo) SetReferenceField(name string, ref int) error {
	fi, err := ei.ci.InstanceField(name)
	if err != nil {
		return err
	}
	ei.SetSlot(fi.Index, int64(ref))
	return nil
}

// Returns the number of elements of an array, 0 for objects
func (ei *ElementInfo) ArrayLength() int {
	if !ei.ci.IsArray() {
		return 0
	}
	return len(ei.values)
}

func (ei *ElementInfo) checkIndex(i int) error {
	if i < 0 || i >= len(ei.values) || !ei.ci.IsArray() {
		return vmerr.NewProgramException(vmerr.ArrayIndexOutOfBoundsException, "index %v, length %v", i, ei.ArrayLength())
	}
	return nil
}

func (ei *ElementInfo) Element(i int) (int64, error) {
	if err := ei.checkIndex(i); err != nil {
		return 0, err
	}
	return ei.values[i], nil
}

func (ei *ElementInfo) SetElement(i int, v int64) error {
	if err := ei.checkIndex(i); err != nil {
		return err
	}
	ei.SetSlot(i, v)
	return nil
}

// Calls f for every slot holding a reference, including null slots
func (ei *ElementInfo) ForEachReferenceSlot(f func(slot int, ref int)) {
	if ei.ci.IsArray() {
		if ei.ci.IsReferenceArray() {
			for i, v := range ei.values {
				f(i, int(v))
			}
		}
		return
	}
	for _, slot := range ei.ci.ReferenceSlots() {
		f(slot, int(ei.values[slot]))
	}
}

// Returns the non-null references held by the object in slot order
func (ei *ElementInfo) References() []int {
	refs := []int{}
	ei.ForEachReferenceSlot(func(_ int, ref int) {
		if ref != -1 {
			refs = append(refs, ref)
		}
	})
	return refs
}

// Returns true if the monitor still refers to terminated threads
func (ei *ElementInfo) needsCleanUp() bool {
	return ei.monitor.NeedsCleanUp()
}

// Compares the observable state of two objects
func (ei *ElementInfo) Equal(other *ElementInfo) bool {
	if other == nil {
		return false
	}
	return ei.ref == other.ref && ei.ci == other.ci &&
		ei.pinDownCount == other.pinDownCount &&
		slices.Equal(ei.values, other.values) &&
		ei.monitor.Equal(other.monitor)
}

// Add the object state to the digest
func (ei *ElementInfo) Hash(d *xxhash.Digest) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(ei.ref))
	d.Write(buf[:])
	d.WriteString(ei.ci.Name())
	for _, v := range ei.values {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}
	ei.monitor.Hash(d)
}

func (ei *ElementInfo) String() string {
	return fmt.Sprintf("%v@%v", ei.ci.Name(), ei.ref)
}

type elementMemento struct {
	values       []int64
	monitor      memento.Memento[*monitor.Monitor]
	pinDownCount int
}

// Snapshot the fields, the monitor and the pin down count of the object
func (ei *ElementInfo) GetMemento() memento.Memento[*ElementInfo] {
	return &elementMemento{
		values:       slices.Clone(ei.values),
		monitor:      ei.monitor.GetMemento(),
		pinDownCount: ei.pinDownCount,
	}
}

func (em *elementMemento) Restore(ei *ElementInfo) *ElementInfo {
	ei.checkModifiable()
	ei.values = slices.Clone(em.values)
	em.monitor.Restore(ei.monitor)
	ei.pinDownCount = em.pinDownCount
	return ei
}
