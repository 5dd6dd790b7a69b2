package statics

import (
	"encoding/binary"
	"fmt"

	"bytemc/classes"
	"bytemc/monitor"
	"bytemc/vmerr"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

// The static fields and the class lock of one class
type StaticElementInfo struct {
	id      int
	ci      *classes.ClassInfo
	tid     int
	values  []int64
	monitor *monitor.Monitor
	frozen  bool
}

func newStaticElementInfo(id int, ci *classes.ClassInfo, tid int) *StaticElementInfo {
	sei := &StaticElementInfo{
		id:      id,
		ci:      ci,
		tid:     tid,
		values:  make([]int64, ci.NumStaticFields()),
		monitor: monitor.New(),
	}
	for _, slot := range ci.StaticReferenceSlots() {
		sei.values[slot] = -1
	}
	return sei
}

func (sei *StaticElementInfo) Id() int {
	return sei.id
}

func (sei *StaticElementInfo) ClassInfo() *classes.ClassInfo {
	return sei.ci
}

// Id of the thread that initialized the class
func (sei *StaticElementInfo) InitializingThread() int {
	return sei.tid
}

func (sei *StaticElementInfo) Monitor() *monitor.Monitor {
	return sei.monitor
}

func (sei *StaticElementInfo) IsFrozen() bool {
	return sei.frozen
}

func (sei *StaticElementInfo) checkModifiable() {
	if sei.frozen {
		vmerr.Fatalf("statics.StaticElementInfo", "modification of frozen statics of %v", sei.ci)
	}
}

func (sei *StaticElementInfo) clone() *StaticElementInfo {
	return &StaticElementInfo{
		id:      sei.id,
		ci:      sei.ci,
		tid:     sei.tid,
		values:  slices.Clone(sei.values),
		monitor: sei.monitor.Clone(),
	}
}

func (sei *StaticElementInfo) Slot(i int) int64 {
	return sei.values[i]
}

func (sei *StaticElementInfo) SetSlot(i int, v int64) {
	sei.checkModifiable()
	sei.values[i] = v
}

func (sei *StaticElementInfo) IntField(name string) (int64, error) {
	fi, err := sei.ci.StaticField(name)
	if err != nil {
		return 0, err
	}
	return sei.values[fi.Index], nil
}

func (sei *StaticElementInfo) SetIntField(name string, v int64) error {
	fi, err := sei.ci.StaticField(name)
	if err != nil {
		return err
	}
	sei.SetSlot(fi.Index, v)
	return nil
}

func (sei *StaticElementInfo) ReferenceField(name string) (int, error) {
	fi, err := sei.ci.StaticField(name)
	if err != nil {
		return -1, err
	}
	return int(sei.values[fi.Index]), nil
}

func (sei *StaticElementInfo) SetReferenceField(name string, ref int) error {
	fi, err := sei.ci.StaticField(name)
	if err != nil {
		return err
	}
	sei.SetSlot(fi.Index, int64(ref))
	return nil
}

// Returns the non-null references held by static fields
func (sei *StaticElementInfo) References() []int {
	refs := []int{}
	for _, slot := range sei.ci.StaticReferenceSlots() {
		if ref := int(sei.values[slot]); ref != -1 {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (sei *StaticElementInfo) Equal(other *StaticElementInfo) bool {
	if other == nil {
		return false
	}
	return sei.id == other.id && sei.ci == other.ci &&
		slices.Equal(sei.values, other.values) && sei.monitor.Equal(other.monitor)
}

func (sei *StaticElementInfo) Hash(d *xxhash.Digest) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(sei.id))
	d.Write(buf[:])
	d.WriteString(sei.ci.Name())
	for _, v := range sei.values {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}
	sei.monitor.Hash(d)
}

func (sei *StaticElementInfo) String() string {
	return fmt.Sprintf("statics(%v)", sei.ci.Name())
}
