package classes

import (
	"fmt"

	"bytemc/vmerr"
)

// Names of the classes the engine itself depends on
const (
	Object        = "java.lang.Object"
	String        = "java.lang.String"
	Thread        = "java.lang.Thread"
	WeakReference = "java.lang.ref.WeakReference"
	CharArray     = "[C"
)

// Metadata of a field.
// Index is the slot of the field in the instance or static storage of its class.
type FieldInfo struct {
	Name   string
	Kind   Kind
	Index  int
	Static bool
}

func (fi *FieldInfo) IsReference() bool {
	return fi.Kind == Reference
}

func (fi *FieldInfo) String() string {
	return fmt.Sprintf("%v:%v", fi.Name, fi.Kind)
}

// Declares a field of a class definition
type FieldDecl struct {
	Name string
	Kind Kind
}

// Declares a class for the Registry
type Decl struct {
	Name  string
	Super string
	// Instance fields declared by the class itself. Inherited fields are added by the registry
	Fields  []FieldDecl
	Statics []FieldDecl

	Finalizer bool
}

// Resolved class metadata.
//
// Instances are immutable once registered and are shared by all states of a
// search. Inherited instance fields come first, so field slot 0 of a
// WeakReference is always its referent.
type ClassInfo struct {
	name  string
	super *ClassInfo

	fields  []*FieldInfo
	statics []*FieldInfo

	refSlots       []int
	staticRefSlots []int

	// Element kind of an array class
	component Kind
	isArray   bool

	isWeakReference bool
	hasFinalizer    bool
}

func (ci *ClassInfo) Name() string {
	return ci.name
}

// The super class. nil for java.lang.Object and array classes
func (ci *ClassInfo) Super() *ClassInfo {
	return ci.super
}

func (ci *ClassInfo) IsArray() bool {
	return ci.isArray
}

// Returns the kind of the array elements. Only meaningful for array classes
func (ci *ClassInfo) ComponentKind() Kind {
	return ci.component
}

func (ci *ClassInfo) IsReferenceArray() bool {
	return ci.isArray && ci.component == Reference
}

func (ci *ClassInfo) IsWeakReference() bool {
	return ci.isWeakReference
}

func (ci *ClassInfo) HasFinalizer() bool {
	return ci.hasFinalizer
}

// Returns true if the class is, or is a subclass of, the named class
func (ci *ClassInfo) IsInstanceOf(name string) bool {
	for c := ci; c != nil; c = c.super {
		if c.name == name {
			return true
		}
	}
	return false
}

// All instance fields including inherited ones, ordered by slot
func (ci *ClassInfo) InstanceFields() []*FieldInfo {
	return ci.fields
}

func (ci *ClassInfo) StaticFields() []*FieldInfo {
	return ci.statics
}

func (ci *ClassInfo) NumInstanceFields() int {
	return len(ci.fields)
}

func (ci *ClassInfo) NumStaticFields() int {
	return len(ci.statics)
}

// Slots of the instance fields that hold references
func (ci *ClassInfo) ReferenceSlots() []int {
	return ci.refSlots
}

// Slots of the static fields that hold references
func (ci *ClassInfo) StaticReferenceSlots() []int {
	return ci.staticRefSlots
}

// Look up an instance field.
// A missing field is a condition of the modeled program and is reported as a NoSuchFieldError.
func (ci *ClassInfo) InstanceField(name string) (*FieldInfo, error) {
	for _, fi := range ci.fields {
		if fi.Name == name {
			return fi, nil
		}
	}
	return nil, vmerr.NewProgramException(vmerr.NoSuchFieldError, "%v.%v", ci.name, name)
}

// Look up a static field. Reports a NoSuchFieldError if it does not exist
func (ci *ClassInfo) StaticField(name string) (*FieldInfo, error) {
	for _, fi := range ci.statics {
		if fi.Name == name {
			return fi, nil
		}
	}
	return nil, vmerr.NewProgramException(vmerr.NoSuchFieldError, "static %v.%v", ci.name, name)
}

func (ci *ClassInfo) String() string {
	return ci.name
}

func newClassInfo(d Decl, super *ClassInfo) *ClassInfo {
	ci := &ClassInfo{
		name:         d.Name,
		super:        super,
		hasFinalizer: d.Finalizer,
	}
	if super != nil {
		for _, fi := range super.fields {
			ci.addField(fi.Name, fi.Kind)
		}
		ci.isWeakReference = super.isWeakReference
		ci.hasFinalizer = ci.hasFinalizer || super.hasFinalizer
	}
	for _, fd := range d.Fields {
		ci.addField(fd.Name, fd.Kind)
	}
	for _, fd := range d.Statics {
		fi := &FieldInfo{Name: fd.Name, Kind: fd.Kind, Index: len(ci.statics), Static: true}
		ci.statics = append(ci.statics, fi)
		if fi.IsReference() {
			ci.staticRefSlots = append(ci.staticRefSlots, fi.Index)
		}
	}
	if d.Name == WeakReference {
		ci.isWeakReference = true
	}
	return ci
}

func (ci *ClassInfo) addField(name string, kind Kind) {
	fi := &FieldInfo{Name: name, Kind: kind, Index: len(ci.fields)}
	ci.fields = append(ci.fields, fi)
	if fi.IsReference() {
		ci.refSlots = append(ci.refSlots, fi.Index)
	}
}

func newArrayClassInfo(name string, component Kind) *ClassInfo {
	return &ClassInfo{
		name:      name,
		isArray:   true,
		component: component,
	}
}
