// Package classes is the read only class oracle consulted when objects are allocated.
package classes

import (
	"errors"
	"fmt"

	"bytemc/vmerr"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrDuplicateClass = errors.New("classes: class is already defined")

// Resolves class names to class metadata.
// A class that can not be resolved is reported as a NoClassDefFoundError.
type Provider interface {
	ResolveClass(name string) (*ClassInfo, error)
}

// An in memory Provider.
//
// The registry knows java.lang.Object, java.lang.String, java.lang.Thread and
// java.lang.ref.WeakReference from the start. Array classes are created on
// first use.
type Registry struct {
	classes map[string]*ClassInfo
}

func NewRegistry() *Registry {
	r := &Registry{classes: map[string]*ClassInfo{}}
	r.mustDefine(Decl{Name: Object})
	r.mustDefine(Decl{Name: String, Super: Object, Fields: []FieldDecl{{Name: "value", Kind: Reference}}})
	r.mustDefine(Decl{Name: Thread, Super: Object, Fields: []FieldDecl{{Name: "name", Kind: Reference}, {Name: "priority", Kind: Int}}})
	r.mustDefine(Decl{Name: WeakReference, Super: Object, Fields: []FieldDecl{{Name: "ref", Kind: Reference}}})
	return r
}

func (r *Registry) mustDefine(d Decl) {
	if _, err := r.Define(d); err != nil {
		panic(err)
	}
}

// Define a new class. The super class has to be defined already and defaults to java.lang.Object
func (r *Registry) Define(d Decl) (*ClassInfo, error) {
	if _, ok := r.classes[d.Name]; ok {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateClass, d.Name)
	}
	if d.Name == "" || d.Name[0] == '[' {
		return nil, fmt.Errorf("classes: invalid class name %q", d.Name)
	}
	var super *ClassInfo
	if d.Name != Object {
		if d.Super == "" {
			d.Super = Object
		}
		s, err := r.ResolveClass(d.Super)
		if err != nil {
			return nil, err
		}
		super = s
	}
	ci := newClassInfo(d, super)
	r.classes[d.Name] = ci
	return ci, nil
}

// Resolve a class by name. Array classes like "[I" or "[Ljava.lang.Object;" are created on demand
func (r *Registry) ResolveClass(name string) (*ClassInfo, error) {
	if ci, ok := r.classes[name]; ok {
		return ci, nil
	}
	if len(name) > 1 && name[0] == '[' {
		kind, ok := KindOf(name[1:])
		if !ok {
			return nil, vmerr.NewProgramException(vmerr.NoClassDefFoundError, "%v", name)
		}
		if kind == Reference && name[1] == 'L' {
			if _, err := r.ResolveClass(name[2 : len(name)-1]); err != nil {
				return nil, err
			}
		}
		ci := newArrayClassInfo(name, kind)
		r.classes[name] = ci
		return ci, nil
	}
	return nil, vmerr.NewProgramException(vmerr.NoClassDefFoundError, "%v", name)
}

// Names of all resolved classes, sorted
func (r *Registry) Names() []string {
	names := maps.Keys(r.classes)
	slices.Sort(names)
	return names
}
