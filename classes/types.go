package classes

import "fmt"

// The storage kind of a field or array element
type Kind int

const (
	Int Kind = iota
	Long
	Boolean
	Char
	Reference
)

// Returns the type descriptor character of the kind
func (k Kind) Descriptor() string {
	switch k {
	case Int:
		return "I"
	case Long:
		return "J"
	case Boolean:
		return "Z"
	case Char:
		return "C"
	case Reference:
		return "L"
	}
	return "?"
}

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Long:
		return "long"
	case Boolean:
		return "boolean"
	case Char:
		return "char"
	case Reference:
		return "reference"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Parse the kind of a single type descriptor, e.g. "I" or "Ljava.lang.Object;"
func KindOf(descriptor string) (Kind, bool) {
	if descriptor == "" {
		return 0, false
	}
	switch descriptor[0] {
	case 'I':
		return Int, len(descriptor) == 1
	case 'J':
		return Long, len(descriptor) == 1
	case 'Z':
		return Boolean, len(descriptor) == 1
	case 'C':
		return Char, len(descriptor) == 1
	case 'L':
		return Reference, len(descriptor) > 2 && descriptor[len(descriptor)-1] == ';'
	case '[':
		return Reference, len(descriptor) > 1
	}
	return 0, false
}

// Returns the name of the array class with the given element descriptor
func ArrayClassName(elementType string) string {
	return "[" + elementType
}

// Returns the descriptor used for elements referencing instances of the named class
func ReferenceDescriptor(className string) string {
	if len(className) > 0 && className[0] == '[' {
		return className
	}
	return "L" + className + ";"
}
