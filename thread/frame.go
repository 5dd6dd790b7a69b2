package thread

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// A call stack frame.
//
// The frame only keeps what the exploration core needs: the position of the
// thread (method and pc) and the reference slots that act as garbage
// collection roots. Primitive slots are kept so that frames can be compared
// and serialized, their meaning belongs to the interpreter.
type Frame struct {
	Method string
	PC     int

	// Reference slots of locals and operands. -1 is null
	Refs []int
	// Primitive slots of locals and operands
	Values []int64
}

// Create a frame with nRefs null reference slots and nValues zero primitive slots
func NewFrame(method string, nRefs int, nValues int) *Frame {
	refs := make([]int, nRefs)
	for i := range refs {
		refs[i] = -1
	}
	return &Frame{
		Method: method,
		Refs:   refs,
		Values: make([]int64, nValues),
	}
}

func (f *Frame) Clone() *Frame {
	return &Frame{
		Method: f.Method,
		PC:     f.PC,
		Refs:   slices.Clone(f.Refs),
		Values: slices.Clone(f.Values),
	}
}

func (f *Frame) Equal(other *Frame) bool {
	return f.Method == other.Method && f.PC == other.PC &&
		slices.Equal(f.Refs, other.Refs) && slices.Equal(f.Values, other.Values)
}

func (f *Frame) String() string {
	return fmt.Sprintf("%v@%v", f.Method, f.PC)
}
