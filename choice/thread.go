package choice

import (
	"fmt"

	"bytemc/thread"

	"golang.org/x/exp/slices"
)

// Chooses the thread that runs next, or the thread affected by an operation like notify
type ThreadFromSet struct {
	listChoice[*thread.ThreadInfo]
	schedulingPoint bool
}

func NewThreadFromSet(id string, threads []*thread.ThreadInfo, isSchedulingPoint bool) *ThreadFromSet {
	return &ThreadFromSet{
		listChoice:      newListChoice("ThreadFromSet", KindThread, id, slices.Clone(threads)),
		schedulingPoint: isSchedulingPoint,
	}
}

func (tc *ThreadFromSet) IsSchedulingPoint() bool {
	return tc.schedulingPoint
}

// Returns true if ti is one of the alternatives
func (tc *ThreadFromSet) Contains(ti *thread.ThreadInfo) bool {
	return slices.Contains(tc.values, ti)
}

// Renders the alternatives by id and name only, so the string stays the same
// while the threads move on
func (tc *ThreadFromSet) String() string {
	alternatives := make([]string, len(tc.values))
	for i, ti := range tc.values {
		alternatives[i] = fmt.Sprintf("%v:%v", ti.Id(), ti.Name())
	}
	return format(tc.name, &tc.base, alternatives, tc.count)
}
