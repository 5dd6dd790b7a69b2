package choice

import (
	"testing"

	"bytemc/config"
	"bytemc/thread"

	"golang.org/x/exp/slices"
)

// Advance through all choices and collect them, checking HasMoreChoices on the way
func drain[T any](t *testing.T, cg Generator[T]) []T {
	t.Helper()
	if cg.ProcessedNumberOfChoices() != 0 {
		t.Fatalf("Expected no processed choices before the first advance. Got %v", cg.ProcessedNumberOfChoices())
	}
	out := []T{}
	for i := 0; i < cg.TotalNumberOfChoices(); i++ {
		if !cg.HasMoreChoices() {
			t.Fatalf("%v: Expected more choices after %v advances", cg.ID(), i)
		}
		cg.Advance()
		out = append(out, cg.NextChoice())
	}
	if cg.HasMoreChoices() {
		t.Errorf("%v: Did not expect more choices after %v advances", cg.ID(), cg.TotalNumberOfChoices())
	}
	if cg.ProcessedNumberOfChoices() != cg.TotalNumberOfChoices() {
		t.Errorf("%v: Unexpected number of processed choices. Got %v. Expected %v", cg.ID(), cg.ProcessedNumberOfChoices(), cg.TotalNumberOfChoices())
	}
	return out
}

func TestBooleanOrder(t *testing.T) {
	tests := []struct {
		falseFirst bool
		expected   []bool
	}{
		{true, []bool{false, true}},
		{false, []bool{true, false}},
	}
	for i, test := range tests {
		cg := NewBoolean("b", test.falseFirst)
		got := drain[bool](t, cg)
		if !slices.Equal(got, test.expected) {
			t.Errorf("Test %v: Unexpected order. Got %v. Expected %v", i, got, test.expected)
		}
		cg.Reset()
		if again := drain[bool](t, cg); !slices.Equal(again, test.expected) {
			t.Errorf("Test %v: Unexpected order after reset. Got %v. Expected %v", i, again, test.expected)
		}
	}
}

func TestBooleanFromConfig(t *testing.T) {
	cg := NewBooleanFromConfig(config.New(map[string]string{config.BooleanFalseFirst: "false"}), "b")
	if got := drain[bool](t, cg); !slices.Equal(got, []bool{true, false}) {
		t.Errorf("Unexpected order. Got %v. Expected [true false]", got)
	}
}

func TestIntFromList(t *testing.T) {
	tests := []struct {
		values []int
	}{
		{[]int{1, 2, 3, 4}},
		{[]int{1, 2, 3, 4, 4}},
		{[]int{1, 2, 1, 2, 1, 2}},
		{[]int{7}},
	}
	for i, test := range tests {
		cg := NewIntFromList("test", test.values...)
		if got := drain[int](t, cg); !slices.Equal(got, test.values) {
			t.Errorf("Test %v: Unexpected choices. Got %v. Expected %v", i, got, test.values)
		}
		// advancing past the end keeps the last choice
		cg.Advance()
		if cg.NextChoice() != test.values[len(test.values)-1] {
			t.Errorf("Test %v: Unexpected choice after the end. Got %v", i, cg.NextChoice())
		}
	}
}

func TestIntFromListConfig(t *testing.T) {
	cfg := config.New(map[string]string{"sizes.values": "3, 1,2"})
	cg, err := NewIntFromListConfig(cfg, "sizes")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := drain[int](t, cg); !slices.Equal(got, []int{3, 1, 2}) {
		t.Errorf("Unexpected choices. Got %v. Expected [3 1 2]", got)
	}
	if _, err := NewIntFromListConfig(cfg, "missing"); err == nil {
		t.Errorf("Expected an error for an unconfigured list")
	}
}

func TestIntInterval(t *testing.T) {
	tests := []struct {
		lower, upper, delta int
		expected            []int
	}{
		{0, 4, 2, []int{0, 2, 4}},
		{0, 5, 2, []int{0, 2, 4}},
		{1, 3, -1, []int{3, 2, 1}},
		{5, 5, 1, []int{5}},
	}
	for i, test := range tests {
		cg, err := NewIntInterval("interval", test.lower, test.upper, test.delta)
		if err != nil {
			t.Fatalf("Test %v: Unexpected error: %v", i, err)
		}
		if got := drain[int](t, cg); !slices.Equal(got, test.expected) {
			t.Errorf("Test %v: Unexpected choices. Got %v. Expected %v", i, got, test.expected)
		}
	}
	if _, err := NewIntInterval("bad", 0, 3, 0); err == nil {
		t.Errorf("Expected an error for a zero step")
	}
	if _, err := NewIntInterval("bad", 3, 0, 1); err == nil {
		t.Errorf("Expected an error for an empty interval")
	}
}

func TestThreadFromSet(t *testing.T) {
	a, b, c := thread.New(0, "a", -1), thread.New(1, "b", -1), thread.New(2, "c", -1)
	cg := NewThreadFromSet("yield", []*thread.ThreadInfo{a, b}, true)
	if !cg.IsSchedulingPoint() || cg.Kind() != KindThread {
		t.Errorf("Unexpected generator %v", cg)
	}
	if !cg.Contains(b) || cg.Contains(c) {
		t.Errorf("Unexpected candidate set %v", cg.Values())
	}
	if cg.NextChoice() != nil {
		t.Errorf("Expected no choice before the first advance")
	}
	if got := drain[*thread.ThreadInfo](t, cg); !slices.Equal(got, []*thread.ThreadInfo{a, b}) {
		t.Errorf("Unexpected choices. Got %v", got)
	}
}

func TestThreadFromSetStringIgnoresThreadState(t *testing.T) {
	a, b := thread.New(0, "a", -1), thread.New(1, "b", -1)
	cg := NewThreadFromSet("yield", []*thread.ThreadInfo{a, b}, true)
	cg.Advance()
	expected := `ThreadFromSet[id="yield",isCascaded:false,{>>0:a,1:b}]`
	if cg.String() != expected {
		t.Errorf("Got %v. Expected %v", cg.String(), expected)
	}
	a.SetState(thread.Terminated)
	if cg.String() != expected {
		t.Errorf("Unexpected string after the thread terminated. Got %v. Expected %v", cg.String(), expected)
	}
}

func TestSetDoneStopsEnumeration(t *testing.T) {
	cg := NewIntFromList("done", 1, 2, 3)
	cg.Advance()
	cg.SetDone()
	if cg.HasMoreChoices() {
		t.Errorf("Did not expect more choices after SetDone")
	}
	cg.Reset()
	if !cg.HasMoreChoices() || cg.IsDone() {
		t.Errorf("Expected Reset to restart the enumeration")
	}
}

func TestStringMarksCurrentChoice(t *testing.T) {
	tests := []struct {
		advances int
		expected string
	}{
		{0, `IntFromList[id="s",isCascaded:false,{1,2,3}]`},
		{1, `IntFromList[id="s",isCascaded:false,{>>1,2,3}]`},
		{3, `IntFromList[id="s",isCascaded:false,{1,2,>>3}]`},
	}
	for i, test := range tests {
		cg := NewIntFromList("s", 1, 2, 3)
		for j := 0; j < test.advances; j++ {
			cg.Advance()
		}
		if cg.String() != test.expected {
			t.Errorf("Test %v: Got %v. Expected %v", i, cg.String(), test.expected)
		}
	}
	b := NewBoolean("flag", true)
	b.Advance()
	if got := b.String(); got != `Boolean[id="flag",isCascaded:false,{>>false,true}]` {
		t.Errorf("Unexpected boolean rendering %v", got)
	}
}

func TestRandomizerIsDeterministic(t *testing.T) {
	cfg := config.New(map[string]string{config.RandomizeChoices: "true", config.Seed: "7"})
	values := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	first := NewRandomizer(cfg).Randomize(NewIntFromList("r", values...)).(*IntFromList)
	second := NewRandomizer(cfg).Randomize(NewIntFromList("r", values...)).(*IntFromList)
	if !slices.Equal(first.Values(), second.Values()) {
		t.Errorf("Expected the same order for the same id. Got %v and %v", first.Values(), second.Values())
	}
	got := first.Values()
	slices.Sort(got)
	if !slices.Equal(got, values) {
		t.Errorf("Expected a permutation of the values. Got %v", first.Values())
	}

	disabled := NewRandomizer(config.New(nil)).Randomize(NewIntFromList("r", values...)).(*IntFromList)
	if !slices.Equal(disabled.Values(), values) {
		t.Errorf("Did not expect reordering when disabled. Got %v", disabled.Values())
	}
}
