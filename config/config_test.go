package config

import (
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

func TestLoadFlattensNestedKeys(t *testing.T) {
	doc := `
cg:
  threads:
    break_all: true
  boolean:
    false_first: no
  seed: 7
vm:
  sweep: false
  max_objects: 128
choice:
  values: [1, 2, 3]
`
	cfg, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Did not expect to receive an error. Got %v", err)
	}
	expected := []string{"cg.boolean.false_first", "cg.seed", "cg.threads.break_all", "choice.values", "vm.max_objects", "vm.sweep"}
	if !slices.Equal(cfg.Keys(), expected) {
		t.Errorf("Unexpected keys. Got %v. Expected %v", cfg.Keys(), expected)
	}
	if !cfg.Bool(BreakAll, false) {
		t.Errorf("Expected %v to be true", BreakAll)
	}
	if cfg.Bool(BooleanFalseFirst, true) {
		t.Errorf("Expected %v to be false", BooleanFalseFirst)
	}
	if cfg.Int(MaxObjects, 0) != 128 {
		t.Errorf("Unexpected value of %v. Got %v. Expected %v", MaxObjects, cfg.Int(MaxObjects, 0), 128)
	}
	if cfg.Int64(Seed, 0) != 7 {
		t.Errorf("Unexpected value of %v. Got %v. Expected %v", Seed, cfg.Int64(Seed, 0), 7)
	}
	values, err := cfg.IntList("choice.values")
	if err != nil || !slices.Equal(values, []int{1, 2, 3}) {
		t.Errorf("Unexpected int list. Got %v, %v. Expected %v", values, err, []int{1, 2, 3})
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Did not expect to receive an error. Got %v", err)
	}
	if len(cfg.Keys()) != 0 {
		t.Errorf("Expected no keys. Got %v", cfg.Keys())
	}
}

func TestDefaults(t *testing.T) {
	for i, test := range defaultTest {
		cfg := New(test.values)
		if got := cfg.Bool(test.key, test.def); got != test.expected {
			t.Errorf("Test %v: Unexpected value. Got %v. Expected %v", i, got, test.expected)
		}
	}
}

var defaultTest = []struct {
	values   map[string]string
	key      string
	def      bool
	expected bool
}{
	{values: nil, key: Sweep, def: true, expected: true},
	{values: map[string]string{Sweep: "false"}, key: Sweep, def: true, expected: false},
	{values: map[string]string{Sweep: "off"}, key: Sweep, def: true, expected: false},
	{values: map[string]string{Sweep: "garbage"}, key: Sweep, def: true, expected: true},
	{values: map[string]string{BreakAll: "1"}, key: BreakAll, def: false, expected: true},
}

func TestValidate(t *testing.T) {
	if err := New(map[string]string{BreakAll: "true", Seed: "3", "listener.custom": "x"}).Validate(); err != nil {
		t.Errorf("Did not expect to receive an error. Got %v", err)
	}
	if err := New(map[string]string{Seed: "three"}).Validate(); err == nil {
		t.Errorf("Expected to receive an error for a malformed seed")
	}
	if err := New(map[string]string{Sweep: "maybe"}).Validate(); err == nil {
		t.Errorf("Expected to receive an error for a malformed boolean")
	}
}

func TestMalformedIntList(t *testing.T) {
	cfg := New(map[string]string{"cg.values": "1,x"})
	if _, err := cfg.IntList("cg.values"); err == nil {
		t.Errorf("Expected to receive an error for a malformed list")
	}
}
