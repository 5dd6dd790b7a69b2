package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func execute(args ...string) (string, error) {
	var out, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunExamples(t *testing.T) {
	tests := []struct {
		example  string
		violated bool
	}{
		{"deadlock", true},
		{"deadlock-ordered", false},
		{"racecounter", true},
		{"racecounter-synchronized", false},
	}
	for _, test := range tests {
		out, err := execute("run", test.example, "--log-level", "error")
		if violated := errors.Is(err, ErrPropertyViolated); violated != test.violated {
			t.Errorf("Test %v: Unexpected verdict. Got %v. Expected violated: %v", test.example, err, test.violated)
		}
		if !strings.HasPrefix(out, test.example+":") {
			t.Errorf("Test %v: Unexpected output. Got %q", test.example, out)
		}
	}
}

func TestRunPrintsTree(t *testing.T) {
	out, err := execute("run", "deadlock-ordered", "--tree", "--log-level", "error")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "init deadlock-ordered") {
		t.Errorf("Expected the search tree in the output. Got %q", out)
	}
}

func TestUnknownExample(t *testing.T) {
	_, err := execute("run", "philosophers")
	if !errors.Is(err, ErrUnknownExample) {
		t.Errorf("Unexpected error. Got %v. Expected %v", err, ErrUnknownExample)
	}
}

func TestExamplesCommand(t *testing.T) {
	out, err := execute("examples")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got := strings.Fields(out)
	if strings.Join(got, ",") != strings.Join(exampleNames(), ",") {
		t.Errorf("Unexpected examples. Got %v. Expected %v", got, exampleNames())
	}
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bytemc.yaml")
	err := os.WriteFile(path, []byte("cg:\n  seed: 7\n  boolean:\n    false_first: false\n"), 0o600)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out, err := execute("config", path, "--set", "vm.max_objects=100")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal([]byte(out), &values); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := map[string]string{
		"cg.seed":                "7",
		"cg.boolean.false_first": "false",
		"vm.max_objects":         "100",
	}
	for k, v := range expected {
		if values[k] != v {
			t.Errorf("Test %v: Got %v. Expected %v", k, values[k], v)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := [][]string{
		{"config", "--set", "vm.max_objects"},
		{"config", "--set", "vm.max_objects=many"},
		{"config", "--log-format", "xml"},
		{"config", filepath.Join(t.TempDir(), "missing.yaml")},
	}
	for _, args := range tests {
		if _, err := execute(args...); err == nil {
			t.Errorf("Test %v: Expected an error", args)
		}
	}
}
