package main

import (
	"errors"
	"fmt"

	"bytemc/examples/deadlock"
	"bytemc/examples/explore"
	"bytemc/examples/racecounter"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrUnknownExample = errors.New("bytemc: unknown example")

var catalog = map[string]func() *explore.Program{
	"racecounter":              func() *explore.Program { return racecounter.New(2, false) },
	"racecounter-synchronized": func() *explore.Program { return racecounter.New(2, true) },
	"deadlock":                 func() *explore.Program { return deadlock.New(false) },
	"deadlock-ordered":         func() *explore.Program { return deadlock.New(true) },
}

// Returns the names of the examples in alphabetical order
func exampleNames() []string {
	names := maps.Keys(catalog)
	slices.Sort(names)
	return names
}

func lookupExample(name string) (*explore.Program, error) {
	newProgram, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q, available are %v", ErrUnknownExample, name, exampleNames())
	}
	return newProgram(), nil
}
