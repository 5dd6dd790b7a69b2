package choice

import (
	"fmt"

	"bytemc/config"

	"golang.org/x/exp/slices"
)

// Enumerates a list of integers. Duplicates are enumerated as they appear
type IntFromList struct {
	listChoice[int]
}

func NewIntFromList(id string, values ...int) *IntFromList {
	return &IntFromList{newListChoice("IntFromList", KindInt, id, slices.Clone(values))}
}

// Create the generator from the comma separated list stored under "<id>.values"
func NewIntFromListConfig(cfg *config.Config, id string) (*IntFromList, error) {
	values, err := cfg.IntList(id + ".values")
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("choice: no values configured for %v", id)
	}
	return NewIntFromList(id, values...), nil
}

// Enumerates min, min+delta, ... up to max.
// A negative delta counts down from max to min.
type IntInterval struct {
	listChoice[int]
	min, max, delta int
}

func NewIntInterval(id string, lower, upper, delta int) (*IntInterval, error) {
	if delta == 0 {
		return nil, fmt.Errorf("choice: interval %v needs a non zero step", id)
	}
	if lower > upper {
		return nil, fmt.Errorf("choice: interval %v is empty, %v > %v", id, lower, upper)
	}
	values := []int{}
	if delta > 0 {
		for v := lower; v <= upper; v += delta {
			values = append(values, v)
		}
	} else {
		for v := upper; v >= lower; v += delta {
			values = append(values, v)
		}
	}
	return &IntInterval{
		listChoice: newListChoice("IntInterval", KindInt, id, values),
		min:        lower,
		max:        upper,
		delta:      delta,
	}, nil
}

func (ii *IntInterval) Bounds() (lower, upper, delta int) {
	return ii.min, ii.max, ii.delta
}
