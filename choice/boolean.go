package choice

import (
	"strconv"

	"bytemc/config"
)

// Enumerates both boolean values, false first unless configured otherwise
type Boolean struct {
	base
	falseFirst bool
	count      int
	next       bool
}

func NewBoolean(id string, falseFirst bool) *Boolean {
	return &Boolean{
		base:       base{id: id},
		falseFirst: falseFirst,
		count:      -1,
		next:       falseFirst,
	}
}

// Create a Boolean generator ordered according to cg.boolean.false_first
func NewBooleanFromConfig(cfg *config.Config, id string) *Boolean {
	return NewBoolean(id, cfg.Bool(config.BooleanFalseFirst, true))
}

func (b *Boolean) Kind() Kind {
	return KindBoolean
}

func (b *Boolean) HasMoreChoices() bool {
	return !b.isDone && b.count < 1
}

func (b *Boolean) NextChoice() bool {
	return b.next
}

func (b *Boolean) Choice() any {
	return b.next
}

func (b *Boolean) Advance() {
	if b.count < 1 {
		b.count++
		b.next = !b.next
	}
}

func (b *Boolean) Reset() {
	b.count = -1
	b.next = b.falseFirst
	b.isDone = false
}

func (b *Boolean) TotalNumberOfChoices() int {
	return 2
}

func (b *Boolean) ProcessedNumberOfChoices() int {
	return b.count + 1
}

func (b *Boolean) order() []string {
	first := !b.falseFirst
	return []string{strconv.FormatBool(first), strconv.FormatBool(!first)}
}

func (b *Boolean) String() string {
	return format("Boolean", &b.base, b.order(), b.count)
}

func (b *Boolean) randomize(flip bool) {
	if flip {
		b.falseFirst = !b.falseFirst
		b.Reset()
	}
}
