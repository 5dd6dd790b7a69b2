package choice

import (
	"math/rand"

	"bytemc/config"

	"github.com/cespare/xxhash/v2"
)

// Reorders the alternatives of generators when cg.randomize_choices is set.
//
// The order is drawn from a generator seeded with cg.seed mixed with the id of
// the choice generator, so a generator with the same id always gets the same
// order within a search.
type Randomizer struct {
	enabled bool
	seed    int64
}

func NewRandomizer(cfg *config.Config) *Randomizer {
	return &Randomizer{
		enabled: cfg.Bool(config.RandomizeChoices, false),
		seed:    cfg.Int64(config.Seed, 42),
	}
}

func (r *Randomizer) Enabled() bool {
	return r.enabled
}

// Returns the source used for the generator with the given id
func (r *Randomizer) Source(id string) *rand.Rand {
	return rand.New(rand.NewSource(r.seed ^ int64(xxhash.Sum64String(id))))
}

// Reorder the alternatives of cg in place and return it. Does nothing if randomization is disabled
func (r *Randomizer) Randomize(cg ChoiceGenerator) ChoiceGenerator {
	if !r.enabled {
		return cg
	}
	rnd := r.Source(cg.ID())
	switch c := cg.(type) {
	case *Boolean:
		c.randomize(rnd.Intn(2) == 1)
	case *IntFromList:
		c.shuffle(rnd)
	case *IntInterval:
		c.shuffle(rnd)
	case *ThreadFromSet:
		c.shuffle(rnd)
	}
	return cg
}
