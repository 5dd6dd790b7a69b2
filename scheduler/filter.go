package scheduler

import (
	"math/rand"

	"bytemc/thread"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

// Returns a filter that shuffles the candidate threads of every decision.
//
// The order depends only on the seed and the decision id. Use it to explore
// interleavings in a different order without changing the set of explored
// states.
func ShuffleFilter(seed int64) Filter {
	return func(id string, threads []*thread.ThreadInfo) []*thread.ThreadInfo {
		r := rand.New(rand.NewSource(seed ^ int64(xxhash.Sum64String(id))))
		out := slices.Clone(threads)
		r.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
		return out
	}
}

// Returns a filter that removes daemon threads from the candidates unless
// only daemon threads are left
func ExcludeDaemonsFilter() Filter {
	return func(id string, threads []*thread.ThreadInfo) []*thread.ThreadInfo {
		out := make([]*thread.ThreadInfo, 0, len(threads))
		for _, ti := range threads {
			if !ti.IsDaemon() {
				out = append(out, ti)
			}
		}
		if len(out) == 0 {
			return threads
		}
		return out
	}
}
