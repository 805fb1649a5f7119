// Package rnd provides the seedable random primitives used during document
// generation.
//
// A Source is owned by exactly one document generation. It is not safe for
// concurrent use; callers generating documents in parallel create one Source
// per document so that every document is reproducible from its seed alone.
package rnd

import (
	"fmt"
	"math/rand/v2"

	"github.com/lucasjones/reggen"
)

// NoBound disables the upper bound of Exp.
const NoBound = -1

// pcgStream decorrelates the two PCG state words derived from one seed.
const pcgStream = 0x9e3779b97f4a7c15

// Source is a seeded random generator.
type Source struct {
	seed uint64
	r    *rand.Rand
}

// New creates a Source from a seed. Equal seeds yield equal sequences.
func New(seed uint64) *Source {
	return &Source{
		seed: seed,
		r:    rand.New(rand.NewPCG(seed, seed^pcgStream)),
	}
}

// Seed returns the seed the Source was created with.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Int returns a uniform integer in [lo, hi].
// Panics if hi < lo.
func (s *Source) Int(lo, hi int) int {
	if hi < lo {
		panic(fmt.Sprintf("rnd: empty range [%d, %d]", lo, hi))
	}
	return lo + s.r.IntN(hi-lo+1)
}

// Int64 returns a uniform integer in [lo, hi].
// Panics if hi < lo.
func (s *Source) Int64(lo, hi int64) int64 {
	if hi < lo {
		panic(fmt.Sprintf("rnd: empty range [%d, %d]", lo, hi))
	}
	return lo + s.r.Int64N(hi-lo+1)
}

// Exp returns floor(X) where X is exponentially distributed with the given
// rate (mean 1/rate). When maxInclusive is not NoBound, values above it are
// redrawn, so the result always lies in [0, maxInclusive].
func (s *Source) Exp(rate float64, maxInclusive int) int {
	if rate <= 0 {
		panic(fmt.Sprintf("rnd: non-positive rate %v", rate))
	}
	if maxInclusive != NoBound && maxInclusive < 0 {
		return 0
	}
	for {
		n := int(s.r.ExpFloat64() / rate)
		if maxInclusive == NoBound || n <= maxInclusive {
			return n
		}
	}
}

// Float64 returns a uniform float in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Bool returns true with probability one half.
func (s *Source) Bool() bool {
	return s.r.IntN(2) == 0
}

// Pick returns a uniformly chosen element of items.
// Panics if items is empty.
func Pick[T any](s *Source, items []T) T {
	if len(items) == 0 {
		panic("rnd: pick from empty slice")
	}
	return items[s.r.IntN(len(items))]
}

// Subset returns a non-empty uniformly sized random subset of items, in
// random order. It returns nil if items is empty. items is not modified.
func (s *Source) Subset(items []uint32) []uint32 {
	if len(items) == 0 {
		return nil
	}
	pool := make([]uint32, len(items))
	copy(pool, items)
	s.r.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:s.Int(1, len(pool))]
}

// Regex returns a random string matching pattern. Unbounded repetitions
// (*, +) are expanded at most limit times.
func (s *Source) Regex(pattern string, limit int) (string, error) {
	g, err := reggen.NewGenerator(pattern)
	if err != nil {
		return "", fmt.Errorf("rnd: invalid pattern %q: %w", pattern, err)
	}
	g.SetSeed(s.r.Int64())
	return g.Generate(limit), nil
}

// Read fills p with random bytes. It never fails, which makes a Source usable
// wherever an io.Reader of entropy is expected (for example UUID generation).
func (s *Source) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := s.r.Uint64()
		for j := 0; j < 8 && i+j < len(p); j++ {
			p[i+j] = byte(v >> (8 * j))
		}
	}
	return len(p), nil
}
