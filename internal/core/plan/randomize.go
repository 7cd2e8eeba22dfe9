package plan

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Rand is the random source used by Randomize. Float64 returns a value in
// [0.0, 1.0). *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SeedFromCrypto draws an unpredictable seed from crypto/rand.
func SeedFromCrypto() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Randomize produces one trial order from the plan.
//
// Scenes are put in random order with a backward Fisher-Yates pass over
// the whole list; fixedPrefix has no effect on scene order. Within each
// scene, variants at indices 0..fixedPrefix keep their position and the
// remaining variants are exchanged among themselves. The trial for a
// scene is its shuffled element 0 and element 1.
//
// The plan is not modified. The caller is expected to have validated it.
func Randomize(p TestPlan, fixedPrefix int, rng Rand) TrialOrder {
	scenes := p.Clone()

	for i := len(scenes) - 1; i > 0; i-- {
		j := pick(rng, i+1)
		scenes[i], scenes[j] = scenes[j], scenes[i]
	}

	for _, scene := range scenes {
		shuffleVariants(scene, fixedPrefix, rng)
	}

	order := make(TrialOrder, 0, len(scenes))
	for _, scene := range scenes {
		order = append(order, Trial{A: scene[0], B: scene[1]})
	}
	return order
}

// shuffleVariants permutes scene[fixedPrefix+1:] in place. The lower bound
// on the swap partner keeps the prefix pinned.
func shuffleVariants(scene Scene, fixedPrefix int, rng Rand) {
	lo := fixedPrefix + 1
	for k := len(scene) - 1; k > fixedPrefix; k-- {
		p := max(pick(rng, k+1), lo)
		scene[k], scene[p] = scene[p], scene[k]
	}
}

// pick returns floor(r * n) clamped to [0, n).
func pick(rng Rand, n int) int {
	j := int(rng.Float64() * float64(n))
	if j >= n {
		j = n - 1
	}
	if j < 0 {
		j = 0
	}
	return j
}
