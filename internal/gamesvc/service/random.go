package service

import "math/rand/v2"

// RandomSource supplies dice and card draws. IntN returns a value in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type systemRandom struct{}

func (systemRandom) IntN(n int) int { return rand.IntN(n) }

// SystemRandom is the default source, seeded by the runtime.
func SystemRandom() RandomSource { return systemRandom{} }

func rollDie(rng RandomSource) int { return rng.IntN(6) + 1 }
