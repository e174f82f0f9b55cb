package sim

import (
	"math/rand"
	"time"
)

// Source is the random number source of the engine. Every random draw of the forecast, the pace
// model, the strategy engine and qualifying goes through it, so a seeded source reproduces a
// race exactly.
type Source interface {
	// Float64 returns a number in [0,1).
	Float64() float64
}

// NewSource returns a seeded source. A zero seed yields a time-based seed.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func between(src Source, min, max float64) float64 {
	return min + (max-min)*src.Float64()
}

// chance returns true with probability p.
func chance(src Source, p float64) bool {
	return src.Float64() < p
}

// centered returns a number in [-magnitude/2, magnitude/2).
func centered(src Source, magnitude float64) float64 {
	return (src.Float64() - 0.5) * magnitude
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
