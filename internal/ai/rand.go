// Package ai implements the heuristic planner that drives a side's units
// when a human controller is not submitting commands: auto-combat,
// quick-combat, and every unit on an AI-controlled side.
package ai

import "math/rand"

// plannerRng is a package-level RNG the planner uses for tie-breaking
// and candidate sampling, independent of any Arena's own deterministic
// RNG stream: the planner's choices are allowed to vary between runs
// even when the battle's combat RNG is seeded, the same way the
// teacher's bot package keeps its own rand.Rand separate from game
// resolution randomness.
var plannerRng *rand.Rand

// SeedPlanner fixes the planner's RNG for reproducible AI-vs-AI matches.
func SeedPlanner(seed int64) {
	plannerRng = rand.New(rand.NewSource(seed))
}

// ResetPlanner clears any seed, falling back to the global rand source.
func ResetPlanner() {
	plannerRng = nil
}

func plannerFloat64() float64 {
	if plannerRng != nil {
		return plannerRng.Float64()
	}
	return rand.Float64()
}

func plannerIntn(n int) int {
	if n <= 0 {
		return 0
	}
	if plannerRng != nil {
		return plannerRng.Intn(n)
	}
	return rand.Intn(n)
}

func plannerPerm(n int) []int {
	if plannerRng != nil {
		return plannerRng.Perm(n)
	}
	return rand.Perm(n)
}
