package combat

// Rand is the randomness the combat engine consumes.
// *math/rand/v2.Rand satisfies it; tests script it.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}
