package unit

import (
	"math/rand"

	"github.com/born-ml/lstmcell/internal/cell"
)

// RandomParameters draws twelve parameters from rng.
//
// Each value is sign·U(0, 1) with the sign chosen with probability 1/2, so
// parameters fall in (-1, 1).
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	params := unit.RandomParameters(rng)
func RandomParameters(rng *rand.Rand) []float64 {
	params := make([]float64, cell.NumParameters)
	for i := range params {
		sign := 1.0
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		if rng.Float64() < 0.5 {
			sign = -1
		}
		params[i] = sign * rng.Float64()
	}
	return params
}
