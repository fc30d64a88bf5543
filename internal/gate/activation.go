package gate

import "math"

// Sigmoid computes σ(x) = 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// SigmoidDerivative computes dσ/dx = σ(x) * (1 - σ(x)).
func SigmoidDerivative(x float64) float64 {
	y := Sigmoid(x)
	return y * (1 - y)
}

// Tanh computes the hyperbolic tangent.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// TanhDerivative computes d(tanh(x))/dx = 1 - tanh²(x).
func TanhDerivative(x float64) float64 {
	y := math.Tanh(x)
	return 1 - y*y
}
