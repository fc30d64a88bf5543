// Package gate implements the three scalar LSTM gates and their analytic derivatives.
//
// This package provides:
//   - Function: the contract shared by every gate and by the LSTM cell
//   - ForgetGate: σ(w·h + u·x + b)
//   - InputGate: σ(wi·h + ui·x + bi) · tanh(wa·h + ua·x + ba)
//   - OutputGate: tanh(C) · σ(w·h + u·x + b)
//
// Every gate is configured with SetInputs and SetParameters immediately before
// it is evaluated. Setters copy their arguments, so a gate never aliases the
// caller's slices.
//
// Example usage:
//
//	g := gate.NewForgetGate()
//	if err := g.SetInputs([]float64{h, x}); err != nil {
//	    return err
//	}
//	if err := g.SetParameters([]float64{w, u, b}); err != nil {
//	    return err
//	}
//	y, err := g.Evaluate()
//	dParams, err := g.DerivativeWrtParameters() // [dy/dw, dy/du, dy/db]
package gate

// Function is a scalar function of an ordered input list and an ordered
// parameter list.
//
// Implementations must:
//   - Reject wrong-length or non-finite lists with ErrInvalidArgument
//   - Reject Evaluate and derivative calls made before both lists are set
//     with ErrPreconditionViolation
//   - Return derivatives in the same order as the inputs/parameters
type Function interface {
	// SetInputs replaces the function inputs.
	SetInputs(values []float64) error

	// SetParameters replaces the function parameters.
	SetParameters(values []float64) error

	// Evaluate computes the function value for the current inputs and parameters.
	Evaluate() (float64, error)

	// DerivativeWrtInputs returns ∂y/∂input for every input.
	DerivativeWrtInputs() ([]float64, error)

	// DerivativeWrtParameters returns ∂y/∂parameter for every parameter.
	DerivativeWrtParameters() ([]float64, error)
}

// Parameter and input list lengths.
const (
	ForgetInputs     = 2
	ForgetParameters = 3
	InputInputs      = 2
	InputParameters  = 6
	OutputInputs     = 3
	OutputParameters = 3
)
