// Package cell composes the forget, input and output gates into one LSTM step.
//
// A Cell maps (previous cell state C0, previous output h0, current input x)
// and twelve parameters to a new output h and a new cell state C:
//
//	f = σ(wf·h0 + uf·x + bf)
//	C = C0·f + σ(wi·h0 + ui·x + bi)·tanh(wa·h0 + ua·x + ba)
//	h = tanh(C)·σ(wo·h0 + uo·x + bo)
//
// Besides the value it exposes two derivative sets: the total derivatives of
// h and of C with respect to the three inputs and the twelve parameters.
package cell

import (
	"github.com/born-ml/lstmcell/internal/gate"
)

// Input and parameter layout.
const (
	NumInputs     = 3
	NumParameters = 12

	// Parameter offsets of each gate inside the 12-vector
	// [wf, uf, bf, wi, ui, bi, wa, ua, ba, wo, uo, bo].
	ForgetOffset = 0
	InputOffset  = ForgetOffset + gate.ForgetParameters
	OutputOffset = InputOffset + gate.InputParameters
)

// ParameterNames lists the parameters in index order.
var ParameterNames = [NumParameters]string{
	"wf", "uf", "bf",
	"wi", "ui", "bi",
	"wa", "ua", "ba",
	"wo", "uo", "bo",
}

// Cell is a single LSTM step. It implements gate.Function for the output h
// and adds the cell-state derivative set.
//
// Example:
//
//	c := cell.New()
//	_ = c.SetParameters(params) // 12 values
//	_ = c.SetInputs([]float64{c0, h0, x})
//	h, err := c.Evaluate()
//	state, _ := c.CellState()
type Cell struct {
	inputs []float64
	params []float64

	evaluated bool
	c, h      float64
	last      step
	grads     *gateDerivatives // lazily built from last
}

var _ gate.Function = (*Cell)(nil)

// New creates a Cell with no inputs or parameters set.
func New() *Cell {
	return &Cell{}
}

// SetInputs sets [C0, h0, x]. It invalidates the last evaluation.
func (c *Cell) SetInputs(values []float64) error {
	if err := gate.Validate("Cell.SetInputs", values, NumInputs); err != nil {
		return err
	}
	c.inputs = append(c.inputs[:0], values...)
	c.evaluated = false
	return nil
}

// SetParameters sets the twelve parameters. It invalidates the last evaluation.
func (c *Cell) SetParameters(values []float64) error {
	if err := gate.Validate("Cell.SetParameters", values, NumParameters); err != nil {
		return err
	}
	c.params = append(c.params[:0], values...)
	c.evaluated = false
	return nil
}

// Inputs returns a copy of [C0, h0, x].
func (c *Cell) Inputs() []float64 {
	return append([]float64(nil), c.inputs...)
}

// Parameters returns a copy of the twelve parameters.
func (c *Cell) Parameters() []float64 {
	return append([]float64(nil), c.params...)
}

// Evaluate runs one step, stores the new output and cell state and returns
// the output.
func (c *Cell) Evaluate() (float64, error) {
	if len(c.inputs) == 0 || len(c.params) == 0 {
		return 0, c.notReady("Cell.Evaluate")
	}
	s, err := c.step()
	if err != nil {
		return 0, err
	}
	c.c, c.h = s.c, s.h
	c.last, c.grads = s, nil
	c.evaluated = true
	return s.h, nil
}

// CellState returns the cell state computed by the last Evaluate.
func (c *Cell) CellState() (float64, error) {
	if !c.evaluated {
		return 0, c.notReady("Cell.CellState")
	}
	return c.c, nil
}

// Output returns the output computed by the last Evaluate.
func (c *Cell) Output() (float64, error) {
	if !c.evaluated {
		return 0, c.notReady("Cell.Output")
	}
	return c.h, nil
}

// DerivativeWrtInputs returns [dh/dC0, dh/dh0, dh/dx].
func (c *Cell) DerivativeWrtInputs() ([]float64, error) {
	s, d, err := c.evaluatedStep("Cell.DerivativeWrtInputs")
	if err != nil {
		return nil, err
	}
	oc := d.outIn[0]
	return []float64{
		oc * s.f,
		d.outIn[1] + oc*(s.c0*d.forgetIn[0]+d.inputIn[0]),
		d.outIn[2] + oc*(s.c0*d.forgetIn[1]+d.inputIn[1]),
	}, nil
}

// DerivativeWrtParameters returns dh/dp for the twelve parameters.
//
// Forget and input parameters reach h only through C, so they are scaled by
// dh/dC. Output parameters act directly on h.
func (c *Cell) DerivativeWrtParameters() ([]float64, error) {
	s, d, err := c.evaluatedStep("Cell.DerivativeWrtParameters")
	if err != nil {
		return nil, err
	}
	oc := d.outIn[0]
	out := make([]float64, NumParameters)
	for k, v := range d.forgetParams {
		out[ForgetOffset+k] = oc * s.c0 * v
	}
	for k, v := range d.inputParams {
		out[InputOffset+k] = oc * v
	}
	copy(out[OutputOffset:], d.outParams)
	return out, nil
}

// StateDerivativeWrtInputs returns [dC/dC0, dC/dh0, dC/dx].
func (c *Cell) StateDerivativeWrtInputs() ([]float64, error) {
	s, d, err := c.evaluatedStep("Cell.StateDerivativeWrtInputs")
	if err != nil {
		return nil, err
	}
	return []float64{
		s.f,
		s.c0*d.forgetIn[0] + d.inputIn[0],
		s.c0*d.forgetIn[1] + d.inputIn[1],
	}, nil
}

// StateDerivativeWrtParameters returns dC/dp for the twelve parameters.
// The output-gate entries are always zero.
func (c *Cell) StateDerivativeWrtParameters() ([]float64, error) {
	s, d, err := c.evaluatedStep("Cell.StateDerivativeWrtParameters")
	if err != nil {
		return nil, err
	}
	out := make([]float64, NumParameters)
	for k, v := range d.forgetParams {
		out[ForgetOffset+k] = s.c0 * v
	}
	copy(out[InputOffset:OutputOffset], d.inputParams)
	return out, nil
}

// evaluatedStep returns the step of the last Evaluate and its gate
// derivatives, computing the derivatives once per evaluation.
func (c *Cell) evaluatedStep(op string) (step, *gateDerivatives, error) {
	if !c.evaluated {
		return step{}, nil, c.notReady(op)
	}
	if c.grads == nil {
		d, err := c.last.derivatives()
		if err != nil {
			return step{}, nil, err
		}
		c.grads = &d
	}
	return c.last, c.grads, nil
}

func (c *Cell) notReady(op string) error {
	details := "Evaluate has not been called since the last SetInputs/SetParameters"
	switch {
	case len(c.inputs) == 0 && len(c.params) == 0:
		details = "inputs and parameters not set"
	case len(c.inputs) == 0:
		details = "inputs not set"
	case len(c.params) == 0:
		details = "parameters not set"
	}
	return &gate.ArgumentError{Op: op, Index: -1, Details: details, Err: gate.ErrPreconditionViolation}
}
