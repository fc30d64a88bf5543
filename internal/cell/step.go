package cell

import (
	"fmt"

	"github.com/born-ml/lstmcell/internal/gate"
)

// step is one pass through the three gates. Gates are created per step and
// never outlive it.
type step struct {
	c0, h0, x float64
	f, c, h   float64

	forget *gate.ForgetGate
	input  *gate.InputGate
	output *gate.OutputGate
}

// gateDerivatives holds the local derivatives of the three gates at one step.
type gateDerivatives struct {
	forgetIn, forgetParams []float64 // [dh0, dx], [dwf, duf, dbf]
	inputIn, inputParams   []float64 // [dh0, dx], [dwi, dui, dbi, dwa, dua, dba]
	outIn, outParams       []float64 // [dC, dh0, dx], [dwo, duo, dbo]
}

func (c *Cell) step() (step, error) {
	s := step{
		c0: c.inputs[0], h0: c.inputs[1], x: c.inputs[2],
		forget: gate.NewForgetGate(),
		input:  gate.NewInputGate(),
		output: gate.NewOutputGate(),
	}
	p := c.params
	hx := []float64{s.h0, s.x}

	if err := configure(s.forget, hx, p[ForgetOffset:InputOffset]); err != nil {
		return step{}, err
	}
	f, err := s.forget.Evaluate()
	if err != nil {
		return step{}, fmt.Errorf("forget gate: %w", err)
	}

	if err := configure(s.input, hx, p[InputOffset:OutputOffset]); err != nil {
		return step{}, err
	}
	i, err := s.input.Evaluate()
	if err != nil {
		return step{}, fmt.Errorf("input gate: %w", err)
	}

	s.f = f
	s.c = s.c0*f + i

	if err := configure(s.output, []float64{s.c, s.h0, s.x}, p[OutputOffset:]); err != nil {
		return step{}, err
	}
	s.h, err = s.output.Evaluate()
	if err != nil {
		return step{}, fmt.Errorf("output gate: %w", err)
	}
	return s, nil
}

func (s step) derivatives() (gateDerivatives, error) {
	var (
		d   gateDerivatives
		err error
	)
	if d.forgetIn, err = s.forget.DerivativeWrtInputs(); err != nil {
		return d, err
	}
	if d.forgetParams, err = s.forget.DerivativeWrtParameters(); err != nil {
		return d, err
	}
	if d.inputIn, err = s.input.DerivativeWrtInputs(); err != nil {
		return d, err
	}
	if d.inputParams, err = s.input.DerivativeWrtParameters(); err != nil {
		return d, err
	}
	if d.outIn, err = s.output.DerivativeWrtInputs(); err != nil {
		return d, err
	}
	if d.outParams, err = s.output.DerivativeWrtParameters(); err != nil {
		return d, err
	}
	return d, nil
}

func configure(g gate.Function, inputs, params []float64) error {
	if err := g.SetInputs(inputs); err != nil {
		return err
	}
	return g.SetParameters(params)
}
