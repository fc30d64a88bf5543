package gate

// OutputGate produces the cell output from the new cell state.
//
//	y = tanh(C) · σ(w·h + u·x + b)
//
// Inputs are [C, h, x]. Parameters are [w, u, b].
type OutputGate struct {
	inputs []float64
	params []float64
}

// NewOutputGate creates an output gate with no inputs or parameters set.
func NewOutputGate() *OutputGate {
	return &OutputGate{}
}

type outputTerms struct {
	w, u, b float64
	c, h, x float64
}

func (t outputTerms) sum() float64 {
	return t.w*t.h + t.u*t.x + t.b
}

// SetInputs sets [C, h, x].
func (g *OutputGate) SetInputs(values []float64) error {
	v, err := assign("OutputGate.SetInputs", values, OutputInputs)
	if err != nil {
		return err
	}
	g.inputs = v
	return nil
}

// SetParameters sets [w, u, b].
func (g *OutputGate) SetParameters(values []float64) error {
	v, err := assign("OutputGate.SetParameters", values, OutputParameters)
	if err != nil {
		return err
	}
	g.params = v
	return nil
}

func (g *OutputGate) terms(op string) (outputTerms, error) {
	if err := ready(op, g.inputs, g.params); err != nil {
		return outputTerms{}, err
	}
	return outputTerms{
		w: g.params[0], u: g.params[1], b: g.params[2],
		c: g.inputs[0], h: g.inputs[1], x: g.inputs[2],
	}, nil
}

// Evaluate returns tanh(C)·σ(s).
func (g *OutputGate) Evaluate() (float64, error) {
	t, err := g.terms("OutputGate.Evaluate")
	if err != nil {
		return 0, err
	}
	return Tanh(t.c) * Sigmoid(t.sum()), nil
}

// DerivativeWrtInputs returns [dy/dC, dy/dh, dy/dx].
func (g *OutputGate) DerivativeWrtInputs() ([]float64, error) {
	t, err := g.terms("OutputGate.DerivativeWrtInputs")
	if err != nil {
		return nil, err
	}
	s := t.sum()
	k := Tanh(t.c) * SigmoidDerivative(s)
	return []float64{
		TanhDerivative(t.c) * Sigmoid(s),
		k * t.w,
		k * t.u,
	}, nil
}

// DerivativeWrtParameters returns [dy/dw, dy/du, dy/db].
func (g *OutputGate) DerivativeWrtParameters() ([]float64, error) {
	t, err := g.terms("OutputGate.DerivativeWrtParameters")
	if err != nil {
		return nil, err
	}
	k := Tanh(t.c) * SigmoidDerivative(t.sum())
	return []float64{k * t.h, k * t.x, k}, nil
}
