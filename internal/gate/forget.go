package gate

// ForgetGate decides how much of the previous cell state survives.
//
//	y = σ(w·h + u·x + b)
//
// Inputs are [h, x] (previous output, current input).
// Parameters are [w, u, b].
type ForgetGate struct {
	inputs []float64
	params []float64
}

// NewForgetGate creates a forget gate with no inputs or parameters set.
func NewForgetGate() *ForgetGate {
	return &ForgetGate{}
}

// forgetTerms holds the values one forget-gate computation works on.
type forgetTerms struct {
	w, u, b float64
	h, x    float64
}

func (t forgetTerms) sum() float64 {
	return t.w*t.h + t.u*t.x + t.b
}

// SetInputs sets [h, x].
func (g *ForgetGate) SetInputs(values []float64) error {
	v, err := assign("ForgetGate.SetInputs", values, ForgetInputs)
	if err != nil {
		return err
	}
	g.inputs = v
	return nil
}

// SetParameters sets [w, u, b].
func (g *ForgetGate) SetParameters(values []float64) error {
	v, err := assign("ForgetGate.SetParameters", values, ForgetParameters)
	if err != nil {
		return err
	}
	g.params = v
	return nil
}

func (g *ForgetGate) terms(op string) (forgetTerms, error) {
	if err := ready(op, g.inputs, g.params); err != nil {
		return forgetTerms{}, err
	}
	return forgetTerms{
		w: g.params[0], u: g.params[1], b: g.params[2],
		h: g.inputs[0], x: g.inputs[1],
	}, nil
}

// Evaluate returns σ(w·h + u·x + b).
func (g *ForgetGate) Evaluate() (float64, error) {
	t, err := g.terms("ForgetGate.Evaluate")
	if err != nil {
		return 0, err
	}
	return Sigmoid(t.sum()), nil
}

// DerivativeWrtInputs returns [dy/dh, dy/dx].
func (g *ForgetGate) DerivativeWrtInputs() ([]float64, error) {
	t, err := g.terms("ForgetGate.DerivativeWrtInputs")
	if err != nil {
		return nil, err
	}
	ds := SigmoidDerivative(t.sum())
	return []float64{ds * t.w, ds * t.u}, nil
}

// DerivativeWrtParameters returns [dy/dw, dy/du, dy/db].
func (g *ForgetGate) DerivativeWrtParameters() ([]float64, error) {
	t, err := g.terms("ForgetGate.DerivativeWrtParameters")
	if err != nil {
		return nil, err
	}
	ds := SigmoidDerivative(t.sum())
	return []float64{ds * t.h, ds * t.x, ds}, nil
}
