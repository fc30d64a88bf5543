package gate

// InputGate scales a tanh candidate by a sigmoid gate.
//
//	i = σ(wi·h + ui·x + bi)
//	a = tanh(wa·h + ua·x + ba)
//	y = i·a
//
// Inputs are [h, x]. Parameters are [wi, ui, bi, wa, ua, ba].
type InputGate struct {
	inputs []float64
	params []float64
}

// NewInputGate creates an input gate with no inputs or parameters set.
func NewInputGate() *InputGate {
	return &InputGate{}
}

type inputTerms struct {
	wi, ui, bi float64
	wa, ua, ba float64
	h, x       float64
}

func (t inputTerms) sums() (si, sa float64) {
	return t.wi*t.h + t.ui*t.x + t.bi, t.wa*t.h + t.ua*t.x + t.ba
}

// SetInputs sets [h, x].
func (g *InputGate) SetInputs(values []float64) error {
	v, err := assign("InputGate.SetInputs", values, InputInputs)
	if err != nil {
		return err
	}
	g.inputs = v
	return nil
}

// SetParameters sets [wi, ui, bi, wa, ua, ba].
func (g *InputGate) SetParameters(values []float64) error {
	v, err := assign("InputGate.SetParameters", values, InputParameters)
	if err != nil {
		return err
	}
	g.params = v
	return nil
}

func (g *InputGate) terms(op string) (inputTerms, error) {
	if err := ready(op, g.inputs, g.params); err != nil {
		return inputTerms{}, err
	}
	p := g.params
	return inputTerms{
		wi: p[0], ui: p[1], bi: p[2],
		wa: p[3], ua: p[4], ba: p[5],
		h: g.inputs[0], x: g.inputs[1],
	}, nil
}

// Evaluate returns i·a.
func (g *InputGate) Evaluate() (float64, error) {
	t, err := g.terms("InputGate.Evaluate")
	if err != nil {
		return 0, err
	}
	si, sa := t.sums()
	return Sigmoid(si) * Tanh(sa), nil
}

// DerivativeWrtInputs returns [dy/dh, dy/dx].
//
// Product rule: d(i·a) = a·di + i·da.
func (g *InputGate) DerivativeWrtInputs() ([]float64, error) {
	t, err := g.terms("InputGate.DerivativeWrtInputs")
	if err != nil {
		return nil, err
	}
	si, sa := t.sums()
	i, a := Sigmoid(si), Tanh(sa)
	dsi, dta := SigmoidDerivative(si), TanhDerivative(sa)

	dh := a*dsi*t.wi + i*dta*t.wa
	dx := a*dsi*t.ui + i*dta*t.ua
	return []float64{dh, dx}, nil
}

// DerivativeWrtParameters returns [dwi, dui, dbi, dwa, dua, dba].
func (g *InputGate) DerivativeWrtParameters() ([]float64, error) {
	t, err := g.terms("InputGate.DerivativeWrtParameters")
	if err != nil {
		return nil, err
	}
	si, sa := t.sums()
	i, a := Sigmoid(si), Tanh(sa)
	di := a * SigmoidDerivative(si)
	da := i * TanhDerivative(sa)
	return []float64{
		di * t.h, di * t.x, di,
		da * t.h, da * t.x, da,
	}, nil
}
