// Package gradcheck compares analytic gate derivatives with finite differences.
//
// Check works on any gate.Function (the three gates and the LSTM cell).
// CheckState covers the cell-state derivative set of a cell.
//
// Example:
//
//	report, err := gradcheck.Check(cell.New(), inputs, params, gradcheck.Settings{})
//	if err != nil {
//	    return err
//	}
//	if report.MaxAbsDiff() > 1e-3 {
//	    fmt.Print(report)
//	}
package gradcheck

import (
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/lstmcell/internal/gate"
	"gonum.org/v1/gonum/diff/fd"
)

// Kind tells whether an entry is an input or a parameter derivative.
type Kind string

const (
	Input     Kind = "input"
	Parameter Kind = "parameter"
)

// Settings controls the finite-difference approximation.
type Settings struct {
	InputStep     float64    // Step for input perturbations (default: 1e-3)
	ParameterStep float64    // Step for parameter perturbations (default: 1e-5)
	Formula       fd.Formula // Difference formula (default: fd.Forward)
}

func (s Settings) withDefaults() Settings {
	if s.InputStep == 0 {
		s.InputStep = 1e-3
	}
	if s.ParameterStep == 0 {
		s.ParameterStep = 1e-5
	}
	if s.Formula.Stencil == nil {
		s.Formula = fd.Forward
	}
	return s
}

// Entry is one analytic/numeric derivative pair.
type Entry struct {
	Kind     Kind
	Index    int
	Analytic float64
	Numeric  float64
}

// Diff returns Analytic - Numeric.
func (e Entry) Diff() float64 {
	return e.Analytic - e.Numeric
}

// Report holds every entry of one check, inputs first.
type Report struct {
	Entries []Entry
}

// MaxAbsDiff returns the largest absolute difference over all entries.
func (r *Report) MaxAbsDiff() float64 {
	var m float64
	for _, e := range r.Entries {
		m = math.Max(m, math.Abs(e.Diff()))
	}
	return m
}

// String renders one line per entry.
func (r *Report) String() string {
	var b strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "%-9s %2d  analytic=% .8f  numeric=% .8f  diff=% .3e\n",
			e.Kind, e.Index, e.Analytic, e.Numeric, e.Diff())
	}
	return b.String()
}

// StateFunction is a gate.Function that also exposes a cell state and its
// derivative set. *cell.Cell implements it.
type StateFunction interface {
	gate.Function
	CellState() (float64, error)
	StateDerivativeWrtInputs() ([]float64, error)
	StateDerivativeWrtParameters() ([]float64, error)
}

// Check compares DerivativeWrtInputs and DerivativeWrtParameters of fn at
// (inputs, params) with finite differences of Evaluate. fn is left configured
// at (inputs, params) and evaluated.
func Check(fn gate.Function, inputs, params []float64, s Settings) (*Report, error) {
	value := func() (float64, error) { return fn.Evaluate() }
	return check(fn, inputs, params, s.withDefaults(), value, fn.DerivativeWrtInputs, fn.DerivativeWrtParameters)
}

// CheckState compares the cell-state derivatives of fn with finite
// differences of CellState.
func CheckState(fn StateFunction, inputs, params []float64, s Settings) (*Report, error) {
	value := func() (float64, error) {
		if _, err := fn.Evaluate(); err != nil {
			return 0, err
		}
		return fn.CellState()
	}
	return check(fn, inputs, params, s.withDefaults(), value, fn.StateDerivativeWrtInputs, fn.StateDerivativeWrtParameters)
}

func check(
	fn gate.Function,
	inputs, params []float64,
	s Settings,
	value func() (float64, error),
	dInputs, dParams func() ([]float64, error),
) (*Report, error) {
	at := func(in, p []float64) (float64, error) {
		if err := fn.SetInputs(in); err != nil {
			return 0, err
		}
		if err := fn.SetParameters(p); err != nil {
			return 0, err
		}
		return value()
	}

	if _, err := at(inputs, params); err != nil {
		return nil, err
	}
	analyticIn, err := dInputs()
	if err != nil {
		return nil, err
	}
	analyticParams, err := dParams()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	settings := &fd.Settings{Formula: s.Formula}

	var evalErr error
	numeric := func(vary []float64, step float64, idx int, eval func(shifted []float64) (float64, error)) float64 {
		settings.Step = step
		shifted := append([]float64(nil), vary...)
		return fd.Derivative(func(v float64) float64 {
			shifted[idx] = v
			y, err := eval(shifted)
			if err != nil && evalErr == nil {
				evalErr = err
			}
			return y
		}, vary[idx], settings)
	}

	for k, a := range analyticIn {
		n := numeric(inputs, s.InputStep, k, func(in []float64) (float64, error) { return at(in, params) })
		report.Entries = append(report.Entries, Entry{Kind: Input, Index: k, Analytic: a, Numeric: n})
	}
	for k, a := range analyticParams {
		n := numeric(params, s.ParameterStep, k, func(p []float64) (float64, error) { return at(inputs, p) })
		report.Entries = append(report.Entries, Entry{Kind: Parameter, Index: k, Analytic: a, Numeric: n})
	}
	if evalErr != nil {
		return nil, evalErr
	}

	// Leave fn at the requested point.
	if _, err := at(inputs, params); err != nil {
		return nil, err
	}
	return report, nil
}
