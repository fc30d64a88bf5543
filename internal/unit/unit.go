// Package unit unrolls an LSTM cell over a finite sequence and fits its twelve
// parameters to a target sequence with backpropagation through time.
//
// A Unit owns its input sequence, target sequence, parameter vector, the last
// output sequence, the two sensitivity tables and the training history. Nothing
// is shared between Units; independent Units may be trained concurrently.
//
// Example usage:
//
//	u, err := unit.New(sequence, target, params)
//	if err != nil {
//	    return err
//	}
//	err = u.Optimize(unit.TrainConfig{
//	    LearningRate:  0.01,
//	    MaxIterations: 15000,
//	})
//	history := u.History()
//	outputs := u.Outputs()
package unit

import (
	"errors"
	"fmt"

	"github.com/born-ml/lstmcell/internal/cell"
	"github.com/born-ml/lstmcell/internal/gate"
	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when sequence, target and effective length
// do not fit together.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Stepper is one LSTM step with both derivative sets. *cell.Cell implements it.
type Stepper interface {
	gate.Function

	// CellState returns the cell state computed by the last Evaluate.
	CellState() (float64, error)

	// StateDerivativeWrtInputs returns [dC/dC0, dC/dh0, dC/dx].
	StateDerivativeWrtInputs() ([]float64, error)

	// StateDerivativeWrtParameters returns dC/dp for every parameter.
	StateDerivativeWrtParameters() ([]float64, error)
}

var _ Stepper = (*cell.Cell)(nil)

// Option configures a Unit.
type Option func(*Unit)

// WithStepper replaces the cell factory. Each Run and Optimize call creates
// one Stepper from it.
func WithStepper(newStepper func() Stepper) Option {
	return func(u *Unit) {
		u.newStepper = newStepper
	}
}

// WithProgress registers a callback invoked after every training iteration
// with the iteration index and its MSE.
func WithProgress(fn func(iteration int, mse float64)) Option {
	return func(u *Unit) {
		u.progress = fn
	}
}

// Unit is an LSTM cell unrolled over a finite sequence.
type Unit struct {
	sequence []float64
	target   []float64
	params   []float64

	outputs  []float64
	tables   *sensitivity
	gradient []float64
	history  []float64

	newStepper func() Stepper
	progress   func(iteration int, mse float64)
}

// New creates a Unit over sequence with the given twelve parameters.
//
// target may be nil when the Unit is only used for Run; otherwise it must have
// the same length as sequence or ErrDimensionMismatch is returned.
func New(sequence, target, params []float64, opts ...Option) (*Unit, error) {
	u := &Unit{
		newStepper: func() Stepper { return cell.New() },
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := u.SetData(sequence, target); err != nil {
		return nil, err
	}
	if err := u.SetParameters(params); err != nil {
		return nil, err
	}
	return u, nil
}

// SetData replaces the input and target sequences together.
func (u *Unit) SetData(sequence, target []float64) error {
	seq, err := checkSequence("unit.SetData", sequence)
	if err != nil {
		return err
	}
	if target != nil {
		if err := checkTarget("unit.SetData", target, len(seq)); err != nil {
			return err
		}
		target = append([]float64(nil), target...)
	}
	u.sequence, u.target = seq, target
	return nil
}

// SetSequence replaces the input sequence. If a target is set, the new
// sequence must have the same length.
func (u *Unit) SetSequence(sequence []float64) error {
	seq, err := checkSequence("unit.SetSequence", sequence)
	if err != nil {
		return err
	}
	if u.target != nil && len(u.target) != len(seq) {
		return fmt.Errorf("unit.SetSequence: %w: sequence has %d values, target has %d",
			ErrDimensionMismatch, len(seq), len(u.target))
	}
	u.sequence = seq
	return nil
}

// SetTarget replaces the target sequence.
func (u *Unit) SetTarget(target []float64) error {
	if err := checkTarget("unit.SetTarget", target, len(u.sequence)); err != nil {
		return err
	}
	u.target = append([]float64(nil), target...)
	return nil
}

// SetParameters replaces the twelve parameters
// [wf, uf, bf, wi, ui, bi, wa, ua, ba, wo, uo, bo].
func (u *Unit) SetParameters(params []float64) error {
	if err := gate.Validate("unit.SetParameters", params, cell.NumParameters); err != nil {
		return err
	}
	u.params = append([]float64(nil), params...)
	return nil
}

// Sequence returns a copy of the input sequence.
func (u *Unit) Sequence() []float64 {
	return append([]float64(nil), u.sequence...)
}

// Target returns a copy of the target sequence, nil if none is set.
func (u *Unit) Target() []float64 {
	if u.target == nil {
		return nil
	}
	return append([]float64(nil), u.target...)
}

// Parameters returns a copy of the current parameters.
func (u *Unit) Parameters() []float64 {
	return append([]float64(nil), u.params...)
}

// Outputs returns a copy of the output sequence of the last Run, Loss or
// training pass.
func (u *Unit) Outputs() []float64 {
	return append([]float64(nil), u.outputs...)
}

// History returns a copy of the MSE recorded for every completed iteration
// of the last Optimize call.
func (u *Unit) History() []float64 {
	return append([]float64(nil), u.history...)
}

// Gradient returns a copy of the loss gradient computed by the last training
// pass, nil before the first Optimize.
func (u *Unit) Gradient() []float64 {
	if u.gradient == nil {
		return nil
	}
	return append([]float64(nil), u.gradient...)
}

// EffectOnOutput returns a copy of the N×12 table of total derivatives of the
// output at each timestep with respect to each parameter, nil before the
// first Optimize.
func (u *Unit) EffectOnOutput() *mat.Dense {
	if u.tables == nil {
		return nil
	}
	return mat.DenseCopyOf(u.tables.output)
}

// EffectOnState returns a copy of the N×12 table of total derivatives of the
// cell state, nil before the first Optimize.
func (u *Unit) EffectOnState() *mat.Dense {
	if u.tables == nil {
		return nil
	}
	return mat.DenseCopyOf(u.tables.state)
}

// Run computes the output sequence for the current parameters, starting
// from a zero cell state and a zero previous output.
func (u *Unit) Run() error {
	stepper := u.newStepper()
	if err := stepper.SetParameters(u.params); err != nil {
		return fmt.Errorf("unit.Run: %w", err)
	}

	outputs := make([]float64, len(u.sequence))
	var c, h float64
	for t, x := range u.sequence {
		var err error
		if c, h, err = advance(stepper, c, h, x); err != nil {
			return fmt.Errorf("unit.Run: step %d: %w", t, err)
		}
		outputs[t] = h
	}
	u.outputs = outputs
	return nil
}

// Loss runs the sequence and returns the mean squared error against the
// target over the trailing effectiveLength steps (0 means all steps). The sum
// is divided by the full sequence length, matching the training loss.
func (u *Unit) Loss(effectiveLength int) (float64, error) {
	ignore, err := u.window("unit.Loss", effectiveLength)
	if err != nil {
		return 0, err
	}
	if err := u.Run(); err != nil {
		return 0, err
	}
	var sum float64
	for t := ignore; t < len(u.outputs); t++ {
		d := u.outputs[t] - u.target[t]
		sum += d * d
	}
	return sum / float64(len(u.outputs)), nil
}

// window validates the target and effective length and returns the number of
// leading timesteps excluded from the loss.
func (u *Unit) window(op string, effectiveLength int) (int, error) {
	n := len(u.sequence)
	if u.target == nil {
		return 0, fmt.Errorf("%s: %w: no target sequence set", op, ErrDimensionMismatch)
	}
	if len(u.target) != n {
		return 0, fmt.Errorf("%s: %w: target has %d values, sequence has %d",
			op, ErrDimensionMismatch, len(u.target), n)
	}
	if effectiveLength < 0 {
		return 0, &gate.ArgumentError{
			Op:      op,
			Index:   -1,
			Details: fmt.Sprintf("effective length %d is negative", effectiveLength),
			Err:     gate.ErrInvalidArgument,
		}
	}
	if effectiveLength > n {
		return 0, fmt.Errorf("%s: %w: effective length %d exceeds sequence length %d",
			op, ErrDimensionMismatch, effectiveLength, n)
	}
	if effectiveLength == 0 {
		return 0, nil
	}
	return n - effectiveLength, nil
}

// advance feeds (c, h, x) through stepper and returns the new state and output.
func advance(stepper Stepper, c, h, x float64) (float64, float64, error) {
	if err := stepper.SetInputs([]float64{c, h, x}); err != nil {
		return 0, 0, err
	}
	h, err := stepper.Evaluate()
	if err != nil {
		return 0, 0, err
	}
	c, err = stepper.CellState()
	if err != nil {
		return 0, 0, err
	}
	return c, h, nil
}

func checkSequence(op string, sequence []float64) ([]float64, error) {
	if len(sequence) == 0 {
		return nil, &gate.ArgumentError{Op: op, Index: -1, Details: "empty sequence", Err: gate.ErrInvalidArgument}
	}
	if err := gate.ValidateFinite(op, sequence); err != nil {
		return nil, err
	}
	return append([]float64(nil), sequence...), nil
}

func checkTarget(op string, target []float64, n int) error {
	if len(target) != n {
		return fmt.Errorf("%s: %w: target has %d values, sequence has %d",
			op, ErrDimensionMismatch, len(target), n)
	}
	return gate.ValidateFinite(op, target)
}
