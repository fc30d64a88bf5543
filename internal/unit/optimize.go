package unit

import (
	"fmt"
	"math"

	"github.com/born-ml/lstmcell/internal/cell"
	"github.com/born-ml/lstmcell/internal/gate"
	"github.com/born-ml/lstmcell/internal/optim"
	"gonum.org/v1/gonum/floats"
)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// TrainConfig holds configuration for Optimize.
type TrainConfig struct {
	LearningRate    float64 // Step size (default: 0.001)
	MaxIterations   int     // Iteration cap (default: 10)
	ErrorThreshold  float64 // Stop once MSE falls below this (default: 0, run the full cap)
	EffectiveLength int     // Trailing steps counted in the loss (default: 0, all steps)
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.LearningRate == 0 {
		c.LearningRate = 0.001
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 10
	}
	return c
}

func (c TrainConfig) validate(op string) error {
	invalid := func(details string) error {
		return &gate.ArgumentError{Op: op, Index: -1, Details: details, Err: gate.ErrInvalidArgument}
	}
	switch {
	case c.LearningRate < 0 || !isFinite(c.LearningRate):
		return invalid(fmt.Sprintf("learning rate %v must be a positive finite number", c.LearningRate))
	case c.MaxIterations < 0:
		return invalid(fmt.Sprintf("iteration cap %d is negative", c.MaxIterations))
	case !isFinite(c.ErrorThreshold):
		return invalid(fmt.Sprintf("error threshold %v is not finite", c.ErrorThreshold))
	}
	return nil
}

// Optimize fits the parameters to the target with gradient descent.
//
// Every iteration runs the whole sequence from a zero state, accumulates the
// sensitivity tables, records the MSE in the history and, unless the MSE is
// below cfg.ErrorThreshold, applies params -= LearningRate * gradient.
// History and tables from a previous call are discarded.
//
// A missing or mismatched target, or an effective length longer than the
// sequence, fails with ErrDimensionMismatch before any computation.
func (u *Unit) Optimize(cfg TrainConfig) error {
	const op = "unit.Optimize"

	cfg = cfg.withDefaults()
	if err := cfg.validate(op); err != nil {
		return err
	}
	ignore, err := u.window(op, cfg.EffectiveLength)
	if err != nil {
		return err
	}

	var opt optim.Optimizer = optim.NewSGD(optim.SGDConfig{LR: cfg.LearningRate})
	stepper := u.newStepper()
	u.history = make([]float64, 0, cfg.MaxIterations)

	for i := 0; i < cfg.MaxIterations; i++ {
		mse, err := u.pass(stepper, ignore)
		if err != nil {
			return fmt.Errorf("%s: iteration %d: %w", op, i, err)
		}
		u.history = append(u.history, mse)
		if u.progress != nil {
			u.progress(i, mse)
		}
		if mse < cfg.ErrorThreshold {
			break
		}
		if err := opt.Step(u.params, u.gradient); err != nil {
			return fmt.Errorf("%s: iteration %d: %w", op, i, err)
		}
	}
	return nil
}

// pass runs one forward sweep with BPTT bookkeeping. It stores the outputs,
// the sensitivity tables and the loss gradient, and returns the MSE over the
// steps from ignore on.
func (u *Unit) pass(stepper Stepper, ignore int) (float64, error) {
	if err := stepper.SetParameters(u.params); err != nil {
		return 0, err
	}

	n := len(u.sequence)
	scale := 2 / float64(n)
	tables := newSensitivity(n, cell.NumParameters)
	outputs := make([]float64, n)
	gradient := make([]float64, cell.NumParameters)

	var (
		c, h, mse         float64
		outIn, stateIn    []float64
		local, localState []float64
		err               error
	)
	for t, x := range u.sequence {
		if c, h, err = advance(stepper, c, h, x); err != nil {
			return 0, fmt.Errorf("step %d: %w", t, err)
		}
		outputs[t] = h

		if local, err = stepper.DerivativeWrtParameters(); err != nil {
			return 0, fmt.Errorf("step %d: %w", t, err)
		}
		if localState, err = stepper.StateDerivativeWrtParameters(); err != nil {
			return 0, fmt.Errorf("step %d: %w", t, err)
		}
		if t > 0 {
			if outIn, err = stepper.DerivativeWrtInputs(); err != nil {
				return 0, fmt.Errorf("step %d: %w", t, err)
			}
			if stateIn, err = stepper.StateDerivativeWrtInputs(); err != nil {
				return 0, fmt.Errorf("step %d: %w", t, err)
			}
		}
		tables.accumulate(t, local, localState, outIn, stateIn)

		if t < ignore {
			continue
		}
		diff := h - u.target[t]
		mse += diff * diff
		floats.AddScaled(gradient, scale*diff, tables.outputRow(t))
	}

	u.outputs = outputs
	u.tables = tables
	u.gradient = gradient
	return mse / float64(n), nil
}
