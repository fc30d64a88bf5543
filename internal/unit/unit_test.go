package unit_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/lstmcell/internal/cell"
	"github.com/born-ml/lstmcell/internal/gate"
	"github.com/born-ml/lstmcell/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

var (
	alternating = []float64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1}
	fixedParams = []float64{
		0.61, -0.23, 0.15,
		-0.48, 0.92, 0.05,
		0.37, -0.66, -0.12,
		0.83, 0.29, -0.41,
	}
)

// countingStepper counts cell evaluations.
type countingStepper struct {
	*cell.Cell
	evaluations *int
}

func (s countingStepper) Evaluate() (float64, error) {
	*s.evaluations++
	return s.Cell.Evaluate()
}

func counting(evaluations *int) unit.Option {
	return unit.WithStepper(func() unit.Stepper {
		return countingStepper{Cell: cell.New(), evaluations: evaluations}
	})
}

// unroll runs the cell chain by hand and returns outputs and cell states.
func unroll(t *testing.T, sequence, params []float64) (hs, cs []float64) {
	t.Helper()
	cl := cell.New()
	require.NoError(t, cl.SetParameters(params))
	var c, h float64
	for _, x := range sequence {
		require.NoError(t, cl.SetInputs([]float64{c, h, x}))
		var err error
		h, err = cl.Evaluate()
		require.NoError(t, err)
		c, err = cl.CellState()
		require.NoError(t, err)
		hs = append(hs, h)
		cs = append(cs, c)
	}
	return hs, cs
}

func TestUnit_Run(t *testing.T) {
	sequence := []float64{0.5, -0.2, 0.9, 0.1, -0.7}
	u, err := unit.New(sequence, nil, fixedParams)
	require.NoError(t, err)

	require.NoError(t, u.Run())
	hs, _ := unroll(t, sequence, fixedParams)
	assert.Equal(t, hs, u.Outputs())
	assert.Nil(t, u.History(), "Run records no history")
	assert.Nil(t, u.EffectOnOutput(), "Run builds no tables")
}

func TestUnit_RunIsRepeatable(t *testing.T) {
	u, err := unit.New(alternating, nil, fixedParams)
	require.NoError(t, err)

	require.NoError(t, u.Run())
	first := u.Outputs()
	require.NoError(t, u.Run())
	assert.Equal(t, first, u.Outputs())
}

func TestUnit_DimensionMismatchBeforeAnyEvaluation(t *testing.T) {
	var evaluations int

	_, err := unit.New(alternating, alternating[:11], fixedParams, counting(&evaluations))
	require.ErrorIs(t, err, unit.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "target has 11 values, sequence has 12")

	u, err := unit.New(alternating, nil, fixedParams, counting(&evaluations))
	require.NoError(t, err)

	err = u.Optimize(unit.TrainConfig{MaxIterations: 3})
	assert.ErrorIs(t, err, unit.ErrDimensionMismatch, "no target")

	err = u.SetTarget(append(alternating, 0))
	assert.ErrorIs(t, err, unit.ErrDimensionMismatch)

	require.NoError(t, u.SetTarget(alternating))
	err = u.Optimize(unit.TrainConfig{MaxIterations: 3, EffectiveLength: len(alternating) + 1})
	assert.ErrorIs(t, err, unit.ErrDimensionMismatch)

	err = u.SetSequence([]float64{1, 2, 3})
	assert.ErrorIs(t, err, unit.ErrDimensionMismatch)

	_, err = u.Loss(len(alternating) + 5)
	assert.ErrorIs(t, err, unit.ErrDimensionMismatch)

	assert.Zero(t, evaluations, "no cell evaluation may happen before the dimension check")
}

func TestUnit_InvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		sequence []float64
		target   []float64
		params   []float64
	}{
		{"empty sequence", nil, nil, fixedParams},
		{"nan in sequence", []float64{0, math.NaN()}, nil, fixedParams},
		{"inf in target", []float64{0, 1}, []float64{0, math.Inf(1)}, fixedParams},
		{"short parameters", alternating, alternating, fixedParams[:11]},
		{"nan parameter", alternating, alternating, append(append([]float64(nil), fixedParams[:11]...), math.NaN())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := unit.New(tt.sequence, tt.target, tt.params)
			assert.ErrorIs(t, err, gate.ErrInvalidArgument)
		})
	}

	u, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)
	assert.ErrorIs(t, u.Optimize(unit.TrainConfig{LearningRate: -0.1}), gate.ErrInvalidArgument)
	assert.ErrorIs(t, u.Optimize(unit.TrainConfig{MaxIterations: -1}), gate.ErrInvalidArgument)
	assert.ErrorIs(t, u.Optimize(unit.TrainConfig{EffectiveLength: -1}), gate.ErrInvalidArgument)
	assert.ErrorIs(t, u.Optimize(unit.TrainConfig{ErrorThreshold: math.NaN()}), gate.ErrInvalidArgument)
	assert.Nil(t, u.History())
}

func TestUnit_SetDataReplacesBoth(t *testing.T) {
	u, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)

	require.NoError(t, u.SetData([]float64{1, 2, 3}, []float64{0, 0, 0}))
	assert.Equal(t, []float64{1, 2, 3}, u.Sequence())
	assert.Equal(t, []float64{0, 0, 0}, u.Target())
}

func TestUnit_DefaultConfig(t *testing.T) {
	u, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)

	require.NoError(t, u.Optimize(unit.TrainConfig{}))
	assert.Len(t, u.History(), 10)

	rows, cols := u.EffectOnOutput().Dims()
	assert.Equal(t, len(alternating), rows)
	assert.Equal(t, cell.NumParameters, cols)
	rows, cols = u.EffectOnState().Dims()
	assert.Equal(t, len(alternating), rows)
	assert.Equal(t, cell.NumParameters, cols)
}

func TestUnit_EarlyStop(t *testing.T) {
	u, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)

	loss, err := u.Loss(0)
	require.NoError(t, err)

	require.NoError(t, u.Optimize(unit.TrainConfig{
		LearningRate:   0.01,
		MaxIterations:  50,
		ErrorThreshold: loss + 1,
	}))
	history := u.History()
	require.Len(t, history, 1)
	assert.InDelta(t, loss, history[0], 1e-12)
	assert.Equal(t, fixedParams, u.Parameters(), "no update after the stopping iteration")
}

func TestUnit_ProgressCallback(t *testing.T) {
	var seen []int
	u, err := unit.New(alternating, alternating, fixedParams,
		unit.WithProgress(func(iteration int, mse float64) {
			seen = append(seen, iteration)
			assert.False(t, math.IsNaN(mse))
		}))
	require.NoError(t, err)

	require.NoError(t, u.Optimize(unit.TrainConfig{MaxIterations: 4}))
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestUnit_OptimizeReplacesHistory(t *testing.T) {
	u, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)

	require.NoError(t, u.Optimize(unit.TrainConfig{MaxIterations: 7}))
	require.Len(t, u.History(), 7)
	require.NoError(t, u.Optimize(unit.TrainConfig{MaxIterations: 3}))
	assert.Len(t, u.History(), 3)
}

func TestUnit_FullEffectiveLengthMatchesZero(t *testing.T) {
	whole, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)
	full, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)

	cfg := unit.TrainConfig{LearningRate: 0.05, MaxIterations: 5}
	require.NoError(t, whole.Optimize(cfg))
	cfg.EffectiveLength = len(alternating)
	require.NoError(t, full.Optimize(cfg))

	assert.Equal(t, whole.History(), full.History())
	assert.Equal(t, whole.Gradient(), full.Gradient())
	assert.Equal(t, whole.Parameters(), full.Parameters())
}

func TestUnit_EffectiveWindowIgnoresLeadingSteps(t *testing.T) {
	target := append([]float64(nil), alternating...)
	u, err := unit.New(alternating, target, fixedParams)
	require.NoError(t, err)
	windowed, err := u.Loss(4)
	require.NoError(t, err)

	// Changing targets outside the window must not change the loss.
	for i := 0; i < len(target)-4; i++ {
		target[i] = 100
	}
	require.NoError(t, u.SetTarget(target))
	again, err := u.Loss(4)
	require.NoError(t, err)
	assert.Equal(t, windowed, again)

	whole, err := u.Loss(0)
	require.NoError(t, err)
	assert.Greater(t, whole, windowed)
}

func TestUnit_SensitivityTablesMatchFiniteDifferences(t *testing.T) {
	sequence := []float64{0.3, -0.8, 0.5, 0.9, -0.1, 0.4, -0.6}
	u, err := unit.New(sequence, make([]float64, len(sequence)), fixedParams)
	require.NoError(t, err)
	require.NoError(t, u.Optimize(unit.TrainConfig{MaxIterations: 1}))

	settings := &fd.JacobianSettings{Formula: fd.Central, Step: 1e-6}

	outputs := mat.NewDense(len(sequence), cell.NumParameters, nil)
	fd.Jacobian(outputs, func(y, p []float64) {
		hs, _ := unroll(t, sequence, p)
		copy(y, hs)
	}, fixedParams, settings)

	states := mat.NewDense(len(sequence), cell.NumParameters, nil)
	fd.Jacobian(states, func(y, p []float64) {
		_, cs := unroll(t, sequence, p)
		copy(y, cs)
	}, fixedParams, settings)

	assert.True(t, mat.EqualApprox(outputs, u.EffectOnOutput(), 1e-6),
		"effectOnOutput:\n%v\nnumeric:\n%v", mat.Formatted(u.EffectOnOutput()), mat.Formatted(outputs))
	assert.True(t, mat.EqualApprox(states, u.EffectOnState(), 1e-6),
		"effectOnState:\n%v\nnumeric:\n%v", mat.Formatted(u.EffectOnState()), mat.Formatted(states))
}

func TestUnit_FirstRowIsLocalDerivative(t *testing.T) {
	u, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)
	require.NoError(t, u.Optimize(unit.TrainConfig{MaxIterations: 1}))

	cl := cell.New()
	require.NoError(t, cl.SetParameters(fixedParams))
	require.NoError(t, cl.SetInputs([]float64{0, 0, alternating[0]}))
	_, err = cl.Evaluate()
	require.NoError(t, err)
	local, err := cl.DerivativeWrtParameters()
	require.NoError(t, err)
	localState, err := cl.StateDerivativeWrtParameters()
	require.NoError(t, err)

	assert.Equal(t, local, mat.Row(nil, 0, u.EffectOnOutput()))
	assert.Equal(t, localState, mat.Row(nil, 0, u.EffectOnState()))
}

func TestUnit_GradientMatchesNumericLoss(t *testing.T) {
	sequence := []float64{0.2, 0.7, -0.4, 0.9, -0.3, 0.1, 0.6, -0.8}
	target := []float64{0.1, -0.2, 0.3, 0.5, -0.1, 0.0, 0.4, 0.2}

	for _, window := range []int{0, 3, len(sequence)} {
		u, err := unit.New(sequence, target, fixedParams)
		require.NoError(t, err)
		require.NoError(t, u.Optimize(unit.TrainConfig{MaxIterations: 1, EffectiveLength: window}))

		probe, err := unit.New(sequence, target, fixedParams)
		require.NoError(t, err)
		loss := func(p []float64) float64 {
			require.NoError(t, probe.SetParameters(p))
			l, err := probe.Loss(window)
			require.NoError(t, err)
			return l
		}
		numeric := fd.Gradient(nil, loss, fixedParams, &fd.Settings{Formula: fd.Central, Step: 1e-6})

		analytic := u.Gradient()
		require.Len(t, analytic, cell.NumParameters)
		for k := range numeric {
			assert.InDelta(t, numeric[k], analytic[k], 1e-6, "window %d, d/d%s", window, cell.ParameterNames[k])
		}
	}
}

func TestUnit_LiteralIndexRecurrenceDiverges(t *testing.T) {
	u, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)
	require.NoError(t, u.Optimize(unit.TrainConfig{MaxIterations: 1}))

	// Rebuild the tables with the timestep used as the column of the cross
	// term, which is what a literal transcription of the scalar derivation does.
	n := len(alternating)
	effectH := make([][]float64, n)
	effectC := make([][]float64, n)
	cl := cell.New()
	require.NoError(t, cl.SetParameters(fixedParams))
	var c, h float64
	for j, x := range alternating {
		require.NoError(t, cl.SetInputs([]float64{c, h, x}))
		h, err = cl.Evaluate()
		require.NoError(t, err)
		c, err = cl.CellState()
		require.NoError(t, err)
		effectH[j], err = cl.DerivativeWrtParameters()
		require.NoError(t, err)
		effectC[j], err = cl.StateDerivativeWrtParameters()
		require.NoError(t, err)
		if j == 0 {
			continue
		}
		dh, err := cl.DerivativeWrtInputs()
		require.NoError(t, err)
		dc, err := cl.StateDerivativeWrtInputs()
		require.NoError(t, err)
		for k := range effectH[j] {
			effectH[j][k] += dh[0]*effectC[j-1][j] + dh[1]*effectH[j-1][k]
			effectC[j][k] += dc[1]*effectH[j-1][j] + dc[0]*effectC[j-1][k]
		}
	}

	literal := mat.NewDense(n, cell.NumParameters, nil)
	for j, row := range effectH {
		literal.SetRow(j, row)
	}
	assert.False(t, mat.EqualApprox(literal, u.EffectOnOutput(), 1e-6),
		"the per-parameter recurrence must differ from the timestep-indexed one")
	assert.Equal(t, effectH[0], mat.Row(nil, 0, u.EffectOnOutput()), "row 0 has no recurrent term")
}

func TestUnit_LossDecreasesWithSmallLearningRate(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	zeros := make([]float64, len(alternating))
	u, err := unit.New(alternating, zeros, unit.RandomParameters(rng))
	require.NoError(t, err)

	require.NoError(t, u.Optimize(unit.TrainConfig{LearningRate: 0.001, MaxIterations: 2000}))
	history := u.History()
	require.Len(t, history, 2000)

	var first, second float64
	for i, v := range history {
		if i < len(history)/2 {
			first += v
		} else {
			second += v
		}
	}
	assert.LessOrEqual(t, second, first)
	assert.Less(t, history[len(history)-1], history[0])
}

func TestUnit_AlternatingSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("15000 training iterations")
	}
	rng := rand.New(rand.NewSource(42))
	u, err := unit.New(alternating, alternating, unit.RandomParameters(rng))
	require.NoError(t, err)

	require.NoError(t, u.Run())
	initial := u.Outputs()

	require.NoError(t, u.Optimize(unit.TrainConfig{LearningRate: 0.01, MaxIterations: 15000}))
	history := u.History()
	require.Len(t, history, 15000)
	assert.Less(t, history[len(history)-1], history[0])

	require.NoError(t, u.Run())
	final := u.Outputs()
	for i, y := range alternating {
		before := (initial[i] - y) * (initial[i] - y)
		after := (final[i] - y) * (final[i] - y)
		assert.Less(t, after, before, "step %d: trained output %v, initial %v, target %v", i, final[i], initial[i], y)
	}
}

func TestUnit_AccessorsCopy(t *testing.T) {
	u, err := unit.New(alternating, alternating, fixedParams)
	require.NoError(t, err)
	require.NoError(t, u.Optimize(unit.TrainConfig{MaxIterations: 2}))

	u.Parameters()[0] = 100
	u.Sequence()[0] = 100
	u.Target()[0] = 100
	u.History()[0] = 100
	u.Outputs()[0] = 100
	u.Gradient()[0] = 100
	u.EffectOnOutput().Set(0, 0, 100)

	assert.NotEqual(t, 100.0, u.Parameters()[0])
	assert.NotEqual(t, 100.0, u.Sequence()[0])
	assert.NotEqual(t, 100.0, u.Target()[0])
	assert.NotEqual(t, 100.0, u.History()[0])
	assert.NotEqual(t, 100.0, u.Outputs()[0])
	assert.NotEqual(t, 100.0, u.Gradient()[0])
	assert.NotEqual(t, 100.0, u.EffectOnOutput().At(0, 0))
}

func TestRandomParameters(t *testing.T) {
	a := unit.RandomParameters(rand.New(rand.NewSource(9)))
	b := unit.RandomParameters(rand.New(rand.NewSource(9)))
	require.Len(t, a, cell.NumParameters)
	assert.Equal(t, a, b)

	for _, v := range a {
		assert.Greater(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}

	var negative, positive int
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		for _, v := range unit.RandomParameters(rng) {
			if v < 0 {
				negative++
			} else {
				positive++
			}
		}
	}
	assert.Positive(t, negative)
	assert.Positive(t, positive)
}
