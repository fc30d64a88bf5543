package gradcheck

import (
	"errors"
	"strings"
	"testing"

	"github.com/born-ml/lstmcell/internal/cell"
	"github.com/born-ml/lstmcell/internal/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

var cellParams = []float64{0.3, -0.2, 0.1, 0.5, 0.4, -0.3, 0.2, -0.1, 0.6, 0.7, -0.4, 0.05}

func TestCheck_Gates(t *testing.T) {
	tests := []struct {
		name   string
		fn     gate.Function
		inputs []float64
		params []float64
	}{
		{"forget", gate.NewForgetGate(), []float64{0.4, 0.7}, []float64{0.5, -0.3, 0.1}},
		{"input", gate.NewInputGate(), []float64{-0.2, 0.9}, []float64{0.3, 0.6, -0.1, -0.4, 0.2, 0.05}},
		{"output", gate.NewOutputGate(), []float64{0.8, 0.1, -0.5}, []float64{0.2, 0.7, -0.3}},
		{"cell", cell.New(), []float64{0.5, -0.1, 1.0}, cellParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Check(tt.fn, tt.inputs, tt.params, Settings{})
			require.NoError(t, err)
			assert.Len(t, report.Entries, len(tt.inputs)+len(tt.params))
			assert.Less(t, report.MaxAbsDiff(), 1e-3, "\n%s", report)

			assert.Equal(t, Input, report.Entries[0].Kind)
			assert.Equal(t, Parameter, report.Entries[len(tt.inputs)].Kind)
		})
	}
}

func TestCheck_CentralIsTighter(t *testing.T) {
	inputs := []float64{0.5, -0.1, 1.0}

	forward, err := Check(cell.New(), inputs, cellParams, Settings{})
	require.NoError(t, err)
	central, err := Check(cell.New(), inputs, cellParams, Settings{Formula: fd.Central})
	require.NoError(t, err)

	assert.Less(t, central.MaxAbsDiff(), 1e-5)
	assert.LessOrEqual(t, central.MaxAbsDiff(), forward.MaxAbsDiff())
}

func TestCheckState(t *testing.T) {
	c := cell.New()
	inputs := []float64{0.5, -0.1, 1.0}

	report, err := CheckState(c, inputs, cellParams, Settings{Formula: fd.Central})
	require.NoError(t, err)
	assert.Len(t, report.Entries, cell.NumInputs+cell.NumParameters)
	assert.Less(t, report.MaxAbsDiff(), 1e-5, "\n%s", report)

	// Output-gate parameters do not reach the state.
	for _, e := range report.Entries[cell.NumInputs+cell.OutputOffset:] {
		assert.Zero(t, e.Analytic)
		assert.InDelta(t, 0, e.Numeric, 1e-12)
	}
}

func TestCheck_LeavesFunctionAtPoint(t *testing.T) {
	c := cell.New()
	inputs := []float64{0.5, -0.1, 1.0}

	_, err := Check(c, inputs, cellParams, Settings{})
	require.NoError(t, err)

	assert.Equal(t, inputs, c.Inputs())
	assert.Equal(t, cellParams, c.Parameters())
	_, err = c.DerivativeWrtInputs()
	assert.NoError(t, err)
}

func TestCheck_InvalidArgument(t *testing.T) {
	_, err := Check(gate.NewForgetGate(), []float64{1}, []float64{0, 0, 0}, Settings{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gate.ErrInvalidArgument))
}

func TestReport_String(t *testing.T) {
	r := &Report{Entries: []Entry{
		{Kind: Input, Index: 0, Analytic: 1, Numeric: 0.5},
		{Kind: Parameter, Index: 2, Analytic: -1, Numeric: -1.25},
	}}

	assert.InDelta(t, 0.5, r.MaxAbsDiff(), 1e-15)
	lines := strings.Split(strings.TrimSpace(r.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "input"))
	assert.True(t, strings.HasPrefix(lines[1], "parameter"))
}
