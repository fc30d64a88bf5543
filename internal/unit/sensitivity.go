package unit

import (
	"gonum.org/v1/gonum/mat"
)

// sensitivity holds the BPTT tables. Row t of output (state) is the total
// derivative of h_t (C_t) with respect to every parameter. Rows are written
// in timestep order only.
type sensitivity struct {
	output *mat.Dense
	state  *mat.Dense
	next   int
}

func newSensitivity(steps, params int) *sensitivity {
	return &sensitivity{
		output: mat.NewDense(steps, params, nil),
		state:  mat.NewDense(steps, params, nil),
	}
}

// accumulate writes row t from the local parameter derivatives of the step
// and, for t > 0, the recurrent contribution of row t-1:
//
//	out[t][k]   = dh/dp_k + dh/dC0·state[t-1][k] + dh/dh0·out[t-1][k]
//	state[t][k] = dC/dp_k + dC/dC0·state[t-1][k] + dC/dh0·out[t-1][k]
//
// outIn and stateIn are [d/dC0, d/dh0, d/dx] and are ignored at t == 0.
func (s *sensitivity) accumulate(t int, localOut, localState, outIn, stateIn []float64) {
	if t != s.next {
		panic("unit: sensitivity rows must be accumulated in timestep order")
	}
	out := mat.NewVecDense(len(localOut), localOut)
	state := mat.NewVecDense(len(localState), localState)

	if t > 0 {
		prevOut := s.output.RowView(t - 1)
		prevState := s.state.RowView(t - 1)

		out.AddScaledVec(out, outIn[0], prevState)
		out.AddScaledVec(out, outIn[1], prevOut)

		state.AddScaledVec(state, stateIn[0], prevState)
		state.AddScaledVec(state, stateIn[1], prevOut)
	}

	s.output.SetRow(t, out.RawVector().Data)
	s.state.SetRow(t, state.RawVector().Data)
	s.next++
}

// outputRow returns row t of the output table without copying.
func (s *sensitivity) outputRow(t int) []float64 {
	return s.output.RawRowView(t)
}
