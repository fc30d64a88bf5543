// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package lstm provides a scalar single-cell LSTM trained with
// backpropagation through time.
//
// # Overview
//
// The package is built from three layers:
//   - Gates (ForgetGate, InputGate, OutputGate): scalar functions with
//     analytic derivatives with respect to their inputs and parameters
//   - Cell: one LSTM step composed from the three gates, with derivative
//     sets for both the output h and the cell state C
//   - Unit: the cell unrolled over a sequence, with sensitivity tables
//     and a gradient-descent training loop
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/lstmcell/lstm"
//	)
//
//	func main() {
//	    seq := []float64{0, 1, 0, 1, 0, 1}
//	    params := lstm.RandomParameters(rand.New(rand.NewSource(42)))
//
//	    u, err := lstm.NewUnit(seq, seq, params)
//	    if err != nil {
//	        panic(err)
//	    }
//	    if err := u.Optimize(lstm.TrainConfig{LearningRate: 0.01, MaxIterations: 5000}); err != nil {
//	        panic(err)
//	    }
//	    history := u.History() // MSE per iteration
//	    _ = history
//	}
//
// # Parameters
//
// The twelve parameters are laid out as
//
//	[wf, uf, bf, wi, ui, bi, wa, ua, ba, wo, uo, bo]
//
// where the f triple drives the forget gate, the i and a triples the input
// gate, and the o triple the output gate.
//
// # Errors
//
// Invalid values (wrong length, NaN, Inf) fail with ErrInvalidArgument.
// Asking a gate for a value before its inputs and parameters are set fails
// with ErrPreconditionViolation. Mismatched sequence and target lengths fail
// with ErrDimensionMismatch. Use errors.Is to test for each.
package lstm
