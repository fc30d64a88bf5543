// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package lstm

import (
	"math/rand"

	"github.com/born-ml/lstmcell/internal/cell"
	"github.com/born-ml/lstmcell/internal/gate"
	"github.com/born-ml/lstmcell/internal/unit"
)

// Errors

var (
	// ErrInvalidArgument reports a value of the wrong length or a non-finite value.
	ErrInvalidArgument = gate.ErrInvalidArgument

	// ErrPreconditionViolation reports a value requested before its inputs are set.
	ErrPreconditionViolation = gate.ErrPreconditionViolation

	// ErrDimensionMismatch reports sequence and target of different lengths.
	ErrDimensionMismatch = unit.ErrDimensionMismatch
)

// ArgumentError carries the call and element of an invalid argument.
type ArgumentError = gate.ArgumentError

// Gates

// Function is the common interface of gates and the cell.
type Function = gate.Function

// ForgetGate computes σ(w·h + u·x + b).
type ForgetGate = gate.ForgetGate

// NewForgetGate creates a forget gate.
func NewForgetGate() *ForgetGate {
	return gate.NewForgetGate()
}

// InputGate computes σ(wi·h + ui·x + bi)·tanh(wa·h + ua·x + ba).
type InputGate = gate.InputGate

// NewInputGate creates an input gate.
func NewInputGate() *InputGate {
	return gate.NewInputGate()
}

// OutputGate computes tanh(C)·σ(w·h + u·x + b).
type OutputGate = gate.OutputGate

// NewOutputGate creates an output gate.
func NewOutputGate() *OutputGate {
	return gate.NewOutputGate()
}

// Cell

// NumParameters is the length of the cell parameter vector.
const NumParameters = cell.NumParameters

// Cell is one LSTM step over (C0, h0, x).
type Cell = cell.Cell

// NewCell creates a cell.
func NewCell() *Cell {
	return cell.New()
}

// Sequence unit

// Unit unrolls a cell over a sequence and trains its parameters.
type Unit = unit.Unit

// UnitOption configures a Unit.
type UnitOption = unit.Option

// TrainConfig holds configuration for Unit.Optimize.
type TrainConfig = unit.TrainConfig

// NewUnit creates a sequence unit. target may be nil for Run-only use.
//
// Example:
//
//	u, err := lstm.NewUnit(seq, target, params, lstm.WithProgress(func(i int, mse float64) {
//	    fmt.Println(i, mse)
//	}))
func NewUnit(sequence, target, params []float64, opts ...UnitOption) (*Unit, error) {
	return unit.New(sequence, target, params, opts...)
}

// WithProgress registers a function called after every training iteration.
func WithProgress(fn func(iteration int, mse float64)) UnitOption {
	return unit.WithProgress(fn)
}

// RandomParameters draws twelve parameters in (-1, 1) from rng.
func RandomParameters(rng *rand.Rand) []float64 {
	return unit.RandomParameters(rng)
}
