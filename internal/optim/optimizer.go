// Package optim implements the parameter update rule used to fit an LSTM cell.
//
// This package provides:
//   - Optimizer interface: base interface for update rules
//   - SGD: plain gradient descent, param -= lr * gradient
//
// Parameters are a flat ordered vector of float64 and gradients have the same
// layout.
//
// Example usage:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//
//	for iteration := range iterations {
//	    grad := lossGradient(params)
//	    if err := sgd.Step(params, grad); err != nil {
//	        return err
//	    }
//	}
package optim

import "errors"

// ErrLengthMismatch is returned when parameters and gradients differ in length.
var ErrLengthMismatch = errors.New("optim: parameter and gradient lengths differ")

// Optimizer is the base interface for all update rules.
//
// All optimizers must implement:
//   - Step: apply a gradient update to params in place
//   - GetLR: get the current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step updates params in place using grads.
	//
	// params and grads must have the same length.
	Step(params, grads []float64) error

	// GetLR returns the current learning rate.
	GetLR() float64
}
