// Package sweep trains independent copies of a sequence unit with different
// learning rates and picks the best run.
//
// Runs share nothing but the input data, so they execute in parallel through
// internal/parallel. Each run carries a UUID that appears in every log entry
// it produces.
package sweep

import (
	"errors"
	"fmt"
	"math"

	"github.com/born-ml/lstmcell/internal/gate"
	"github.com/born-ml/lstmcell/internal/parallel"
	"github.com/born-ml/lstmcell/internal/unit"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoRuns is returned when a sweep has no learning rates to try.
var ErrNoRuns = errors.New("sweep: no learning rates")

// Config describes one sweep.
type Config struct {
	Sequence   []float64
	Target     []float64
	Parameters []float64 // Starting parameters shared by every run

	LearningRates []float64        // Each must be positive and finite
	Train         unit.TrainConfig // LearningRate is replaced per run

	Parallel parallel.Config // Zero value runs sequentially
	Logger   *logrus.Logger  // Default: logrus.New()
}

// Result is the outcome of one run.
type Result struct {
	ID           uuid.UUID
	LearningRate float64
	Parameters   []float64 // Parameters after training
	History      []float64
	FinalMSE     float64 // Loss of the trained parameters
	Err          error
}

// Run trains one unit per learning rate. Results are in learning-rate order.
// The returned error joins every failed run; results of the other runs are
// still valid.
func Run(cfg Config) ([]Result, error) {
	if len(cfg.LearningRates) == 0 {
		return nil, ErrNoRuns
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	for i, lr := range cfg.LearningRates {
		if lr <= 0 || math.IsNaN(lr) || math.IsInf(lr, 0) {
			return nil, &gate.ArgumentError{
				Op:      "sweep.Run",
				Index:   i,
				Details: fmt.Sprintf("learning rate %v must be a positive finite number", lr),
				Err:     gate.ErrInvalidArgument,
			}
		}
	}

	// Shape errors are shared by every run; report them once.
	if _, err := unit.New(cfg.Sequence, cfg.Target, cfg.Parameters); err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}

	results := make([]Result, len(cfg.LearningRates))
	for i, lr := range cfg.LearningRates {
		results[i] = Result{ID: uuid.New(), LearningRate: lr, FinalMSE: math.NaN()}
	}

	logger.WithFields(logrus.Fields{
		"runs":       len(results),
		"iterations": cfg.Train.MaxIterations,
		"parallel":   cfg.Parallel.Enabled,
	}).Info("sweep started")

	err := parallel.ForErr(len(results), func(i int) error {
		r := &results[i]
		r.Err = train(cfg, r, logger.WithFields(logrus.Fields{
			"run": r.ID.String(),
			"lr":  r.LearningRate,
		}))
		return r.Err
	}, cfg.Parallel)

	if best, ok := Best(results); ok {
		logger.WithFields(logrus.Fields{
			"run":       best.ID.String(),
			"lr":        best.LearningRate,
			"final_mse": best.FinalMSE,
		}).Info("sweep finished")
	}
	return results, err
}

func train(cfg Config, r *Result, log *logrus.Entry) error {
	u, err := unit.New(cfg.Sequence, cfg.Target, cfg.Parameters,
		unit.WithProgress(func(iteration int, mse float64) {
			log.WithFields(logrus.Fields{"iteration": iteration, "mse": mse}).Debug("iteration")
		}))
	if err != nil {
		return fmt.Errorf("run %s: %w", r.ID, err)
	}

	tc := cfg.Train
	tc.LearningRate = r.LearningRate
	if err := u.Optimize(tc); err != nil {
		log.WithError(err).Warn("run failed")
		return fmt.Errorf("run %s: %w", r.ID, err)
	}

	r.Parameters = u.Parameters()
	r.History = u.History()
	if r.FinalMSE, err = u.Loss(tc.EffectiveLength); err != nil {
		return fmt.Errorf("run %s: %w", r.ID, err)
	}
	log.WithFields(logrus.Fields{
		"iterations": len(r.History),
		"final_mse":  r.FinalMSE,
	}).Info("run finished")
	return nil
}

// Best returns the successful run with the lowest final MSE. ok is false
// when every run failed.
func Best(results []Result) (best Result, ok bool) {
	for _, r := range results {
		if r.Err != nil || math.IsNaN(r.FinalMSE) {
			continue
		}
		if !ok || r.FinalMSE < best.FinalMSE {
			best, ok = r, true
		}
	}
	return best, ok
}
