package main

import (
	"flag"
	"math/rand"

	"github.com/born-ml/lstmcell/internal/config"
	"github.com/born-ml/lstmcell/internal/unit"
)

// dataFlags are shared by train and sweep.
type dataFlags struct {
	fs *flag.FlagSet

	config     *string
	length     *int
	seed       *int64
	lr         *float64
	iterations *int
	threshold  *float64
	window     *int
	verbose    *bool
}

func addDataFlags(fs *flag.FlagSet) *dataFlags {
	return &dataFlags{
		fs:         fs,
		config:     fs.String("config", "", "YAML training file (default: built-in alternating 0/1 sequence)"),
		length:     fs.Int("length", 12, "Length of the built-in alternating sequence"),
		seed:       fs.Int64("seed", 42, "Seed for random initial parameters"),
		lr:         fs.Float64("lr", 0.01, "Learning rate"),
		iterations: fs.Int("iterations", 15000, "Maximum training iterations"),
		threshold:  fs.Float64("threshold", 0, "Stop once MSE falls below this value"),
		window:     fs.Int("window", 0, "Trailing steps counted in the loss (0 = all)"),
		verbose:    fs.Bool("v", false, "Log every iteration"),
	}
}

// training returns the training file, or the built-in alternating sequence,
// with explicitly set flags applied on top.
func (d *dataFlags) training() (*config.Training, error) {
	set := map[string]bool{}
	d.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var tr *config.Training
	if *d.config != "" {
		var err error
		if tr, err = config.Load(*d.config); err != nil {
			return nil, err
		}
	} else {
		seq := alternating(*d.length)
		tr = &config.Training{
			Sequence:     seq,
			Target:       seq,
			Seed:         *d.seed,
			LearningRate: *d.lr,
			Iterations:   *d.iterations,
		}
		if err := tr.Validate(); err != nil {
			return nil, err
		}
	}

	if set["seed"] {
		tr.Seed = *d.seed
	}
	if set["lr"] {
		tr.LearningRate = *d.lr
	}
	if set["iterations"] {
		tr.Iterations = *d.iterations
	}
	if set["threshold"] {
		tr.ErrorThreshold = *d.threshold
	}
	if set["window"] {
		tr.EffectiveLength = *d.window
	}
	return tr, nil
}

// initialParameters returns the configured parameters or draws them from the
// training seed.
func initialParameters(tr *config.Training) []float64 {
	if tr.Parameters != nil {
		return tr.Parameters
	}
	return unit.RandomParameters(rand.New(rand.NewSource(tr.Seed))) //nolint:gosec // Deterministic initialization
}

func alternating(n int) []float64 {
	seq := make([]float64, n)
	for i := range seq {
		seq[i] = float64(i % 2)
	}
	return seq
}
