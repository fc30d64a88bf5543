package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"

	"github.com/born-ml/lstmcell/internal/cell"
	"github.com/born-ml/lstmcell/internal/gate"
	"github.com/born-ml/lstmcell/internal/gradcheck"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/diff/fd"
)

var errCheckFailed = errors.New("derivative check failed")

func runCheck(args []string, out, logOut io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(logOut)
	seed := fs.Int64("seed", 1, "Seed for the random inputs and parameters")
	formula := fs.String("formula", "forward", "Difference formula: forward or central")
	tolerance := fs.Float64("tolerance", 1e-3, "Largest accepted |analytic - numeric|")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings := gradcheck.Settings{}
	switch *formula {
	case "forward":
		settings.Formula = fd.Forward
	case "central":
		settings.Formula = fd.Central
	default:
		return fmt.Errorf("unknown formula %q", *formula)
	}

	logger := newLogger(logOut, false)
	return check(*seed, settings, *tolerance, logger, out)
}

type checkCase struct {
	name   string
	run    func() (*gradcheck.Report, error)
	inputs []string
	params []string
}

// label names the input or parameter an entry refers to.
func (cc checkCase) label(e gradcheck.Entry) string {
	if e.Kind == gradcheck.Parameter {
		return cc.params[e.Index]
	}
	return cc.inputs[e.Index]
}

func check(seed int64, settings gradcheck.Settings, tolerance float64, logger *logrus.Logger, out io.Writer) error {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // Reproducible check points
	inputs := uniform(rng, cell.NumInputs)
	params := uniform(rng, cell.NumParameters)
	names := cell.ParameterNames[:]

	c := cell.New()
	cases := []checkCase{
		{
			name:   "forget gate",
			run:    func() (*gradcheck.Report, error) { return gradcheck.Check(gate.NewForgetGate(), inputs[1:], params[0:3], settings) },
			inputs: []string{"h0", "x"},
			params: names[cell.ForgetOffset:cell.InputOffset],
		},
		{
			name:   "input gate",
			run:    func() (*gradcheck.Report, error) { return gradcheck.Check(gate.NewInputGate(), inputs[1:], params[3:9], settings) },
			inputs: []string{"h0", "x"},
			params: names[cell.InputOffset:cell.OutputOffset],
		},
		{
			name:   "output gate",
			run:    func() (*gradcheck.Report, error) { return gradcheck.Check(gate.NewOutputGate(), inputs, params[9:], settings) },
			inputs: []string{"C", "h0", "x"},
			params: names[cell.OutputOffset:],
		},
		{
			name:   "cell output",
			run:    func() (*gradcheck.Report, error) { return gradcheck.Check(c, inputs, params, settings) },
			inputs: []string{"C0", "h0", "x"},
			params: names,
		},
		{
			name:   "cell state",
			run:    func() (*gradcheck.Report, error) { return gradcheck.CheckState(c, inputs, params, settings) },
			inputs: []string{"C0", "h0", "x"},
			params: names,
		},
	}

	failed := 0
	for _, cc := range cases {
		report, err := cc.run()
		if err != nil {
			return fmt.Errorf("%s: %w", cc.name, err)
		}
		fmt.Fprintf(out, "%s:\n", cc.name)
		for _, e := range report.Entries {
			fmt.Fprintf(out, "  %-3s analytic=% .8f  numeric=% .8f  diff=% .3e\n",
				cc.label(e), e.Analytic, e.Numeric, e.Diff())
		}

		log := logger.WithFields(logrus.Fields{"function": cc.name, "max_diff": report.MaxAbsDiff()})
		if report.MaxAbsDiff() > tolerance {
			failed++
			log.Warn("derivatives disagree")
			continue
		}
		log.Info("derivatives agree")
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d functions above tolerance %g", errCheckFailed, failed, len(cases), tolerance)
	}
	return nil
}

func uniform(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()
	}
	return v
}
