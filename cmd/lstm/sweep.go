package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/born-ml/lstmcell/internal/parallel"
	"github.com/born-ml/lstmcell/internal/sweep"
)

func runSweep(args []string, out, logOut io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(logOut)
	data := addDataFlags(fs)
	rates := fs.String("rates", "0.001,0.003,0.01,0.03,0.1", "Comma-separated learning rates")
	workers := fs.Int("workers", parallel.DefaultConfig().NumWorkers, "Concurrent runs (1 = sequential)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lrs, err := parseRates(*rates)
	if err != nil {
		return err
	}
	tr, err := data.training()
	if err != nil {
		return err
	}

	results, err := sweep.Run(sweep.Config{
		Sequence:      tr.Sequence,
		Target:        tr.Target,
		Parameters:    initialParameters(tr),
		LearningRates: lrs,
		Train:         tr.TrainConfig(),
		Parallel:      parallel.Config{Enabled: *workers > 1, NumWorkers: *workers},
		Logger:        newLogger(logOut, *data.verbose),
	})
	if results != nil {
		if werr := writeResults(out, results); werr != nil {
			return werr
		}
	}
	return err
}

func parseRates(s string) ([]float64, error) {
	var lrs []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		lr, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("learning rate %q: %w", field, err)
		}
		lrs = append(lrs, lr)
	}
	return lrs, nil
}

func writeResults(out io.Writer, results []sweep.Result) error {
	best, ok := sweep.Best(results)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "run\tlr\titerations\tfinal mse\t")
	for _, r := range results {
		mark := ""
		if ok && r.ID == best.ID {
			mark = " *"
		}
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%g\t-\tfailed\t\n", r.ID, r.LearningRate)
			continue
		}
		fmt.Fprintf(tw, "%s\t%g\t%d\t%.6g%s\t\n", r.ID, r.LearningRate, len(r.History), r.FinalMSE, mark)
	}
	return tw.Flush()
}
