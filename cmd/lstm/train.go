package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/born-ml/lstmcell/internal/config"
	"github.com/born-ml/lstmcell/internal/scalars"
	"github.com/born-ml/lstmcell/internal/unit"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func runTrain(args []string, out, logOut io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(logOut)
	data := addDataFlags(fs)
	historyPath := fs.String("history", "", "Write the loss history to this file")
	paramsPath := fs.String("params-out", "", "Write the trained parameters to this file")
	every := fs.Int("every", 1000, "Log progress every N iterations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tr, err := data.training()
	if err != nil {
		return err
	}
	if *historyPath != "" {
		tr.HistoryPath = *historyPath
	}
	if *paramsPath != "" {
		tr.ParametersPath = *paramsPath
	}

	logger := newLogger(logOut, *data.verbose)
	return train(tr, *every, logger, out)
}

func train(tr *config.Training, every int, logger *logrus.Logger, out io.Writer) error {
	log := logger.WithFields(logrus.Fields{
		"run":   uuid.New().String(),
		"steps": len(tr.Sequence),
	})

	progress := func(iteration int, mse float64) {
		entry := log.WithFields(logrus.Fields{"iteration": iteration, "mse": mse})
		if every > 0 && iteration%every == 0 {
			entry.Info("progress")
			return
		}
		entry.Debug("iteration")
	}

	u, err := unit.New(tr.Sequence, tr.Target, initialParameters(tr), unit.WithProgress(progress))
	if err != nil {
		return err
	}
	if err := u.Run(); err != nil {
		return err
	}
	initial := u.Outputs()

	cfg := tr.TrainConfig()
	log.WithFields(logrus.Fields{
		"lr":         cfg.LearningRate,
		"iterations": cfg.MaxIterations,
		"threshold":  cfg.ErrorThreshold,
		"window":     cfg.EffectiveLength,
	}).Info("training started")

	if err := u.Optimize(cfg); err != nil {
		return err
	}
	final, err := u.Loss(cfg.EffectiveLength)
	if err != nil {
		return err
	}
	history := u.History()
	log.WithFields(logrus.Fields{
		"iterations": len(history),
		"first_mse":  first(history),
		"final_mse":  final,
	}).Info("training finished")

	if err := writeOutputs(out, tr.Sequence, tr.Target, initial, u.Outputs()); err != nil {
		return err
	}

	if tr.HistoryPath != "" {
		if err := scalars.Save(tr.HistoryPath, history); err != nil {
			return err
		}
		log.WithField("path", tr.HistoryPath).Info("history saved")
	}
	if tr.ParametersPath != "" {
		if err := scalars.Save(tr.ParametersPath, u.Parameters()); err != nil {
			return err
		}
		log.WithField("path", tr.ParametersPath).Info("parameters saved")
	}
	return nil
}

func writeOutputs(out io.Writer, sequence, target, before, after []float64) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "t\tx\ttarget\tinitial\ttrained\t")
	for t := range sequence {
		fmt.Fprintf(tw, "%d\t%g\t%g\t%.6f\t%.6f\t\n", t, sequence[t], target[t], before[t], after[t])
	}
	return tw.Flush()
}

func first(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[0]
}
