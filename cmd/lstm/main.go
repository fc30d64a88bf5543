// Package main provides the lstm CLI: train, check and sweep a scalar LSTM cell.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("lstm %s\n", version)
		return
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "train":
		err = runTrain(os.Args[2:], os.Stdout, os.Stderr)
	case "check":
		err = runCheck(os.Args[2:], os.Stdout, os.Stderr)
	case "sweep":
		err = runSweep(os.Args[2:], os.Stdout, os.Stderr)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logrus.WithError(err).Errorf("lstm %s failed", os.Args[1])
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "lstm - scalar LSTM cell trained with backpropagation through time")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  train      Fit the cell to a target sequence")
	fmt.Fprintln(w, "  check      Compare analytic derivatives with finite differences")
	fmt.Fprintln(w, "  sweep      Train with several learning rates in parallel")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'lstm <command> -h' for command flags.")
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
