// Package config loads training files for the lstm command.
//
// A training file is YAML:
//
//	sequence: [0, 1, 0, 1, 0, 1]
//	target:   [1, 0, 1, 0, 1, 0]
//	seed: 42              # used when parameters is omitted
//	learning_rate: 0.01
//	iterations: 5000
//	error_threshold: 0.0001
//	effective_length: 0
//	history_path: history.txt
//	parameters_path: params.txt
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/lstmcell/internal/cell"
	"github.com/born-ml/lstmcell/internal/unit"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for a training file that cannot describe a run.
var ErrInvalid = errors.New("config: invalid training file")

// Training describes one training run.
type Training struct {
	Sequence   []float64 `yaml:"sequence"`
	Target     []float64 `yaml:"target"`
	Parameters []float64 `yaml:"parameters,omitempty"`
	Seed       int64     `yaml:"seed"`

	LearningRate    float64 `yaml:"learning_rate"`
	Iterations      int     `yaml:"iterations"`
	ErrorThreshold  float64 `yaml:"error_threshold"`
	EffectiveLength int     `yaml:"effective_length"`

	HistoryPath    string `yaml:"history_path,omitempty"`
	ParametersPath string `yaml:"parameters_path,omitempty"`
}

// TrainConfig returns the optimizer settings of t.
func (t *Training) TrainConfig() unit.TrainConfig {
	return unit.TrainConfig{
		LearningRate:    t.LearningRate,
		MaxIterations:   t.Iterations,
		ErrorThreshold:  t.ErrorThreshold,
		EffectiveLength: t.EffectiveLength,
	}
}

// Validate checks the shape of the data. Value ranges are left to unit.
func (t *Training) Validate() error {
	switch {
	case len(t.Sequence) == 0:
		return fmt.Errorf("%w: sequence is empty", ErrInvalid)
	case len(t.Target) != len(t.Sequence):
		return fmt.Errorf("%w: target has %d values, sequence has %d", ErrInvalid, len(t.Target), len(t.Sequence))
	case t.Parameters != nil && len(t.Parameters) != cell.NumParameters:
		return fmt.Errorf("%w: parameters has %d values, want %d", ErrInvalid, len(t.Parameters), cell.NumParameters)
	}
	return nil
}

// Parse decodes a training file from r. Unknown keys are rejected.
func Parse(r io.Reader) (*Training, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Training
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads and parses the training file at path.
func Load(path string) (*Training, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	t, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Marshal encodes t as YAML.
func Marshal(t *Training) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return buf.Bytes(), nil
}
