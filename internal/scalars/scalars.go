// Package scalars stores flat lists of float64 values, one per line.
//
// The format is what training writes for loss histories and parameter
// vectors. Values are written with strconv 'g' formatting at full precision,
// so Read(Write(v)) returns v bit for bit. Blank lines and lines starting with
// '#' are skipped on read.
package scalars

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed is returned for a line that is not a number.
var ErrMalformed = errors.New("scalars: malformed value")

// Write writes values to w, one per line.
func Write(w io.Writer, values []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range values {
		if _, err := bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return fmt.Errorf("scalars: write: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("scalars: write: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("scalars: write: %w", err)
	}
	return nil
}

// Read parses values from r.
func Read(r io.Reader) ([]float64, error) {
	var values []float64
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformed, line, text)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scalars: read: %w", err)
	}
	return values, nil
}

// Save writes values to the file at path, replacing it.
func Save(path string, values []float64) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return fmt.Errorf("scalars: %w", err)
	}
	if err := Write(f, values); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("scalars: %w", err)
	}
	return nil
}

// Load reads values from the file at path.
func Load(path string) ([]float64, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("scalars: %w", err)
	}
	defer f.Close()
	return Read(f)
}
