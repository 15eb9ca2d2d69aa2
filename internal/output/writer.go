// Package output provides the writers that report the outcome of a run.
package output

import (
	"errors"
	"os"

	"github.com/jakopako/arenafinder/internal/types"
)

// Result is everything a writer reports about a finished run.
type Result struct {
	// Match is nil if no matching response was found.
	Match    *types.MatchReport    `json:"match"`
	Attempts []types.AttemptStatus `json:"attempts"`
}

// Writer defines the interface for all writers that are responsible
// for writing the result of a run to a specific output.
type Writer interface {
	Write(r *Result) error
}

// WriterConfig defines which writers are used.
type WriterConfig struct {
	// Summary prints a table of all attempts to stdout.
	Summary bool
	// FilePath, if set, additionally writes the result as json to this file.
	FilePath string
}

// NewWriter returns the stdout writer, combined with a file writer if
// wc.FilePath is set.
func NewWriter(wc *WriterConfig) Writer {
	stdout := NewStdoutWriter(wc, os.Stdout)
	if wc.FilePath == "" {
		return stdout
	}
	return multiWriter{stdout, NewFileWriter(wc)}
}

type multiWriter []Writer

func (m multiWriter) Write(r *Result) error {
	var errs []error
	for _, w := range m {
		errs = append(errs, w.Write(r))
	}
	return errors.Join(errs...)
}
