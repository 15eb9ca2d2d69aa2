package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jakopako/arenafinder/internal/types"
	"github.com/jakopako/arenafinder/internal/utils"
	"github.com/olekukonko/tablewriter"
)

const (
	bannerWidth = 60
	errorWidth  = 60
)

// StdoutWriter represents a writer that prints the match and optionally
// a summary of all attempts
type StdoutWriter struct {
	*WriterConfig
	out io.Writer
}

// NewStdoutWriter returns a new StdoutWriter printing to out
func NewStdoutWriter(wc *WriterConfig, out io.Writer) *StdoutWriter {
	return &StdoutWriter{
		WriterConfig: wc,
		out:          out,
	}
}

func (w *StdoutWriter) Write(r *Result) error {
	if r.Match != nil {
		if err := w.writeMatch(r.Match); err != nil {
			return err
		}
	}
	if w.Summary {
		return w.writeSummary(r.Attempts)
	}
	return nil
}

func (w *StdoutWriter) writeMatch(m *types.MatchReport) error {
	line := strings.Repeat("=", bannerWidth)
	_, err := fmt.Fprintf(w.out, "\n%s\nMATCH FOUND!\n%s\nPattern: %s\nResponse #%d after %d attempt(s):\n%s\n%s\n\n",
		line, line, m.Pattern, m.BlockIndex+1, m.Attempts, m.Preview, line)
	return err
}

func (w *StdoutWriter) writeSummary(attempts []types.AttemptStatus) error {
	table := tablewriter.NewWriter(w.out)
	table.Header("Attempt", "Outcome", "Duration", "Error")

	rows := [][]string{}
	counts := map[types.Outcome]int{}
	for _, a := range attempts {
		counts[a.Outcome]++
		rows = append(rows, []string{
			strconv.Itoa(a.Number),
			string(a.Outcome),
			a.Duration().Round(100 * time.Millisecond).String(),
			utils.ShortenString(a.Error, errorWidth),
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	table.Footer("total", strconv.Itoa(len(attempts)),
		fmt.Sprintf("%d no match", counts[types.OutcomeNoMatch]),
		fmt.Sprintf("%d errors", counts[types.OutcomeFailed]))
	return table.Render()
}
