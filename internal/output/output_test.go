package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jakopako/arenafinder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	testResult = &Result{
		Match: &types.MatchReport{
			Pattern:    `\.skin%\(\).*<@'\n\n\n'@>`,
			TargetURL:  "https://lmarena.ai/?chat-modality=image",
			Attempts:   3,
			BlockIndex: 1,
			Preview:    "winform.button.skin%()\n<@'\n\n\n'@>",
			Response:   "winform.button.skin%()\n<@'\n\n\n'@>",
			FoundAt:    start.Add(3 * time.Minute),
		},
		Attempts: []types.AttemptStatus{
			{Number: 1, Outcome: types.OutcomeFailed, Start: start, End: start.Add(12 * time.Second), Error: "send prompt: context deadline exceeded"},
			{Number: 2, Outcome: types.OutcomeNoMatch, Start: start.Add(15 * time.Second), End: start.Add(75 * time.Second)},
			{Number: 3, Outcome: types.OutcomeMatched, Start: start.Add(77 * time.Second), End: start.Add(3 * time.Minute)},
		},
	}
)

func TestStdoutWriterMatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewStdoutWriter(&WriterConfig{}, &buf)
	require.NoError(t, w.Write(testResult))

	out := buf.String()
	assert.Contains(t, out, "MATCH FOUND!")
	assert.Contains(t, out, `Pattern: \.skin%\(\).*<@'\n\n\n'@>`)
	assert.Contains(t, out, "Response #2 after 3 attempt(s)")
	assert.Contains(t, out, "winform.button.skin%()")
	assert.NotContains(t, out, "send prompt")
}

func TestStdoutWriterNoMatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewStdoutWriter(&WriterConfig{}, &buf)
	require.NoError(t, w.Write(&Result{Attempts: testResult.Attempts}))
	assert.Empty(t, buf.String())
}

func TestStdoutWriterSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewStdoutWriter(&WriterConfig{Summary: true}, &buf)
	require.NoError(t, w.Write(&Result{Attempts: testResult.Attempts}))

	// footers may be upper cased by the table renderer
	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "deadline exceeded")
	assert.Contains(t, out, "1m0s")
	assert.Contains(t, out, "1 errors")
	assert.Contains(t, out, "1 no match")
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	w := NewFileWriter(&WriterConfig{FilePath: path})
	require.NoError(t, w.Write(testResult))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pattern": "\\.skin%\\(\\).*<@'\\n\\n\\n'@>"`)

	var got Result
	require.NoError(t, json.Unmarshal(data, &got))
	require.NotNil(t, got.Match)
	assert.Equal(t, 1, got.Match.BlockIndex)
	assert.Len(t, got.Attempts, 3)
}

func TestFileWriterNoPath(t *testing.T) {
	assert.Error(t, NewFileWriter(&WriterConfig{}).Write(testResult))
}

func TestNewWriter(t *testing.T) {
	_, ok := NewWriter(&WriterConfig{}).(*StdoutWriter)
	assert.True(t, ok)

	path := filepath.Join(t.TempDir(), "result.json")
	w := NewWriter(&WriterConfig{FilePath: path})
	_, ok = w.(multiWriter)
	assert.True(t, ok)
}
