package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPromptScriptQuotesPrompt(t *testing.T) {
	tests := []struct {
		prompt   string
		expected string
	}{
		{"hello", `})("hello")`},
		{`say "hi"`, `})("say \"hi\"")`},
		{"line1\nline2", `})("line1\nline2")`},
		{"</script><@'", `})("\u003c/script\u003e\u003c@'")`},
	}
	for _, tt := range tests {
		script, err := setPromptScript(tt.prompt)
		require.NoError(t, err)
		if !strings.HasSuffix(script, tt.expected) {
			t.Errorf("setPromptScript(%q) ends with %q; want suffix %q", tt.prompt, script[len(script)-len(tt.expected):], tt.expected)
		}
	}
}

func TestResponseTextsScript(t *testing.T) {
	script, err := responseTextsScript(".prose")
	require.NoError(t, err)
	assert.Equal(t, `Array.from(document.querySelectorAll(".prose"), (e) => e.innerText)`, script)

	script, err = responseTextsScript(`div[data-role="answer"]`)
	require.NoError(t, err)
	assert.Contains(t, script, `querySelectorAll("div[data-role=\"answer\"]")`)
}

func TestPasteImageScriptReturnsStatus(t *testing.T) {
	assert.True(t, strings.HasPrefix(pasteImageScript, "(() => {"))
	assert.True(t, strings.HasSuffix(pasteImageScript, "})()"))
	assert.Contains(t, pasteImageScript, "new ClipboardEvent('paste'")
}
