package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	skinPattern = `\.skin%\(\).*<@'\n\n\n'@>`

	aardioResponse = `import win.ui;
var winform = win.form(text="form")
winform.add(
button={cls="plus";left=20;top=200;right=120;bottom=240}
)
winform.button.skin%()
winform.button.oncommand = function(id,event){
	winform.edit.appendText(<@'


'@>)
}
winform.show();
win.loopMessage();`

	htmlPage = `<html><body>
<div class="prose"><p>Sure, here is a form.</p></div>
<div class="other">.skin%() not a response</div>
<div class="prose"><pre><code>winform.button.skin%()
x = <@'


'@></code></pre></div>
</body></html>`
)

func TestNewMatcherInvalid(t *testing.T) {
	_, err := NewMatcher(`(unclosed`)
	assert.Error(t, err)
}

func TestCheckResponsesDotAll(t *testing.T) {
	m, err := NewMatcher(skinPattern)
	require.NoError(t, err)

	res, err := m.CheckResponses([]string{aardioResponse})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, aardioResponse, res.Text)
}

func TestCheckResponsesFirstMatchWins(t *testing.T) {
	m, err := NewMatcher(`answer: \d+`)
	require.NoError(t, err)

	texts := []string{
		"no numbers here",
		"something else",
		"the answer: 42",
		"another answer: 7",
	}
	res, err := m.CheckResponses(texts)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 2, res.Index)
	assert.Equal(t, "the answer: 42", res.Preview)
}

func TestCheckResponsesNoMatch(t *testing.T) {
	m, err := NewMatcher(skinPattern)
	require.NoError(t, err)

	tests := [][]string{
		nil,
		{},
		{"winform.button.skin%()\n<@'\n\n'@>"},
		{"<@'\n\n\n'@> before .skin%()", "plain text"},
	}
	for _, texts := range tests {
		res, err := m.CheckResponses(texts)
		require.NoError(t, err)
		assert.Equal(t, NoMatch, res, "texts: %q", texts)
	}
}

func TestCheckResponsesMultiline(t *testing.T) {
	m, err := NewMatcher(`^done$`)
	require.NoError(t, err)

	res, err := m.CheckResponses([]string{"first line\ndone\nlast line"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
}

func TestCheckResponsesLookaround(t *testing.T) {
	m, err := NewMatcher(`skin(?=%\(\))`)
	require.NoError(t, err)

	ok, err := m.Match("button.skin%()")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Match("button.skin()")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckResponsesNamedGroups(t *testing.T) {
	tests := []struct {
		pattern  string
		text     string
		expected bool
	}{
		{`(?P<tag>skin)%\(\)`, "button.skin%()", true},
		{`(?P<tag>skin)%\(\)`, "button.skin()", false},
		{`(?<=button\.)skin`, "button.skin%()", true},
		{`(?<=form\.)skin`, "button.skin%()", false},
		{skinPattern, aardioResponse, true},
	}
	for _, tt := range tests {
		m, err := NewMatcher(tt.pattern)
		require.NoError(t, err, tt.pattern)
		ok, err := m.Match(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, ok, "pattern %s on %q", tt.pattern, tt.text)
	}
}

func TestCheckResponsesPreview(t *testing.T) {
	m, err := NewMatcher(`x+`)
	require.NoError(t, err)

	long := strings.Repeat("x", PreviewLength+100)
	res, err := m.CheckResponses([]string{long})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", PreviewLength)+"...", res.Preview)
	assert.Equal(t, long, res.Text)
}

func TestBlocksFromHTML(t *testing.T) {
	blocks, err := BlocksFromHTML(strings.NewReader(htmlPage), DefaultSelector)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "Sure, here is a form.", blocks[0])

	m, err := NewMatcher(skinPattern)
	require.NoError(t, err)
	res, err := m.CheckResponses(blocks)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 1, res.Index)
}

func TestBlocksFromHTMLLineBreaks(t *testing.T) {
	blocks, err := BlocksFromHTML(strings.NewReader(`<div class="prose">a<br>b</div>`), DefaultSelector)
	require.NoError(t, err)
	assert.Equal(t, []string{"a\nb"}, blocks)
}
