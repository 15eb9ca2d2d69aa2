// Package match tests response texts against the configured search pattern.
package match

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dlclark/regexp2"
	"github.com/jakopako/arenafinder/internal/utils"
)

const (
	// PreviewLength is the number of characters of a matching block
	// that are kept as preview.
	PreviewLength = 500

	// DefaultSelector selects the response blocks on the chat page.
	DefaultSelector = ".prose"

	matchTimeout = 5 * time.Second
)

// Result is the outcome of checking a list of response blocks.
type Result struct {
	Matched bool
	Index   int // 0-based index of the matching block, -1 if none matched
	Preview string
	Text    string
}

// NoMatch is the negative Result.
var NoMatch = Result{Index: -1}

// A Matcher reports whether response texts contain the search pattern.
// Patterns are evaluated with dot-all and multi-line semantics and may use
// Perl style constructs like lookarounds and backreferences as well as
// Python style named groups (?P<name>...).
type Matcher struct {
	pattern string
	re      *regexp2.Regexp
}

// NewMatcher compiles pattern.
func NewMatcher(pattern string) (*Matcher, error) {
	re, err := regexp2.Compile(pattern, regexp2.Singleline|regexp2.Multiline|regexp2.RE2)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", pattern, err)
	}
	re.MatchTimeout = matchTimeout
	return &Matcher{pattern: pattern, re: re}, nil
}

// Pattern returns the uncompiled search pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Match reports whether the pattern occurs anywhere in text.
func (m *Matcher) Match(text string) (bool, error) {
	return m.re.MatchString(text)
}

// CheckResponses tests texts in order and returns the first match.
func (m *Matcher) CheckResponses(texts []string) (Result, error) {
	for i, text := range texts {
		ok, err := m.Match(text)
		if err != nil {
			return NoMatch, fmt.Errorf("error matching response #%d: %w", i+1, err)
		}
		if ok {
			return Result{
				Matched: true,
				Index:   i,
				Preview: utils.ShortenString(text, PreviewLength),
				Text:    text,
			}, nil
		}
	}
	return NoMatch, nil
}

// BlocksFromHTML returns the text of every element matching selector in
// document order. Line breaks are kept so that saved pages can be checked
// with the same patterns as the live page.
func BlocksFromHTML(r io.Reader, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	doc.Find("br").ReplaceWithHtml("\n")

	blocks := []string{}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, strings.TrimSpace(s.Text()))
	})
	return blocks, nil
}
