package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/trita-a/ricerca/internal/logger"
)

// Matcher tests names and content against the keywords of one run.
// Keywords are OR-ed; matching is case-insensitive.
type Matcher struct {
	terms []term
}

type term struct {
	lower string
	// word is nil when the keyword is matched as a plain substring.
	word *regexp.Regexp
}

// NewMatcher compiles keywords once. With wholeWord set, single-word
// keywords must be delimited by non-alphanumerics or the string edges.
// Phrases containing spaces always match as substrings.
func NewMatcher(keywords []string, wholeWord bool) *Matcher {
	m := &Matcher{terms: make([]term, 0, len(keywords))}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		t := term{lower: strings.ToLower(kw)}
		if wholeWord && !strings.ContainsFunc(kw, unicode.IsSpace) {
			re, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(kw) + `(?:$|[^\p{L}\p{N}])`)
			if err != nil {
				logger.Debug("Whole-word pattern for %q invalid, using substring: %v", kw, err)
			} else {
				t.word = re
			}
		}
		m.terms = append(m.terms, t)
	}
	return m
}

// Match reports whether any keyword occurs in text.
func (m *Matcher) Match(text string) bool {
	if text == "" || len(m.terms) == 0 {
		return false
	}
	var lower string
	for _, t := range m.terms {
		if t.word != nil {
			if t.word.MatchString(text) {
				return true
			}
			continue
		}
		if lower == "" {
			lower = strings.ToLower(text)
		}
		if strings.Contains(lower, t.lower) {
			return true
		}
	}
	return false
}

// Matches is the one-shot form of NewMatcher(keywords, wholeWord).Match(text).
func Matches(keywords []string, text string, wholeWord bool) bool {
	return NewMatcher(keywords, wholeWord).Match(text)
}
