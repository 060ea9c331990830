// Package match implements pattern matching and substitution over path
// components and file bodies. A Matcher is stateless and safe to share
// across the planning and execution phases.
package match

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Matcher finds and substitutes a pattern in a piece of text. The same
// matcher is used for entry names (single path component) and for whole
// file bodies.
type Matcher interface {
	// Matches reports whether the text contains the pattern at least once.
	Matches(text string) bool
	// Count returns the number of non-overlapping occurrences.
	Count(text string) int
	// Replace substitutes every occurrence and returns the new text.
	Replace(text string) string
}

// Kind selects the matching strategy.
type Kind int

const (
	KindLiteral Kind = iota
	KindRegex
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// Options describes how a matcher is built.
type Options struct {
	Pattern       string
	Replacement   string
	Kind          Kind
	CaseSensitive bool
}

// New compiles a matcher from options. Regex patterns are compiled once
// here and reused for the whole run; a bad pattern is a config error.
func New(opts Options) (Matcher, error) {
	if opts.Pattern == "" {
		return nil, errors.New("pattern must not be empty")
	}

	switch opts.Kind {
	case KindLiteral:
		if opts.CaseSensitive {
			return &literalMatcher{pattern: opts.Pattern, replacement: opts.Replacement}, nil
		}
		// Case-insensitive literal matching rides on the regexp engine so
		// the replacement is still inserted verbatim.
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(opts.Pattern))
		if err != nil {
			return nil, errors.Errorf("compiling case-insensitive literal %q: %w", opts.Pattern, err)
		}
		return &regexMatcher{re: re, replacement: opts.Replacement, literal: true}, nil

	case KindRegex:
		pattern := opts.Pattern
		if !opts.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Errorf("compiling regex %q: %w", opts.Pattern, err)
		}
		return &regexMatcher{re: re, replacement: opts.Replacement}, nil

	default:
		return nil, errors.Errorf("unknown matcher kind %d", opts.Kind)
	}
}

// literalMatcher is the fast path for case-sensitive literal strings.
type literalMatcher struct {
	pattern     string
	replacement string
}

func (m *literalMatcher) Matches(text string) bool {
	return strings.Contains(text, m.pattern)
}

func (m *literalMatcher) Count(text string) int {
	return strings.Count(text, m.pattern)
}

func (m *literalMatcher) Replace(text string) string {
	return strings.ReplaceAll(text, m.pattern, m.replacement)
}

// regexMatcher covers regex mode and case-insensitive literal mode.
type regexMatcher struct {
	re          *regexp.Regexp
	replacement string
	literal     bool // insert replacement verbatim, no $1 expansion
}

func (m *regexMatcher) Matches(text string) bool {
	return m.re.MatchString(text)
}

func (m *regexMatcher) Count(text string) int {
	return len(m.re.FindAllStringIndex(text, -1))
}

func (m *regexMatcher) Replace(text string) string {
	if m.literal {
		return m.re.ReplaceAllLiteralString(text, m.replacement)
	}
	return m.re.ReplaceAllString(text, m.replacement)
}
