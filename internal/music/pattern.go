// Package music implements the music pattern scorer: wildcard patterns
// over bell symbols plus the classic named patterns (queens, kings,
// tittums, reverse rounds, rollups, and handstroke/backstroke 46/246s)
// carried forward from the original implementation's `ringing/music.h`
// (spec.md §4.8).
package music

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/exparrot/ringsearch/pkg/rrow"
)

// Anchor controls where a pattern is allowed to match within a row.
type Anchor int

const (
	// Both anchors the pattern at both the front and back of the row
	// (the default).
	Both Anchor = iota
	// Front anchors only at the start of the row.
	Front
	// Back anchors only at the end of the row.
	Back
	// Anywhere allows the pattern to match any contiguous substring.
	Anywhere
)

// Pattern is a single wildcard music pattern: '*' matches any run of
// bells (greedy), '?' matches exactly one bell, and '[set]' matches any
// one bell from set.
// A Raw of the form "<Name>" (e.g. "<CRUs>") names one of the fixed
// recognizers in NamedPatternScore instead of a wildcard, per spec.md §4.8.
type Pattern struct {
	Raw    string
	Score  int
	Anchor Anchor

	re    *regexp.Regexp
	named string
}

// Compile translates Raw into its matching regular expression, anchored
// per Anchor. Bell symbols in the corpus alphabet contain no characters
// that need regex escaping, so the translation is a direct substitution.
// A Raw of the form "<Name>" is recognized as a named pattern instead and
// compiles to nothing.
func (p *Pattern) Compile() error {
	if strings.HasPrefix(p.Raw, "<") && strings.HasSuffix(p.Raw, ">") && len(p.Raw) > 2 {
		p.named = p.Raw[1 : len(p.Raw)-1]
		return nil
	}
	var sb strings.Builder
	runes := []rune(p.Raw)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				return fmt.Errorf("music: unterminated bell set in pattern %q", p.Raw)
			}
			sb.WriteByte('[')
			sb.WriteString(string(runes[i+1 : j]))
			sb.WriteByte(']')
			i = j
		default:
			sb.WriteRune(runes[i])
		}
	}
	body := sb.String()
	switch p.Anchor {
	case Both:
		body = "^" + body + "$"
	case Front:
		body = "^" + body
	case Back:
		body = body + "$"
	case Anywhere:
		// unanchored
	}
	re, err := regexp.Compile(body)
	if err != nil {
		return fmt.Errorf("music: pattern %q: %w", p.Raw, err)
	}
	p.re = re
	return nil
}

// Matches reports whether r satisfies this pattern. Compile must have been
// called first (ScorePatterns does this automatically).
func (p *Pattern) Matches(r rrow.Row) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(r.String())
}

// ScorePatterns compiles (if needed) and sums the scores of every pattern
// that matches any row in rows. A wildcard pattern may match more than one
// row; each match contributes its score once per matching row. A named
// pattern (Raw of the form "<Name>") contributes its score once per
// occurrence the corresponding recognizer counts across rows.
func ScorePatterns(patterns []*Pattern, rows []rrow.Row) (int, error) {
	total := 0
	for _, p := range patterns {
		if p.re == nil && p.named == "" {
			if err := p.Compile(); err != nil {
				return 0, err
			}
		}
		if p.named != "" {
			n, err := NamedPatternScore(p.named, rows)
			if err != nil {
				return 0, err
			}
			total += p.Score * n
			continue
		}
		for _, r := range rows {
			if p.Matches(r) {
				total += p.Score
			}
		}
	}
	return total, nil
}
