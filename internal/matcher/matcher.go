// Package matcher finds candidate comic references in free-form text.
//
// A reference is either loose (any occurrence of the pattern) or strict, where
// it must directly follow a trigger: "!" or "#" at the start of the text or after
// whitespace, or the phrase "relevant xkcd: ". RE2 has no lookbehind, so the
// trigger is matched as a non-capturing prefix and the reference is taken from
// the first capture group.
package matcher

import (
	"regexp"
	"sort"
)

// Kind classifies a matched reference.
type Kind int

const (
	Number Kind = iota
	Range
	Latest
	Random
	Title
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Range:
		return "range"
	case Latest:
		return "latest"
	case Random:
		return "random"
	case Title:
		return "title"
	default:
		return "unknown"
	}
}

// RangeSeparator splits the two sides of a Range token.
const RangeSeparator = "..."

const strictPrefix = `(?:(?:^|\s)[!#]|relevant xkcd: )`

// Pattern is a compiled reference pattern in both its strict and loose forms.
type Pattern struct {
	kind         Kind
	alwaysStrict bool
	strict       *regexp.Regexp
	loose        *regexp.Regexp
}

func newPattern(kind Kind, base string, alwaysStrict bool) Pattern {
	return Pattern{
		kind:         kind,
		alwaysStrict: alwaysStrict,
		strict:       regexp.MustCompile(`(?i)` + strictPrefix + `(` + base + `)`),
		loose:        regexp.MustCompile(`(?i)(` + base + `)`),
	}
}

// Kind reports what the pattern matches.
func (p Pattern) Kind() Kind {
	return p.kind
}

var (
	NumberPattern = newPattern(Number, `\d+`, false)
	RangePattern  = newPattern(Range, `\d+\.\.\.\d+`, false)
	LatestPattern = newPattern(Latest, `latest`, false)
	RandomPattern = newPattern(Random, `random`, false)
	// TitlePattern ignores the strict flag: un-prefixed words are never titles.
	TitlePattern = newPattern(Title, `\S+`, true)
)

// Patterns lists every pattern in Kind order.
var Patterns = []Pattern{NumberPattern, RangePattern, LatestPattern, RandomPattern, TitlePattern}

// Token is one matched reference and where it starts in the source text.
type Token struct {
	Text   string
	Kind   Kind
	Offset int
}

// Match returns the matched substrings of p in text, left to right.
func Match(p Pattern, text string, strict bool) []string {
	tokens := find(p, text, strict)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Text)
	}
	return out
}

// Scan returns the tokens of every pattern, ordered by their offset in text.
// Tokens of different kinds may overlap (a strict "!12" is also a Title).
func Scan(text string, strict bool) []Token {
	var tokens []Token
	for _, p := range Patterns {
		tokens = append(tokens, find(p, text, strict)...)
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Offset < tokens[j].Offset
	})
	return tokens
}

func find(p Pattern, text string, strict bool) []Token {
	re := p.loose
	if strict || p.alwaysStrict {
		re = p.strict
	}
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		start, end := m[2], m[3]
		if start < 0 {
			continue
		}
		tokens = append(tokens, Token{Text: text[start:end], Kind: p.kind, Offset: start})
	}
	return tokens
}
