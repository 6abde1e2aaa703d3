// Package tag splits raw tag-input values into tokens and joins them back.
package tag

import (
	"strings"
	"unicode"
)

// DefaultSeparator is the separator a field uses when none is configured.
// It splits on any run of whitespace rather than on a literal space.
const DefaultSeparator = ' '

// Rule is the tokenization rule derived from a separator.
type Rule struct {
	sep        rune
	whitespace bool
}

// RuleFor maps a separator to its tokenization rule.
func RuleFor(sep rune) Rule {
	return Rule{sep: sep, whitespace: sep == DefaultSeparator}
}

// Whitespace reports whether the rule splits on whitespace runs.
func (r Rule) Whitespace() bool { return r.whitespace }

// Separator returns the literal separator used when joining.
func (r Rule) Separator() rune { return r.sep }

// Split trims value, splits it and returns unique non-empty tokens in first-seen order.
func (r Rule) Split(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var parts []string
	if r.whitespace {
		parts = strings.FieldsFunc(value, unicode.IsSpace)
	} else {
		parts = strings.Split(value, string(r.sep))
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Join concatenates tokens with the literal separator. No tokens yield "".
func (r Rule) Join(tokens []string) string {
	return strings.Join(tokens, string(r.sep))
}

// Split is RuleFor(sep).Split(value).
func Split(value string, sep rune) []string {
	return RuleFor(sep).Split(value)
}

// Join is RuleFor(sep).Join(tokens).
func Join(tokens []string, sep rune) string {
	return RuleFor(sep).Join(tokens)
}

// Contains reports whether s contains substr, ignoring case.
// An empty substr matches everything.
func Contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Unique drops repeated values, case-sensitively, keeping first occurrences.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
