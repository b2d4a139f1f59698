// Package regexutil wraps Go's regexp package behind the uniform interface
// the tokenizer pipelines need: FindAllIndex, FindIndex, ReplaceAll and
// QuoteMeta. Go's RE2 engine is sufficient for every pattern this tokenizer
// uses -- none of the splitter, normalizer or special-token regexes require
// backreferences or lookaround.
package regexutil

import "regexp"

// Regex is a compiled pattern.
type Regex struct {
	re *regexp.Regexp
}

// Compile compiles pattern, returning an error if it is not valid RE2 syntax.
func Compile(pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{re: re}, nil
}

// MustCompile is like Compile but panics on error, for use with patterns
// fixed at compile time.
func MustCompile(pattern string) *Regex {
	return &Regex{re: regexp.MustCompile(pattern)}
}

// FindAllIndex returns the (start, end) byte ranges of every non-overlapping
// match in text, in order.
func (r *Regex) FindAllIndex(text string) [][2]int {
	matches := r.re.FindAllStringIndex(text, -1)
	out := make([][2]int, len(matches))
	for i, m := range matches {
		out[i] = [2]int{m[0], m[1]}
	}
	return out
}

// FindIndex returns the (start, end) byte range of the first match, or false
// if there is none.
func (r *Regex) FindIndex(text string) ([2]int, bool) {
	m := r.re.FindStringIndex(text)
	if m == nil {
		return [2]int{}, false
	}
	return [2]int{m[0], m[1]}, true
}

// ReplaceAll replaces every match of r in text with replacement.
func (r *Regex) ReplaceAll(text, replacement string) string {
	return r.re.ReplaceAllString(text, replacement)
}

// String returns the source pattern.
func (r *Regex) String() string {
	return r.re.String()
}

// QuoteMeta escapes regex metacharacters in s so it matches itself
// literally.
func QuoteMeta(s string) string {
	return regexp.QuoteMeta(s)
}

// IsLiteral reports whether pattern, once escaped, equals itself -- i.e. it
// contains no regex metacharacters and can be matched/replaced with a plain
// string operation instead of the regex engine.
func IsLiteral(pattern string) bool {
	return regexp.QuoteMeta(pattern) == pattern
}
