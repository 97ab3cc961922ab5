// Package source locates Structurizr diagram blocks in Markdown text.
//
// A diagram body is delimited by a "!START:" line and a "!END" marker:
//
//	<structurizr caption="Context">
//	!START:
//	workspace { ... }
//	!END
//	</structurizr>
//
// [ParseSource] cuts a body down to the first start/end pair. [Finder] and
// [Rewrite] implement the two halves of a substitution pass: a lazy,
// restartable sequence of matches and a left-to-right fold that splices
// replacements back into the text.
package source

import (
	"iter"
	"regexp"
	"strings"
)

// Markers delimiting a diagram body.
const (
	StartMarker = "!START:"
	EndMarker   = "!END"
)

var bodyRe = regexp.MustCompile(`(?s)(!START:.*?\n)\s*(!END)`)

// ParseSource extracts the diagram from a raw block body.
//
// Everything before the first "!START:" line and after the first "!END"
// that follows it is dropped, as is the whitespace directly in front of
// "!END". The second result is false when the body has no such pair.
func ParseSource(body string) (string, bool) {
	m := bodyRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1] + m[2], true
}

// Match is one located span of text.
type Match struct {
	Start, End int               // byte offsets, End exclusive
	Groups     map[string]string // named capture groups
}

// Group returns the named capture group, or "" when it did not participate.
func (m Match) Group(name string) string { return m.Groups[name] }

// Finder locates matches of a pattern with named capture groups.
type Finder struct {
	re *regexp.Regexp
}

// NewFinder compiles pattern into a Finder.
func NewFinder(pattern string) (*Finder, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Finder{re: re}, nil
}

// MustFinder is like NewFinder but panics on an invalid pattern.
func MustFinder(pattern string) *Finder {
	return &Finder{re: regexp.MustCompile(pattern)}
}

// TagFinder matches <name attrs>body</name> blocks. The "options" group holds
// the raw attribute string and "body" the content between the tags.
func TagFinder(name string) *Finder {
	n := regexp.QuoteMeta(name)
	return MustFinder(`(?s)<` + n + `(?P<options>\s[^>]*)?>(?P<body>.*?)</` + n + `>`)
}

// RawFinder matches untagged blocks that start with "!START:" at the
// beginning of a line. The "spaces" group holds the indentation in front of
// the marker. The match itself starts at the indentation, so the line break
// before it is never consumed.
func RawFinder() *Finder {
	return MustFinder(`(?sm)^(?P<spaces>[ \t]*)(?P<body>!START:.*?!END)`)
}

// All returns the non-overlapping matches in text, left to right. Nothing
// is searched until the sequence is ranged over, and it may be ranged over
// more than once.
func (f *Finder) All(text string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		names := f.re.SubexpNames()
		// Searching the whole text keeps ^ anchored to real line starts.
		for _, loc := range f.re.FindAllStringSubmatchIndex(text, -1) {
			m := Match{Start: loc[0], End: loc[1], Groups: make(map[string]string)}
			for i, name := range names {
				if name == "" || loc[2*i] < 0 {
					continue
				}
				m.Groups[name] = text[loc[2*i]:loc[2*i+1]]
			}
			if !yield(m) {
				return
			}
		}
	}
}

// Rewrite folds replacements into text from left to right. Matches must be
// ordered and non-overlapping, as produced by [Finder.All].
func Rewrite(text string, matches iter.Seq[Match], replace func(Match) string) string {
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for m := range matches {
		b.WriteString(text[last:m.Start])
		b.WriteString(replace(m))
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// Replace is shorthand for Rewrite(text, f.All(text), replace).
func (f *Finder) Replace(text string, replace func(Match) string) string {
	return Rewrite(text, f.All(text), replace)
}
