package source

import (
	"slices"
	"strings"
	"testing"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{
			name:   "exact",
			body:   "!START:\nstructurizr source\n!END",
			want:   "!START:\nstructurizr source\n!END",
			wantOK: true,
		},
		{
			name:   "surrounding whitespace",
			body:   "\n\n  !START:\nperson a\n!END\n  ",
			want:   "!START:\nperson a\n!END",
			wantOK: true,
		},
		{
			name:   "text outside markers",
			body:   "intro\n!START:\nperson a\n!END\ntrailing",
			want:   "!START:\nperson a\n!END",
			wantOK: true,
		},
		{
			name:   "indented end marker",
			body:   "!START:\nperson a\n    !END",
			want:   "!START:\nperson a\n!END",
			wantOK: true,
		},
		{
			name:   "interior whitespace kept",
			body:   "!START:\n  a -> b\n\n  b -> c\n!END",
			want:   "!START:\n  a -> b\n\n  b -> c\n!END",
			wantOK: true,
		},
		{
			name:   "first pair only",
			body:   "!START:\na\n!END\n!START:\nb\n!END",
			want:   "!START:\na\n!END",
			wantOK: true,
		},
		{
			name:   "start marker text on same line",
			body:   "!START: workspace\nx\n!END",
			want:   "!START: workspace\nx\n!END",
			wantOK: true,
		},
		{name: "invalid", body: "Invalid diagram source"},
		{name: "no end", body: "!START:\nperson a\n"},
		{name: "no start", body: "person a\n!END"},
		{name: "no line break after start", body: "!START: a !END"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSource(tt.body)
			if ok != tt.wantOK {
				t.Fatalf("ParseSource(%q) ok = %v, want %v", tt.body, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseSource(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestTagFinder(t *testing.T) {
	text := `# Title

<structurizr caption="A">
!START:
a
!END
</structurizr>

text <structurizr>!START:
b
!END</structurizr> more`

	var got []Match
	for m := range TagFinder("structurizr").All(text) {
		got = append(got, m)
	}

	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].Group("options") != ` caption="A"` {
		t.Errorf("options = %q", got[0].Group("options"))
	}
	if !strings.Contains(got[0].Group("body"), "a\n!END") {
		t.Errorf("body = %q", got[0].Group("body"))
	}
	if got[1].Group("options") != "" {
		t.Errorf("second options = %q, want empty", got[1].Group("options"))
	}
	if text[got[1].Start:got[1].End] != "<structurizr>!START:\nb\n!END</structurizr>" {
		t.Errorf("second span = %q", text[got[1].Start:got[1].End])
	}
}

func TestTagFinderDoesNotMatchPlaceholder(t *testing.T) {
	text := `<_structurizr file="x.png"></_structurizr>`
	if n := countMatches(TagFinder("structurizr"), text); n != 0 {
		t.Errorf("structurizr finder matched placeholder %d times", n)
	}
}

func TestRawFinder(t *testing.T) {
	text := "intro\n  !START:\n  a\n  !END\nmid !START: inline mention\n!START:\nb\n!END"

	var got []Match
	for m := range RawFinder().All(text) {
		got = append(got, m)
	}

	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(got), got)
	}
	if got[0].Group("spaces") != "  " {
		t.Errorf("spaces = %q, want two spaces", got[0].Group("spaces"))
	}
	if got[0].Group("body") != "!START:\n  a\n  !END" {
		t.Errorf("body = %q", got[0].Group("body"))
	}
	if text[got[0].Start-1] != '\n' {
		t.Error("match should start after the line break")
	}
	if got[1].Group("spaces") != "" {
		t.Errorf("second spaces = %q", got[1].Group("spaces"))
	}
}

func TestAllIsRestartable(t *testing.T) {
	seq := TagFinder("x").All("<x>1</x><x>2</x>")

	collect := func() []string {
		var out []string
		for m := range seq {
			out = append(out, m.Group("body"))
		}
		return out
	}

	first, second := collect(), collect()
	if !slices.Equal(first, []string{"1", "2"}) || !slices.Equal(first, second) {
		t.Errorf("first = %v, second = %v", first, second)
	}

	// Early break must not panic.
	for range seq {
		break
	}
}

func TestRewrite(t *testing.T) {
	f := TagFinder("x")
	text := "a<x>1</x>b<x>2</x>c"

	got := f.Replace(text, func(m Match) string {
		return "[" + m.Group("body") + "]"
	})
	if got != "a[1]b[2]c" {
		t.Errorf("Replace() = %q", got)
	}

	if got := f.Replace("no tags", func(Match) string { return "!" }); got != "no tags" {
		t.Errorf("Replace() without matches = %q", got)
	}
}

func TestNewFinderInvalid(t *testing.T) {
	if _, err := NewFinder("("); err == nil {
		t.Error("NewFinder should reject an invalid pattern")
	}
	f, err := NewFinder(`(?P<n>\d+)`)
	if err != nil {
		t.Fatal(err)
	}
	if n := countMatches(f, "1 22 333"); n != 3 {
		t.Errorf("matches = %d, want 3", n)
	}
}

func countMatches(f *Finder, text string) int {
	n := 0
	for range f.All(text) {
		n++
	}
	return n
}
