package publish

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "image reference",
			input: "![Context](/cache/abc.png)",
			want:  []string{`<img src="/cache/abc.png" alt="Context">`},
		},
		{
			name:  "inline svg survives",
			input: "<div><svg><rect/></svg></div>",
			want:  []string{"<div><svg><rect/></svg></div>"},
		},
		{
			name:  "gfm table",
			input: "| a | b |\n|---|---|\n| 1 | 2 |\n",
			want:  []string{"<table>", "<td>1</td>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML([]byte(tt.input))
			if err != nil {
				t.Fatalf("ToHTML() error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(got), w) {
					t.Errorf("ToHTML() = %q, want it to contain %q", got, w)
				}
			}
		})
	}
}

func TestHTMLPath(t *testing.T) {
	tests := map[string]string{
		"docs/index.md": "docs/index.html",
		"README":        "README.html",
		"a.b/page.md":   "a.b/page.html",
	}
	for in, want := range tests {
		if got := HTMLPath(in); got != want {
			t.Errorf("HTMLPath(%q) = %q, want %q", in, got, want)
		}
	}
}
