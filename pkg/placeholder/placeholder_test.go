package placeholder

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/config"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/source"
)

func TestEmitParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
	}{
		{"reference", Tag{File: "/c/abc.png", Caption: "Context"}},
		{"inline", Tag{File: "/c/abc.svg", Inline: true}},
		{"caption with markup", Tag{File: "/c/x.png", Caption: `a <b> & "c" 'd'`}},
		{"direct", Tag{Content: "!START:\nperson a\n!END", Caption: "X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "before " + Emit(tt.tag) + " after"

			var got []Tag
			for m := range Finder().All(text) {
				got = append(got, Parse(m))
			}
			if len(got) != 1 {
				t.Fatalf("found %d placeholders in %q, want 1", len(got), text)
			}
			if got[0] != tt.tag {
				t.Errorf("Parse(Emit()) = %+v, want %+v", got[0], tt.tag)
			}
		})
	}
}

func TestEmitIsSingleLine(t *testing.T) {
	p := Emit(Tag{Content: "!START:\nperson a\n!END\n</structurizr>", Caption: "line1\nline2"})

	if strings.ContainsAny(p, "\n\r") {
		t.Errorf("placeholder spans lines: %q", p)
	}
	if n := countMatches(source.RawFinder(), "\n"+p+"\n"); n != 0 {
		t.Errorf("raw finder matched placeholder %d times", n)
	}
	if n := countMatches(source.TagFinder("structurizr"), p); n != 0 {
		t.Errorf("tag finder matched placeholder %d times", n)
	}
}

func TestInline(t *testing.T) {
	opts := func(v map[string]any) config.Options {
		return config.Layers{config.Defaults(), {Name: "t", Values: v}}.Resolve()
	}

	tests := []struct {
		name   string
		format string
		values map[string]any
		want   bool
	}{
		{"svg as image by default", "svg", nil, false},
		{"svg inline", "svg", map[string]any{"as_image": false}, true},
		{"png never inline", "png", map[string]any{"as_image": false}, false},
		{"invalid bool", "svg", map[string]any{"as_image": "maybe"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Inline(tt.format, opts(tt.values)); got != tt.want {
				t.Errorf("Inline() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := cache.NewFileStore(dir)

	png := filepath.Join(dir, "abc.png")
	svg := filepath.Join(dir, "abc.svg")
	_ = store.Write(ctx, png, []byte("PNG"))
	_ = store.Write(ctx, svg, []byte("<svg/>"))

	tests := []struct {
		name string
		tag  Tag
		want string
	}{
		{"reference", Tag{File: png, Caption: "X"}, "![X](" + filepath.ToSlash(png) + ")"},
		{"reference without caption", Tag{File: png}, "![](" + filepath.ToSlash(png) + ")"},
		{"inline", Tag{File: svg, Inline: true}, "<div><svg/></div>"},
		{"inline with caption", Tag{File: svg, Inline: true, Caption: "X"}, "<div><svg/></div>\n\nX"},
		{"direct", Tag{Content: "graph", Caption: "C"}, "```mermaid\ngraph\n```\n\nC"},
	}

	r := NewResolver(store)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.tag)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveRelativePathBecomesAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	store, _ := cache.NewFileStore("cache")
	_ = store.Write(context.Background(), filepath.Join("cache", "a.png"), []byte("PNG"))

	got, err := NewResolver(store).Resolve(context.Background(), Tag{File: filepath.Join("cache", "a.png")})
	if err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(filepath.Join("cache", "a.png"))
	if got != "![]("+filepath.ToSlash(abs)+")" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestResolveMissingArtifact(t *testing.T) {
	store, _ := cache.NewFileStore(t.TempDir())

	got, err := NewResolver(store).Resolve(context.Background(), Tag{File: filepath.Join(store.Root(), "missing.png")})
	if got != "" {
		t.Errorf("Resolve() = %q, want empty", got)
	}
	if !errors.Is(err, errors.ErrCodeMissingArtifact) {
		t.Errorf("Resolve() error = %v, want MISSING_ARTIFACT", err)
	}
}

func countMatches(f *source.Finder, text string) int {
	n := 0
	for range f.All(text) {
		n++
	}
	return n
}
