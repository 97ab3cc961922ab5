package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/config"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/render"
)

// fakeRenderer wraps every source in <svg> tags. Sources mentioning "broken"
// are rejected with an ERROR segment.
type fakeRenderer struct {
	calls int
	args  [][]string
}

func (f *fakeRenderer) Run(ctx context.Context, args []string, stdin []byte) ([]byte, error) {
	f.calls++
	f.args = append(f.args, args)
	var b strings.Builder
	for _, src := range strings.Split(string(stdin), "\n\n") {
		if strings.Contains(src, "broken") {
			b.WriteString("ERROR: syntax error")
		} else {
			b.WriteString("<svg>" + src + "</svg>")
		}
		b.WriteString(render.PipeDelimiter)
	}
	return []byte(b.String()), nil
}

const diagram = "<structurizr caption=\"X\">!START:\nperson a\n!END</structurizr>"

func newRunner(t *testing.T, store cache.Store, exec render.Executor, values map[string]any) *Runner {
	t.Helper()
	layers := config.Layers{config.Defaults()}
	if values != nil {
		layers = layers.With(config.Layer{Name: "config", Values: values})
	}
	return NewRunner(store, exec, layers, log.New(io.Discard))
}

func newStore(t *testing.T) *cache.FileStore {
	t.Helper()
	store, err := cache.NewFileStore(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func build(ctx context.Context, r *Runner, text string) string {
	text = r.ProcessText(ctx, text)
	_, _ = r.ExecuteQueue(ctx)
	return r.ReplaceText(ctx, text)
}

func TestEndToEndImageReference(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	exec := &fakeRenderer{}
	r := newRunner(t, store, exec, nil)

	first := r.ProcessText(ctx, "# Doc\n\n"+diagram+"\n")
	if r.Queue().Len() != 1 {
		t.Fatalf("queued %d diagrams, want 1", r.Queue().Len())
	}
	if strings.Contains(first, "<structurizr") {
		t.Errorf("diagram tag left after first pass: %q", first)
	}

	if _, err := r.ExecuteQueue(ctx); err != nil {
		t.Fatalf("ExecuteQueue() error: %v", err)
	}
	got := r.ReplaceText(ctx, first)

	hash := cache.Key([]string{"structurizr", "--tpng"}, "!START:\nperson a\n!END")
	want := "# Doc\n\n![X](" + filepath.ToSlash(filepath.Join(store.Root(), hash+".png")) + ")\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if exec.calls != 1 {
		t.Errorf("renderer invoked %d times, want 1", exec.calls)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), hash+".diag")); err != nil {
		t.Errorf("debug copy missing: %v", err)
	}
}

func TestEndToEndInlineSVG(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, newStore(t), &fakeRenderer{}, nil)

	text := "<structurizr format=\"svg\" as_image=\"false\">!START:\nperson a\n!END</structurizr>"
	got := build(ctx, r, text)

	want := "<div><svg>!START:\nperson a\n!END</svg></div>"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestCacheHitSkipsRenderer(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	exec := &fakeRenderer{}
	out1 := build(ctx, newRunner(t, store, exec, nil), diagram)

	exec2 := &fakeRenderer{}
	r2 := newRunner(t, store, exec2, nil)
	out2 := build(ctx, r2, diagram)

	if out1 != out2 {
		t.Errorf("second build = %q, want %q", out2, out1)
	}
	if exec2.calls != 0 {
		t.Errorf("second build invoked renderer %d times, want 0", exec2.calls)
	}
	if r2.Stats().Hits != 1 {
		t.Errorf("Hits = %d, want 1", r2.Stats().Hits)
	}
}

func TestRefreshRendersAgain(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "cache")
	store, _ := cache.NewFileStore(root)
	build(ctx, newRunner(t, store, &fakeRenderer{}, nil), diagram)

	null, _ := cache.NewNullStore(root)
	exec := &fakeRenderer{}
	got := build(ctx, newRunner(t, null, exec, nil), diagram)

	if exec.calls != 1 {
		t.Errorf("refresh invoked renderer %d times, want 1", exec.calls)
	}
	if !strings.HasPrefix(got, "![X](") {
		t.Errorf("output = %q", got)
	}
}

func TestBatchesAcrossConfigurations(t *testing.T) {
	ctx := context.Background()
	exec := &fakeRenderer{}
	r := newRunner(t, newStore(t), exec, nil)

	text := strings.Join([]string{
		"<structurizr>!START:\na\n!END</structurizr>",
		"<structurizr format=\"svg\">!START:\nb\n!END</structurizr>",
		"<structurizr>!START:\nc\n!END</structurizr>",
		"<structurizr format=\"svg\">!START:\nd\n!END</structurizr>",
	}, "\n\n")
	got := build(ctx, r, text)

	if exec.calls != 2 {
		t.Errorf("renderer invoked %d times, want 2", exec.calls)
	}
	if n := strings.Count(got, "!["); n != 4 {
		t.Errorf("output has %d image references, want 4: %q", n, got)
	}
	if s := r.Stats(); s.Queued != 4 || s.Groups != 2 || s.Written != 4 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestParamsWithSpacesRenderSeparately(t *testing.T) {
	ctx := context.Background()
	exec := &fakeRenderer{}
	r := newRunner(t, newStore(t), exec, nil)

	text := `<structurizr params="{a: '1 --b 2'}">!START:
person a
!END</structurizr>
<structurizr params="{a: 1, b: 2}">!START:
person b
!END</structurizr>`
	build(ctx, r, text)

	if exec.calls != 2 {
		t.Fatalf("renderer invoked %d times, want 2: %q", exec.calls, exec.args)
	}
	if got := exec.args[0][:4]; !slices.Equal(got, []string{"structurizr", "--a", "1 --b 2", "--tpng"}) {
		t.Errorf("first argv = %q", got)
	}
	if got := exec.args[1][:6]; !slices.Equal(got, []string{"structurizr", "--a", "1", "--b", "2", "--tpng"}) {
		t.Errorf("second argv = %q", got)
	}
}

func TestDuplicateDiagramsQueuedOnce(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, newStore(t), &fakeRenderer{}, nil)

	got := build(ctx, r, diagram+"\n"+diagram)

	if r.Stats().Queued != 1 {
		t.Errorf("Queued = %d, want 1", r.Stats().Queued)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 2 || lines[0] != lines[1] || !strings.HasPrefix(lines[0], "![X](") {
		t.Errorf("output = %q", got)
	}
}

func TestParseRaw(t *testing.T) {
	ctx := context.Background()
	text := "Intro mentions !START: inline.\n\n  !START:\n  person a\n  !END\n"

	t.Run("disabled", func(t *testing.T) {
		r := newRunner(t, newStore(t), &fakeRenderer{}, nil)
		if got := build(ctx, r, text); got != text {
			t.Errorf("output = %q, want unchanged", got)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		r := newRunner(t, newStore(t), &fakeRenderer{}, map[string]any{"parse_raw": true})
		got := build(ctx, r, text)

		if !strings.HasPrefix(got, "Intro mentions !START: inline.\n\n  ![](") {
			t.Errorf("output = %q", got)
		}
		if r.Stats().Diagrams != 1 {
			t.Errorf("Diagrams = %d, want 1", r.Stats().Diagrams)
		}
	})
}

func TestDiagramWarnings(t *testing.T) {
	tests := []struct {
		name string
		text string
		code errors.Code
	}{
		{"missing markers", "<structurizr>person a</structurizr>", errors.ErrCodeParse},
		{"params not a mapping", "<structurizr params=\"tsvg\">!START:\na\n!END</structurizr>", errors.ErrCodeConfig},
		{"invalid bool", "<structurizr as_image=\"perhaps\">!START:\na\n!END</structurizr>", errors.ErrCodeConfig},
		{"rejected by renderer", "<structurizr>!START:\nbroken\n!END</structurizr>", errors.ErrCodeRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warnings []error
			r := newRunner(t, newStore(t), &fakeRenderer{}, nil)
			r.OnWarning = func(err error) { warnings = append(warnings, err) }

			got := build(context.Background(), r, "a "+tt.text+" b")

			if got != "a  b" {
				t.Errorf("output = %q, want diagram removed", got)
			}
			if len(warnings) == 0 || !errors.Is(warnings[0], tt.code) {
				t.Errorf("warnings = %v, want first %s", warnings, tt.code)
			}
			if r.Stats().Warnings != len(warnings) {
				t.Errorf("Stats().Warnings = %d, want %d", r.Stats().Warnings, len(warnings))
			}
		})
	}
}

func TestDirectDiagram(t *testing.T) {
	exec := &fakeRenderer{}
	r := newRunner(t, newStore(t), exec, nil)

	text := "<structurizr use_cache=\"false\" caption=\"C\">\n!START:\nperson a\n!END\n</structurizr>"
	got := build(context.Background(), r, text)

	if got != "```mermaid\n!START:\nperson a\n!END\n```\n\nC" {
		t.Errorf("output = %q", got)
	}
	if exec.calls != 0 {
		t.Error("direct diagrams should not be rendered")
	}
}

func TestApplyDirDocuments(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(src, "index.md"), "# Index\n"+diagram+"\n")
	writeFile(t, filepath.Join(src, "sub", "page.md"), "<structurizr>!START:\nb\n!END</structurizr>")
	writeFile(t, filepath.Join(src, "notes.txt"), diagram)

	exec := &fakeRenderer{}
	r := newRunner(t, newStore(t), exec, nil)

	stats, err := r.Apply(context.Background(), NewDirDocuments(src, out))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if stats.Files != 2 || stats.Diagrams != 2 || stats.Written != 2 {
		t.Errorf("Stats = %+v", stats)
	}
	if exec.calls != 1 {
		t.Errorf("renderer invoked %d times, want 1", exec.calls)
	}

	data, err := os.ReadFile(filepath.Join(out, "sub", "page.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "![](") {
		t.Errorf("page.md = %q", data)
	}
	if _, err := os.Stat(filepath.Join(out, "notes.txt")); !os.IsNotExist(err) {
		t.Error("unmatched files should not be written")
	}
	orig, _ := os.ReadFile(filepath.Join(src, "index.md"))
	if !strings.Contains(string(orig), "<structurizr") {
		t.Error("source documents should be left untouched")
	}
}

func TestApplyCancelled(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.md"), diagram)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, newStore(t), &fakeRenderer{}, nil)
	if _, err := r.Apply(ctx, NewDirDocuments(src, "")); err == nil {
		t.Error("Apply() should fail when cancelled")
	}
}

func TestDirDocumentsPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.md"), "")
	writeFile(t, filepath.Join(root, "a", "c.md"), "")
	writeFile(t, filepath.Join(root, "a", "d.txt"), "")

	paths, err := NewDirDocuments(root, "").Paths()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(paths, ",") != "a/c.md,b.md" {
		t.Errorf("Paths() = %q", paths)
	}

	paths, err = NewDirDocuments(root, "", "*.md", "**/*.md", "a/*.txt").Paths()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(paths, ",") != "a/c.md,a/d.txt,b.md" {
		t.Errorf("Paths() with several patterns = %q", paths)
	}

	if _, err := NewDirDocuments(root, "", "[").Paths(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("invalid pattern error = %v", err)
	}
	if _, err := NewDirDocuments(filepath.Join(root, "missing"), "").Paths(); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing root error = %v", err)
	}
}

func TestRunIDTagsRunner(t *testing.T) {
	a := newRunner(t, newStore(t), nil, nil)
	b := newRunner(t, newStore(t), nil, nil)
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run IDs %q and %q should be unique", a.RunID, b.RunID)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
