package pipeline

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/dslstructurizr/pkg/errors"
)

// DefaultPattern selects the documents of a source tree.
const DefaultPattern = "**/*.md"

// Documents is the set of texts a build runs over. Paths are opaque to the
// runner and only passed back to Read and Write.
type Documents interface {
	Paths() ([]string, error)
	Read(path string) (string, error)
	Write(path, text string) error
}

// DirDocuments is a directory tree of Markdown files. Documents are read
// from Root and written to the same relative path under Output, which may
// equal Root for an in-place build.
type DirDocuments struct {
	Root     string
	Output   string
	Patterns []string
}

// NewDirDocuments creates a document set. An empty output builds in place
// and no patterns select DefaultPattern.
func NewDirDocuments(root, output string, patterns ...string) *DirDocuments {
	if output == "" {
		output = root
	}
	patterns = slices.DeleteFunc(slices.Clone(patterns), func(p string) bool { return p == "" })
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	return &DirDocuments{Root: root, Output: output, Patterns: patterns}
}

// Paths returns the slash-separated paths below Root matching any of the
// patterns, in lexical order and without duplicates.
func (d *DirDocuments) Paths() ([]string, error) {
	for _, p := range d.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid glob pattern %q", p)
		}
	}
	info, err := os.Stat(d.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "source directory %s", d.Root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is not a directory", d.Root)
	}

	fsys := os.DirFS(d.Root)
	var matches []string
	for _, p := range d.Patterns {
		m, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "glob %q", p)
		}
		matches = append(matches, m...)
	}
	slices.Sort(matches)
	return slices.Compact(matches), nil
}

// Read returns the document at path relative to Root.
func (d *DirDocuments) Read(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(d.Root, filepath.FromSlash(path)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write stores the document at path relative to Output.
func (d *DirDocuments) Write(path, text string) error {
	dst := d.OutputPath(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte(text), 0644)
}

// OutputPath returns where the document at path is written.
func (d *DirDocuments) OutputPath(path string) string {
	return filepath.Join(d.Output, filepath.FromSlash(path))
}

// Ensure DirDocuments implements Documents.
var _ Documents = (*DirDocuments)(nil)
