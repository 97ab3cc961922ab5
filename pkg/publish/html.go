// Package publish renders preprocessed Markdown for preview.
//
// Inline diagrams are raw <div><svg>...</svg></div> markup, so the converter
// runs with unsafe HTML enabled; without it goldmark would drop them.
package publish

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/matzehuels/dslstructurizr/pkg/errors"
)

// Extension is the file extension of rendered pages.
const Extension = ".html"

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// ToHTML converts a Markdown document to an HTML fragment.
func ToHTML(markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert(markdown, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "convert markdown")
	}
	return buf.Bytes(), nil
}

// HTMLPath returns the path of the page rendered from a Markdown file.
func HTMLPath(mdPath string) string {
	return strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + Extension
}
