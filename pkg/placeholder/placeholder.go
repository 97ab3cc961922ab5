// Package placeholder implements the two-pass substitution of diagrams.
//
// The first pass replaces each diagram definition with a placeholder tag
// recording where its artifact will be. After the render queue has run, the
// second pass replaces every placeholder with a Markdown image reference or
// the inline SVG markup of the artifact:
//
//	<_structurizr file="/cache/3f2a.svg" inline="true" caption="Context"></_structurizr>
//
// Attribute values are HTML-escaped, line breaks included, so a placeholder
// always fits on one line and never contains a diagram marker at the start
// of a line or a closing diagram tag.
package placeholder

import (
	"context"
	"html"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/config"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/source"
)

// TagName is the element name of placeholders.
const TagName = "_structurizr"

// InlineFormat is the only artifact format that can be embedded as markup.
const InlineFormat = "svg"

// Tag is the decoded form of a placeholder.
type Tag struct {
	File    string // artifact path; empty for direct diagrams
	Inline  bool   // embed the artifact text instead of referencing it
	Caption string
	Content string // diagram source of a direct (non-cached) diagram
}

// Direct reports whether the tag carries its diagram source instead of an
// artifact reference.
func (t Tag) Direct() bool { return t.File == "" }

// Inline reports whether a diagram with the given artifact format and
// options is embedded rather than referenced.
func Inline(format string, opts config.Options) bool {
	if format != InlineFormat {
		return false
	}
	asImage, err := opts.AsImage()
	return err == nil && !asImage
}

var escaper = strings.NewReplacer("\r", "&#13;", "\n", "&#10;")

func escape(s string) string {
	return escaper.Replace(html.EscapeString(s))
}

// Emit renders a placeholder tag.
func Emit(t Tag) string {
	var b strings.Builder
	b.WriteString("<" + TagName)
	if t.Direct() {
		b.WriteString(` content="` + escape(t.Content) + `"`)
	} else {
		b.WriteString(` file="` + escape(t.File) + `"`)
		b.WriteString(` inline="` + strconv.FormatBool(t.Inline) + `"`)
	}
	b.WriteString(` caption="` + escape(t.Caption) + `"`)
	b.WriteString("></" + TagName + ">")
	return b.String()
}

var attrRe = regexp.MustCompile(`([A-Za-z_]+)="([^"]*)"`)

// Finder locates placeholder tags.
func Finder() *source.Finder {
	return source.TagFinder(TagName)
}

// Parse decodes a placeholder located by [Finder].
func Parse(m source.Match) Tag {
	var t Tag
	for _, kv := range attrRe.FindAllStringSubmatch(m.Group("options"), -1) {
		v := html.UnescapeString(kv[2])
		switch kv[1] {
		case "file":
			t.File = v
		case "inline":
			t.Inline, _ = strconv.ParseBool(v)
		case "caption":
			t.Caption = v
		case "content":
			t.Content = v
		}
	}
	return t
}

// Resolver produces the final Markdown for placeholders.
type Resolver struct {
	store cache.Store
}

// NewResolver creates a resolver reading artifacts from store.
func NewResolver(store cache.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the replacement text for a placeholder.
//
// A direct diagram becomes a fenced block of its source followed by the
// caption. A missing artifact yields "" and a MISSING_ARTIFACT error; the
// caller is expected to warn and keep going.
func (r *Resolver) Resolve(ctx context.Context, t Tag) (string, error) {
	if t.Direct() {
		return "```mermaid\n" + t.Content + "\n```\n\n" + t.Caption, nil
	}

	if !r.store.Exists(ctx, t.File) {
		return "", errors.New(errors.ErrCodeMissingArtifact, "diagram %s was not generated, skipping", t.File)
	}

	if t.Inline {
		data, err := r.store.Read(ctx, t.File)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeMissingArtifact, err, "read %s", t.File)
		}
		out := "<div>" + string(data) + "</div>"
		if t.Caption != "" {
			out += "\n\n" + t.Caption
		}
		return out, nil
	}

	path, err := filepath.Abs(t.File)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "absolute path of %s", t.File)
	}
	return "![" + t.Caption + "](" + filepath.ToSlash(path) + ")", nil
}
