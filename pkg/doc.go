// Package pkg provides the libraries behind dslstructurizr, a Markdown
// preprocessor that renders embedded Structurizr DSL diagrams.
//
// # Overview
//
// Documents carry diagrams between <structurizr> tags (or, optionally, as
// bare !START: ... !END blocks). A run rewrites every document in two passes:
//
//	Markdown documents
//	         ↓
//	    [source] + [config]   find diagram blocks, merge options
//	         ↓
//	    [cache]               hash options and body into an artifact path
//	         ↓
//	    [render]              batch uncached diagrams per argv over a pipe
//	         ↓
//	    [placeholder]         swap placeholders for image refs or inline SVG
//	         ↓
//	    Markdown documents (and optional [publish] HTML previews)
//
// [pipeline] ties the passes together and is what the CLI calls.
//
// # Quick Start
//
//	store, _ := cache.NewFileStore(".structurizr-cache")
//	runner := pipeline.NewRunner(store, nil, nil, nil)
//	docs := pipeline.NewDirDocuments("docs", "")
//	stats, err := runner.Apply(ctx, docs)
//
// # Packages
//
// [config] - Option layers (defaults, dslstructurizr.toml, flags, tag
// attributes) resolved into a single option set.
//
// [source] - Block finders for tagged and raw diagram sources.
//
// [cache] - Argv construction, content-addressed artifact paths and the
// filesystem store.
//
// [render] - Render queue grouped by argv and the batch renderer that drives
// the external tool.
//
// [placeholder] - Intermediate placeholder tags and their final replacement.
//
// [publish] - HTML previews of processed documents.
//
// [errors] - Error codes shared by every package.
//
// [observability] - Hooks for cache and render events.
//
// [buildinfo] - Version information.
package pkg
