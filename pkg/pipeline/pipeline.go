// Package pipeline runs the diagram preprocessor over a set of documents.
//
// This package implements the complete extract → render → substitute flow
// so that the CLI and any other caller share the same behavior.
//
// # Architecture
//
// A build consists of three stages:
//
//  1. Process: every diagram block is resolved to a cache artifact, queued
//     for rendering on a miss and replaced with a placeholder tag
//  2. Render: the queue is drained and each group of diagrams sharing a
//     command line is rendered with one invocation of the renderer
//  3. Replace: every placeholder becomes an image reference or inline markup
//
// All documents go through stage 1 before anything is rendered, so diagrams
// from different files end up in the same renderer invocation.
//
// # Usage
//
//	store, _ := cache.NewFileStore(".diagramscache/structurizr")
//	runner := pipeline.NewRunner(store, nil, config.Layers{config.Defaults()}, logger)
//	stats, err := runner.Apply(ctx, pipeline.NewDirDocuments("src", "out"))
//
// Or drive the stages by hand:
//
//	text = runner.ProcessText(ctx, text)
//	_, _ = runner.ExecuteQueue(ctx)
//	text = runner.ReplaceText(ctx, text)
//
// Diagram-level problems (a block without markers, malformed options, a
// diagram the renderer rejected, an artifact that was never produced) are
// reported as warnings and the affected diagram is dropped from the output.
// They never abort a build.
package pipeline

import "fmt"

// TagName is the element name of diagram blocks.
const TagName = "structurizr"

// Stats counts what a build did.
type Stats struct {
	Files    int // documents processed
	Diagrams int // diagram blocks found
	Hits     int // diagrams whose artifact already existed
	Queued   int // diagrams sent to the renderer
	Groups   int // renderer invocations
	Written  int // artifacts written
	Warnings int // diagrams dropped or rejected
}

func (s Stats) String() string {
	return fmt.Sprintf("%d files, %d diagrams (%d cached, %d rendered in %d batches), %d warnings",
		s.Files, s.Diagrams, s.Hits, s.Written, s.Groups, s.Warnings)
}
