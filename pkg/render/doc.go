// Package render batches diagram renders through the external Structurizr
// tool.
//
// # Overview
//
// Diagrams that miss the cache are collected in a [Queue], grouped by their
// renderer command line. [BatchRenderer] then invokes the renderer once per
// group in pipe mode: every source of the group is written to stdin and the
// renderer answers with one output per diagram, separated by
// [PipeDelimiter].
//
//	q := render.NewQueue()
//	q.Enqueue(req)
//	groups, err := q.Drain()
//	report := render.NewBatchRenderer(render.NewExecExecutor(), store, logger).Render(ctx, groups)
//
// # Failure Isolation
//
// A diagram whose output starts with "ERROR" only produces a warning; the
// other diagrams of the group are still written. A group whose process fails
// or whose output cannot be matched to its sources fails as a whole, but
// the remaining groups still run.
//
// # External Dependencies
//
// The renderer binary must be on PATH or configured via "structurizr_path".
// [ExecExecutor] checks this with exec.LookPath before running anything.
package render
