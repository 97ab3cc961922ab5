package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/observability"
)

// PipeDelimiter separates diagram outputs in pipe mode.
const PipeDelimiter = "_~_diagram_sep_~_"

// errorPrefix marks a diagram the renderer could not produce.
const errorPrefix = "ERROR"

// PipeArgs returns the flags that switch the renderer into pipe mode.
func PipeArgs() []string {
	return []string{"--pipe", "--pipeNoStderr", "--pipedelimitor", PipeDelimiter}
}

// GroupError is a failure that affected every diagram of a group.
type GroupError struct {
	Group Group
	Err   error
}

func (e GroupError) Error() string {
	return cache.CommandLine(e.Group.Args) + ": " + e.Err.Error()
}

func (e GroupError) Unwrap() error { return e.Err }

// Report summarizes one Render call.
type Report struct {
	Groups   int
	Written  []string     // artifact paths written, in render order
	Warnings []error      // per diagram: RENDER_ERROR if rejected, PROCESS_ERROR if not stored
	Failed   []GroupError // groups that did not complete
}

// Err joins the group failures, or returns nil when every group ran.
// Per-diagram warnings are not included.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return stderrors.Join(errs...)
}

// BatchRenderer renders queued groups with one renderer invocation each.
type BatchRenderer struct {
	exec   Executor
	store  cache.Store
	logger *log.Logger
}

// NewBatchRenderer creates a renderer writing artifacts to store.
// If logger is nil, log.Default() is used.
func NewBatchRenderer(exec Executor, store cache.Store, logger *log.Logger) *BatchRenderer {
	if logger == nil {
		logger = log.Default()
	}
	return &BatchRenderer{exec: exec, store: store, logger: logger}
}

// Render runs every group in order. Failures are isolated: a rejected or
// unwritable diagram becomes a warning and a failed group is recorded in the
// report, neither stops the remaining work. A group fails as a whole only
// when the renderer cannot be run or its output cannot be matched to the
// diagrams, so a failed group never has written artifacts. Only a cancelled context ends the loop
// early; the groups not yet started are then reported as failed.
func (b *BatchRenderer) Render(ctx context.Context, groups []Group) Report {
	report := Report{Groups: len(groups)}
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			for _, rest := range groups[i:] {
				report.Failed = append(report.Failed, GroupError{Group: rest, Err: err})
			}
			break
		}
		if err := b.renderGroup(ctx, g, &report); err != nil {
			b.logger.Debug("render group failed", "command", cache.CommandLine(g.Args), "diagrams", g.Len(), "err", err)
			report.Failed = append(report.Failed, GroupError{Group: g, Err: err})
		}
	}
	return report
}

func (b *BatchRenderer) renderGroup(ctx context.Context, g Group, report *Report) (err error) {
	start := time.Now()
	observability.Render().OnBatchStart(ctx, g.Args, g.Len())
	defer func() {
		observability.Render().OnBatchComplete(ctx, g.Args, g.Len(), time.Since(start), err)
	}()

	args := append(append([]string{}, g.Args...), PipeArgs()...)
	b.logger.Debug("rendering group", "command", strings.Join(args, " "), "diagrams", g.Len())

	stdin := []byte(strings.Join(g.Sources, "\n\n"))
	out, err := b.exec.Run(ctx, args, stdin)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeProcess, err, "run %s", g.Args[0])
		}
		return err
	}

	segments := SplitOutput(out)
	if len(segments) != g.Len() {
		return errors.New(errors.ErrCodeProcess,
			"renderer returned %d outputs for %d diagrams", len(segments), g.Len())
	}

	for i, seg := range segments {
		content := bytes.TrimSpace(seg)
		if bytes.HasPrefix(content, []byte(errorPrefix)) {
			warn := errors.New(errors.ErrCodeRender, "failed to generate diagram %s:\n%s", g.Destinations[i], content)
			b.logger.Debug("diagram failed", "destination", g.Destinations[i], "output", string(content))
			report.Warnings = append(report.Warnings, warn)
			continue
		}
		if werr := b.store.Write(ctx, g.Destinations[i], content); werr != nil {
			report.Warnings = append(report.Warnings, errors.Wrap(errors.ErrCodeProcess, werr, "write %s", g.Destinations[i]))
			continue
		}
		report.Written = append(report.Written, g.Destinations[i])
	}

	b.logger.Debug("group rendered", "diagrams", g.Len(), "duration", time.Since(start))
	return nil
}

// SplitOutput cuts pipe-mode output into per-diagram segments. The renderer
// terminates every output with the delimiter, so the text after the last
// delimiter is dropped.
func SplitOutput(out []byte) [][]byte {
	parts := bytes.Split(out, []byte(PipeDelimiter))
	return parts[:len(parts)-1]
}
