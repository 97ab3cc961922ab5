package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/config"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/observability"
	"github.com/matzehuels/dslstructurizr/pkg/render"
	"github.com/matzehuels/dslstructurizr/pkg/source"
)

// Runner holds the state of one build: the render queue filled by the first
// pass and drained before the second.
//
// A Runner is not safe for concurrent use. Construct a new one, or call
// Reset, for every build.
type Runner struct {
	Store    cache.Store
	Executor render.Executor
	Layers   config.Layers
	Logger   *log.Logger

	// OnWarning, if set, is called for every diagram-level problem in
	// addition to logging it.
	OnWarning func(error)

	// RunID tags every log line of the build.
	RunID string

	tagFinder *source.Finder
	rawFinder *source.Finder
	queue     *render.Queue
	queued    map[string]bool
	stats     Stats
}

// NewRunner creates a runner writing artifacts to store.
// If exec is nil, the renderer is run as a subprocess.
// If logger is nil, log.Default() is used.
func NewRunner(store cache.Store, exec render.Executor, layers config.Layers, logger *log.Logger) *Runner {
	if exec == nil {
		exec = render.NewExecExecutor()
	}
	if logger == nil {
		logger = log.Default()
	}
	if len(layers) == 0 {
		layers = config.Layers{config.Defaults()}
	}
	id := uuid.NewString()
	r := &Runner{
		Store:     store,
		Executor:  exec,
		Layers:    layers,
		Logger:    logger.With("run", id[:8]),
		RunID:     id,
		tagFinder: source.TagFinder(TagName),
		rawFinder: source.RawFinder(),
	}
	r.Reset()
	return r
}

// Reset discards queued renders and counters.
func (r *Runner) Reset() {
	r.queue = render.NewQueue()
	r.queued = make(map[string]bool)
	r.stats = Stats{}
}

// Stats returns the counters of the current build.
func (r *Runner) Stats() Stats { return r.stats }

// Queue exposes the pending renders.
func (r *Runner) Queue() *render.Queue { return r.queue }

// Apply runs a complete build over docs: the first pass over every
// document, one render of the whole queue, then the second pass. Only I/O
// failures and cancellation are returned as errors.
func (r *Runner) Apply(ctx context.Context, docs Documents) (Stats, error) {
	start := time.Now()

	paths, err := docs.Paths()
	if err != nil {
		return r.stats, err
	}

	texts := make([]string, len(paths))
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return r.stats, err
		}
		text, err := docs.Read(p)
		if err != nil {
			return r.stats, err
		}
		r.Logger.Debug("processing document", "path", p)
		texts[i] = r.ProcessText(ctx, text)
	}
	r.stats.Files = len(paths)

	if _, err := r.ExecuteQueue(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return r.stats, ctxErr
		}
		// Failed groups were warned about; their placeholders resolve to "".
	}

	for i, p := range paths {
		if err := docs.Write(p, r.ReplaceText(ctx, texts[i])); err != nil {
			return r.stats, err
		}
	}

	r.Logger.Info("preprocessor applied",
		"files", r.stats.Files,
		"diagrams", r.stats.Diagrams,
		"rendered", r.stats.Written,
		"warnings", r.stats.Warnings,
		"duration", time.Since(start))
	return r.stats, nil
}

// ExecuteQueue renders everything queued by ProcessText. The returned error
// joins the failed groups; each of them has already been reported as a
// warning.
func (r *Runner) ExecuteQueue(ctx context.Context) (render.Report, error) {
	r.stats.Queued = r.queue.Len()
	groups, err := r.queue.Drain()
	if err != nil {
		return render.Report{}, err
	}
	if len(groups) == 0 {
		r.Logger.Debug("nothing to render")
		return render.Report{}, nil
	}

	r.Logger.Info("rendering diagrams", "diagrams", r.stats.Queued, "batches", len(groups))
	report := render.NewBatchRenderer(r.Executor, r.Store, r.Logger).Render(ctx, groups)

	for _, w := range report.Warnings {
		r.warn(w)
	}
	for _, f := range report.Failed {
		r.warn(f)
	}
	r.stats.Groups += report.Groups
	r.stats.Written += len(report.Written)
	return report, report.Err()
}

func (r *Runner) warn(err error) {
	r.stats.Warnings++
	r.Logger.Warn(errors.UserMessage(err), "code", errors.GetCode(err))
	if r.OnWarning != nil {
		r.OnWarning(err)
	}
}

func (r *Runner) hit(ctx context.Context, path string) bool {
	if r.Store.Hit(ctx, path) {
		observability.Cache().OnCacheHit(ctx, path)
		return true
	}
	observability.Cache().OnCacheMiss(ctx, path)
	return false
}
