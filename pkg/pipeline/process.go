package pipeline

import (
	"context"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/config"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/placeholder"
	"github.com/matzehuels/dslstructurizr/pkg/source"
)

// ProcessText is the first pass. Every <structurizr> block, and with
// parse_raw every untagged !START:/!END block, is replaced by a placeholder.
// Diagrams without an artifact are queued for rendering.
//
// Tagged blocks take their options from the configuration overridden by the
// tag attributes. Raw blocks only see the configuration.
func (r *Runner) ProcessText(ctx context.Context, text string) string {
	text = r.tagFinder.Replace(text, func(m source.Match) string {
		layers := r.Layers.With(config.TagLayer(m.Group("options")))
		return r.processDiagram(ctx, layers.Resolve(), m.Group("body"))
	})

	base := r.Layers.Resolve()
	parseRaw, err := base.ParseRaw()
	if err != nil {
		r.warn(err)
		return text
	}
	if !parseRaw {
		return text
	}
	return r.rawFinder.Replace(text, func(m source.Match) string {
		return m.Group("spaces") + r.processDiagram(ctx, base, m.Group("body"))
	})
}

// processDiagram turns one diagram body into a placeholder. Diagram-level
// failures are warned about and the diagram is replaced with "".
func (r *Runner) processDiagram(ctx context.Context, opts config.Options, body string) string {
	r.stats.Diagrams++

	if err := opts.Validate(); err != nil {
		r.warn(err)
		return ""
	}

	useCache, err := opts.UseCache()
	if err != nil {
		r.warn(err)
		return ""
	}
	if !useCache {
		src, ok := source.ParseSource(body)
		if !ok {
			r.warn(errors.New(errors.ErrCodeParse, "cannot parse diagram body. Have you forgotten !START: or !END?"))
			return ""
		}
		return placeholder.Emit(placeholder.Tag{Content: src, Caption: opts.Caption()})
	}

	req, err := cache.NewResolver(r.Store.Root()).Resolve(opts, body)
	if err != nil {
		r.warn(err)
		return ""
	}
	r.Logger.Debug("processing diagram", "destination", req.Destination, "command", cache.CommandLine(req.Args))

	switch {
	case r.hit(ctx, req.Destination):
		r.stats.Hits++
		r.Logger.Debug("diagram found in cache", "path", req.Destination)
	case r.queued[req.Destination]:
		r.Logger.Debug("diagram already queued", "path", req.Destination)
	default:
		r.queue.Enqueue(req)
		r.queued[req.Destination] = true
	}

	if err := r.Store.WriteDebug(ctx, req.Destination, body); err != nil {
		r.Logger.Warn("cannot write diagram source", "path", cache.DebugPath(req.Destination), "err", err)
	}

	return placeholder.Emit(placeholder.Tag{
		File:    req.Destination,
		Inline:  placeholder.Inline(req.Format, opts),
		Caption: opts.Caption(),
	})
}

// ReplaceText is the second pass. Every placeholder becomes an image
// reference or inline markup; placeholders whose artifact is missing are
// warned about and removed.
func (r *Runner) ReplaceText(ctx context.Context, text string) string {
	resolver := placeholder.NewResolver(r.Store)
	return placeholder.Finder().Replace(text, func(m source.Match) string {
		out, err := resolver.Resolve(ctx, placeholder.Parse(m))
		if err != nil {
			r.warn(err)
		}
		return out
	})
}
