package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dslstructurizr/pkg/config"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/pipeline"
	"github.com/matzehuels/dslstructurizr/pkg/publish"
)

// buildOpts holds the command-line flags for the build command.
// Option flags only override the configuration when given explicitly.
type buildOpts struct {
	output   string   // output directory (default: rewrite in place)
	globs    []string // document patterns relative to the source directory
	format   string   // base diagram format
	parseRaw bool     // also render untagged !START:/!END blocks
	asImage  bool     // reference SVG diagrams as images instead of inlining
	tool     string   // Structurizr executable
	noCache  bool     // emit diagram sources as fenced blocks, render nothing
	refresh  bool     // ignore existing artifacts
	html     bool     // write an HTML preview next to every document
	quiet    bool     // do not echo warnings
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [dir]",
		Short: "Render diagrams and rewrite Markdown documents",
		Long: `Render every <structurizr> diagram in the Markdown documents below dir
(default: the current directory) and replace it with an image reference or
inline SVG. Diagrams already in the cache are not rendered again.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSourceDir,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runBuild(cmd.Context(), dir, flagLayer(cmd, &opts), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default: rewrite documents in place)")
	cmd.Flags().StringArrayVar(&opts.globs, "glob", nil, "document pattern, repeatable (default: "+pipeline.DefaultPattern+")")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "diagram format: png (default), svg, plantuml, ...")
	cmd.Flags().BoolVar(&opts.parseRaw, "parse-raw", false, "also render untagged !START: ... !END blocks")
	cmd.Flags().BoolVar(&opts.asImage, "as-image", true, "reference SVG diagrams as images instead of inlining them")
	cmd.Flags().StringVar(&opts.tool, "tool", "", "Structurizr executable (default: structurizr)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "emit diagram sources as fenced blocks without rendering")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "render every diagram again, ignoring the cache")
	cmd.Flags().BoolVar(&opts.html, "html", false, "also write an HTML preview of every document")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print diagram warnings")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormat)

	return cmd
}

// flagLayer collects the explicitly set option flags into an option layer.
func flagLayer(cmd *cobra.Command, opts *buildOpts) config.Layer {
	values := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("format") {
		values[config.KeyFormat] = opts.format
	}
	if flags.Changed("parse-raw") {
		values[config.KeyParseRaw] = opts.parseRaw
	}
	if flags.Changed("as-image") {
		values[config.KeyAsImage] = opts.asImage
	}
	if flags.Changed("tool") {
		values[config.KeyToolPath] = opts.tool
	}
	if flags.Changed("no-cache") {
		values[config.KeyUseCache] = !opts.noCache
	}
	return config.Layer{Name: "flags", Values: values}
}

func (c *CLI) runBuild(ctx context.Context, dir string, flags config.Layer, opts *buildOpts) error {
	logger := loggerFromContext(ctx)

	layers, err := c.loadLayers(dir, flags)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(dir, layers, opts.refresh)
	if err != nil {
		return err
	}
	if !opts.quiet {
		runner.OnWarning = func(err error) { printWarning("%s", errors.UserMessage(err)) }
	}

	docs := pipeline.NewDirDocuments(dir, opts.output, opts.globs...)

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Rendering diagrams...")
	if opts.quiet {
		// echoed warnings would be overwritten by the spinner line
		spinner.Start()
	}
	stats, err := runner.Apply(ctx, docs)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
		} else {
			spinner.StopWithError("Build failed")
		}
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Processed %d documents", stats.Files))

	if opts.html {
		if err := writeHTML(docs); err != nil {
			return err
		}
	}

	printBuildSummary(stats, docs.Output, runner.Store.Root())
	return nil
}

// writeHTML renders an HTML preview of every processed document.
func writeHTML(docs *pipeline.DirDocuments) error {
	paths, err := docs.Paths()
	if err != nil {
		return err
	}
	for _, p := range paths {
		src := docs.OutputPath(p)
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		page, err := publish.ToHTML(data)
		if err != nil {
			return err
		}
		if err := os.WriteFile(publish.HTMLPath(src), page, 0644); err != nil {
			return err
		}
	}
	return nil
}

func printBuildSummary(stats pipeline.Stats, output, cacheDir string) {
	if stats.Warnings > 0 {
		printWarning("Built %d documents with %d warnings", stats.Files, stats.Warnings)
	} else {
		printSuccess("Built %d documents", stats.Files)
	}
	printStats(stats)
	printFile(output)
	printDetail("Cache: %s", cacheDir)
}
