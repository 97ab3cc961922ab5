package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/pipeline"
)

// planCommand creates the plan command, a dry run of build that stops
// after the first pass.
func (c *CLI) planCommand() *cobra.Command {
	var globs []string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "plan [dir]",
		Short: "Show which diagrams would be rendered",
		Long: `Scan the Markdown documents below dir and list the renderer invocations a
build would make, one per distinct set of options. Nothing is rendered and no
document is modified.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSourceDir,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runPlan(cmd.Context(), dir, globs, refresh)
		},
	}

	cmd.Flags().StringArrayVar(&globs, "glob", nil, "document pattern, repeatable (default: "+pipeline.DefaultPattern+")")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "plan as if the cache were empty")

	return cmd
}

func (c *CLI) runPlan(ctx context.Context, dir string, globs []string, refresh bool) error {
	layers, err := c.loadLayers(dir)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(dir, layers, refresh)
	if err != nil {
		return err
	}
	runner.OnWarning = func(err error) { printWarning("%s", errors.UserMessage(err)) }

	docs := pipeline.NewDirDocuments(dir, "", globs...)
	paths, err := docs.Paths()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := docs.Read(p)
		if err != nil {
			return err
		}
		runner.ProcessText(ctx, text)
	}

	stats := runner.Stats()
	queued := runner.Queue().Len()
	groups, err := runner.Queue().Drain()
	if err != nil {
		return err
	}

	printInfo("%d documents, %d diagrams", len(paths), stats.Diagrams)
	printKeyValue("cached", fmt.Sprint(stats.Hits))
	printKeyValue("to render", fmt.Sprint(queued))
	printKeyValue("batches", fmt.Sprint(len(groups)))
	for _, g := range groups {
		printNewline()
		printCommand(cache.CommandLine(g.Args), g.Len())
		for _, dst := range g.Destinations {
			printFile(dst)
		}
	}
	if len(groups) > 0 {
		printNewline()
		printNextStep("Render them with", appName+" build "+dir)
	}
	return nil
}
