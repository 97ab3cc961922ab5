package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered diagram cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// configuredCacheDir resolves the cache directory of the project in the
// directory given as the first argument, or the working directory.
func (c *CLI) configuredCacheDir(args []string) (string, error) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	layers, err := c.loadLayers(dir)
	if err != nil {
		return "", err
	}
	return cacheRoot(dir, layers.Resolve())
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "clear [dir]",
		Short:             "Remove all rendered diagrams and their sources",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSourceDir,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.configuredCacheDir(args)
			if err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			store, err := cache.NewFileStore(dir)
			if err != nil {
				return err
			}
			count, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached files", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "path [dir]",
		Short:             "Print the cache directory path",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSourceDir,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.configuredCacheDir(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
