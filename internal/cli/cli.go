package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dslstructurizr/pkg/buildinfo"
	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/config"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/pipeline"
	"github.com/matzehuels/dslstructurizr/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "dslstructurizr"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Executor runs the renderer. Nil means the real subprocess.
	Executor render.Executor

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Render Structurizr DSL diagrams embedded in Markdown",
		Long: `dslstructurizr finds Structurizr DSL diagrams in Markdown documents, renders
them with the Structurizr CLI and replaces them with image references or
inline SVG. Rendered diagrams are cached by content, and diagrams sharing the
same settings are rendered with a single Structurizr invocation.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			c.Logger.Debug("starting", "version", buildinfo.UserAgent())
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.registerRootFlags(root)

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for the documents below dir. With
// refresh, existing artifacts are ignored and every diagram is rendered again.
func (c *CLI) newRunner(dir string, layers config.Layers, refresh bool) (*pipeline.Runner, error) {
	// The cache usually lives below dir; creating it must not create dir.
	if err := checkSourceDir(dir); err != nil {
		return nil, err
	}
	store, err := newStore(dir, layers.Resolve(), refresh)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, c.Executor, layers, c.Logger), nil
}

func newStore(dir string, opts config.Options, refresh bool) (cache.Store, error) {
	root, err := cacheRoot(dir, opts)
	if err != nil {
		return nil, err
	}
	if refresh {
		return cache.NewNullStore(root)
	}
	return cache.NewFileStore(root)
}

// =============================================================================
// Paths
// =============================================================================

func checkSourceDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "source directory %s", dir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidInput, "%s is not a directory", dir)
	}
	return nil
}

// cacheRoot returns the absolute cache directory of the project in dir. A
// relative cache_dir is taken relative to dir, so every command run on the
// same project agrees on the cache wherever it is started from.
func cacheRoot(dir string, opts config.Options) (string, error) {
	cacheDir := opts.CacheDir()
	if filepath.IsAbs(cacheDir) {
		return cacheDir, nil
	}
	return filepath.Abs(filepath.Join(dir, cacheDir))
}
