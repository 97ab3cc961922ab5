package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dslstructurizr/pkg/config"
)

// registerRootFlags adds the flags shared by every command. --verbose is
// registered by main because it has to be applied before the logger is used.
func (c *CLI) registerRootFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "",
		"configuration file, TOML or HCL (default: "+config.DefaultFileName+" in the source directory)")
	_ = root.MarkPersistentFlagFilename("config", "toml", "hcl")
}

// loadLayers returns the option layers for a build of dir: the defaults and
// the project configuration file, followed by any overrides.
//
// An explicit --config file must exist. The default file is optional.
func (c *CLI) loadLayers(dir string, overrides ...config.Layer) (config.Layers, error) {
	layers := config.Layers{config.Defaults()}

	if c.configPath != "" {
		layer, err := config.LoadFile(c.configPath)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("loaded configuration", "path", c.configPath)
		layers = layers.With(layer)
	} else if path, found := config.FindProjectFile(dir); found {
		layer, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("loaded configuration", "path", path)
		layers = layers.With(layer)
	}

	for _, o := range overrides {
		if len(o.Values) > 0 {
			layers = layers.With(o)
		}
	}

	if err := layers.Resolve().Validate(); err != nil {
		return nil, err
	}
	return layers, nil
}
