package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dslstructurizr/pkg/errors"
)

// DefaultFileName is the project configuration file looked up in the
// documentation root.
const DefaultFileName = "dslstructurizr.toml"

// ProjectFiles lists the configuration file names looked up in the
// documentation root, in order of preference.
var ProjectFiles = []string{DefaultFileName, HCLFileName}

// LoadFile reads a configuration file into an option layer. Files ending in
// .hcl are read as HCL, everything else as TOML.
//
// Top-level keys map directly to option names; a [params] table becomes the
// "params" mapping:
//
//	format = "svg"
//	as_image = false
//
//	[params]
//	tsvg = true
func LoadFile(path string) (Layer, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Layer{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}

	var values map[string]any
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		var err error
		if values, err = loadHCL(path); err != nil {
			return Layer{}, err
		}
	} else if _, err := toml.DecodeFile(path, &values); err != nil {
		return Layer{}, errors.Wrap(errors.ErrCodeConfig, err, "parse config file %s", path)
	}
	if values == nil {
		values = map[string]any{}
	}
	return Layer{Name: "file:" + path, Values: values}, nil
}

// LoadOptional is like LoadFile but returns an empty layer when the file
// does not exist.
func LoadOptional(path string) (Layer, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Layer{Name: "file:" + path, Values: map[string]any{}}, false, nil
	}
	layer, err := LoadFile(path)
	if err != nil {
		return Layer{}, false, err
	}
	return layer, true, nil
}

// FindProjectFile returns the first of [ProjectFiles] present in dir.
func FindProjectFile(dir string) (string, bool) {
	for _, name := range ProjectFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
