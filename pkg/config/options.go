// Package config resolves the options that drive diagram rendering.
//
// Options come from several layers with increasing precedence:
//
//  1. [Defaults] (built in)
//  2. the project configuration file (TOML or HCL, see [LoadFile])
//  3. command-line overrides
//  4. attributes of the individual <structurizr> tag (see [ParseAttributes])
//
// A [Layers] value is resolved once per diagram into a flat, immutable
// [Options] value. Later layers override earlier ones key by key; mappings
// such as "params" are replaced, not merged.
package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/dslstructurizr/pkg/errors"
)

// Recognized option keys.
const (
	KeyCacheDir = "cache_dir"
	KeyToolPath = "structurizr_path"
	KeyFormat   = "format"
	KeyAsImage  = "as_image"
	KeyParseRaw = "parse_raw"
	KeyParams   = "params"
	KeyCaption  = "caption"
	KeyUseCache = "use_cache"
)

// Default values.
const (
	DefaultCacheDir = ".diagramscache/structurizr"
	DefaultToolPath = "structurizr"
	DefaultFormat   = "png"
)

// Layer is one named source of option values.
type Layer struct {
	Name   string
	Values map[string]any
}

// Defaults returns the built-in option layer.
func Defaults() Layer {
	return Layer{
		Name: "defaults",
		Values: map[string]any{
			KeyCacheDir: DefaultCacheDir,
			KeyToolPath: DefaultToolPath,
			KeyFormat:   DefaultFormat,
			KeyAsImage:  true,
			KeyParseRaw: false,
			KeyParams:   map[string]any{},
			KeyUseCache: true,
		},
	}
}

// Layers is an ordered list of option layers, lowest precedence first.
type Layers []Layer

// With returns a copy of l with layer appended as the highest precedence.
func (l Layers) With(layer Layer) Layers {
	out := make(Layers, 0, len(l)+1)
	out = append(out, l...)
	return append(out, layer)
}

// Resolve flattens the layers into a single Options value.
func (l Layers) Resolve() Options {
	values := make(map[string]any)
	for _, layer := range l {
		for k, v := range layer.Values {
			values[k] = v
		}
	}
	return Options{values: values}
}

// Options is a resolved, read-only set of option values.
type Options struct {
	values map[string]any
}

// NewOptions builds Options directly from a map. The map is copied.
func NewOptions(values map[string]any) Options {
	return Options{values: maps.Clone(values)}
}

// Get returns the raw value for key.
func (o Options) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the option names in sorted order.
func (o Options) Keys() []string {
	return slices.Sorted(maps.Keys(o.values))
}

// String returns the value for key formatted as a string, or "" if unset.
func (o Options) String(key string) string {
	v, ok := o.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the boolean value for key. Strings such as "true", "no" or
// "0" are accepted because tag attributes and CLI flags arrive as text.
func (o Options) Bool(key string) (bool, error) {
	v, ok := o.values[key]
	if !ok || v == nil {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeConfig, err, "option %q", key)
	}
	return b, nil
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case int64:
		return t != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0", "":
			return false, nil
		}
		return strconv.ParseBool(t)
	}
	return false, fmt.Errorf("expected a boolean, got %T", v)
}

// Format returns the base output format (before "params" overrides).
func (o Options) Format() string {
	if f := o.String(KeyFormat); f != "" {
		return f
	}
	return DefaultFormat
}

// CacheDir returns the configured cache directory (possibly relative).
func (o Options) CacheDir() string {
	if d := o.String(KeyCacheDir); d != "" {
		return d
	}
	return DefaultCacheDir
}

// ToolPath returns the renderer executable.
func (o Options) ToolPath() string {
	if p := o.String(KeyToolPath); p != "" {
		return p
	}
	return DefaultToolPath
}

// Caption returns the per-diagram caption.
func (o Options) Caption() string { return o.String(KeyCaption) }

// AsImage reports whether inline-capable formats must still be referenced
// as images. Unset means true.
func (o Options) AsImage() (bool, error) {
	if _, ok := o.values[KeyAsImage]; !ok {
		return true, nil
	}
	return o.Bool(KeyAsImage)
}

// ParseRaw reports whether untagged !START:/!END blocks are recognized.
func (o Options) ParseRaw() (bool, error) { return o.Bool(KeyParseRaw) }

// UseCache reports whether artifacts are rendered into the cache. When false
// the diagram source is passed through as a fenced block. Unset means true.
func (o Options) UseCache() (bool, error) {
	if _, ok := o.values[KeyUseCache]; !ok {
		return true, nil
	}
	return o.Bool(KeyUseCache)
}

// Params returns the extra renderer flags. It fails with a CONFIG_ERROR if
// the option is present but is not a mapping.
func (o Options) Params() (map[string]any, error) {
	v, ok := o.values[KeyParams]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	switch m := v.(type) {
	case map[string]any:
		return maps.Clone(m), nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	}
	return nil, errors.New(errors.ErrCodeConfig, `"params" should be a mapping, got %T`, v)
}

// Validate checks the options that every diagram depends on.
func (o Options) Validate() error {
	if err := errors.ValidateFormat(o.Format()); err != nil {
		return err
	}
	for _, key := range []string{KeyAsImage, KeyParseRaw, KeyUseCache} {
		if _, err := o.Bool(key); err != nil {
			return err
		}
	}
	params, err := o.Params()
	if err != nil {
		return err
	}
	for name := range params {
		if err := errors.ValidateParamName(name); err != nil {
			return err
		}
	}
	return nil
}
