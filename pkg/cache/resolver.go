// Package cache maps diagrams to content-addressed artifact paths.
//
// An artifact is identified by the renderer command line and the raw
// diagram body:
//
//	hash = SHA-256(fmt.Sprintf("%q", args) + rawBody)
//	path = <root>/<hash>.<format>
//
// The existence of that file is the only cache test. Nothing is checked for
// freshness because the hash already covers everything that influences the
// output.
//
// Known limitations: two processes sharing a cache directory are not
// coordinated, and bodies that differ only in ways that hash identically
// share an artifact.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/dslstructurizr/pkg/config"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
	"github.com/matzehuels/dslstructurizr/pkg/source"
)

// FormatPrefix marks a renderer flag that selects the output format,
// e.g. "tsvg" or "tplantuml".
const FormatPrefix = "t"

// Request is one pending render: the renderer command line, the parsed
// diagram source fed to it and the artifact path its output goes to.
type Request struct {
	Args        []string
	Source      string
	Destination string
	Format      string
	Hash        string
}

// Signature identifies the render configuration of the request. Requests
// with equal signatures are rendered by the same renderer invocation.
func (r Request) Signature() string {
	return Signature(r.Args)
}

// Signature serializes a renderer command line into a queue key. Every
// argument is quoted, so "--a" "1 --b 2" and "--a" "1" "--b" "2" differ.
func Signature(args []string) string {
	return fmt.Sprintf("%q", args)
}

// CommandLine joins args for display. Unlike Signature it is lossy and must
// not be used to compare command lines.
func CommandLine(args []string) string {
	return strings.Join(args, " ")
}

// DiagramFormat returns the effective output format.
//
// A "params" key starting with [FormatPrefix] (case-insensitively) overrides
// the "format" option with the rest of its name. Keys are examined in sorted
// order, so when several match the last one in sorted order wins.
func DiagramFormat(opts config.Options) (string, error) {
	params, err := opts.Params()
	if err != nil {
		return "", err
	}
	format := ""
	for _, key := range slices.Sorted(maps.Keys(params)) {
		if isFormatKey(key) {
			format = key[len(FormatPrefix):]
		}
	}
	if format == "" {
		format = opts.Format()
	}
	return format, nil
}

// Args builds the renderer command line for opts: the tool path followed by
// one flag per parameter, sorted by name. Format flags from "params" are
// replaced by a single flag for the effective format. True values become bare
// flags, false values are dropped and other scalars are passed as a value.
// Empty, list and mapping values are a CONFIG_ERROR.
func Args(opts config.Options) ([]string, error) {
	params, err := opts.Params()
	if err != nil {
		return nil, err
	}
	format, err := DiagramFormat(opts)
	if err != nil {
		return nil, err
	}
	if err := errors.ValidateFormat(format); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "diagram format")
	}

	flags := make(map[string]any, len(params)+1)
	for k, v := range params {
		if isFormatKey(k) {
			continue
		}
		if err := errors.ValidateParamName(k); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "params")
		}
		flags[k] = v
	}
	flags[FormatPrefix+format] = true

	args := []string{opts.ToolPath()}
	for _, name := range slices.Sorted(maps.Keys(flags)) {
		switch v := flags[name].(type) {
		case bool:
			if v {
				args = append(args, "--"+name)
			}
		case string, int, int64, uint64, float64:
			args = append(args, "--"+name, fmt.Sprint(v))
		case nil:
			return nil, errors.New(errors.ErrCodeConfig, "param %q has no value", name)
		default:
			return nil, errors.New(errors.ErrCodeConfig, "param %q should be a string, number or boolean, got %T", name, v)
		}
	}
	return args, nil
}

// Resolver turns diagram options and bodies into render requests.
type Resolver struct {
	// Root is the cache directory artifacts are placed in.
	Root string
}

// NewResolver creates a resolver rooted at dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{Root: dir}
}

// Resolve computes the render request for a raw diagram body.
//
// The destination is derived from the raw body, not the parsed source, so
// any edit to the block invalidates the artifact. Resolve fails with a
// PARSE_ERROR when the body has no !START:/!END pair and with a CONFIG_ERROR
// when the options are malformed.
func (r *Resolver) Resolve(opts config.Options, rawBody string) (Request, error) {
	src, ok := source.ParseSource(rawBody)
	if !ok {
		return Request{}, errors.New(errors.ErrCodeParse, "cannot parse diagram body. Have you forgotten !START: or !END?")
	}

	args, err := Args(opts)
	if err != nil {
		return Request{}, err
	}
	format, err := DiagramFormat(opts)
	if err != nil {
		return Request{}, err
	}

	hash := Key(args, rawBody)
	return Request{
		Args:        args,
		Source:      src,
		Destination: filepath.Join(r.Root, hash+"."+format),
		Format:      format,
		Hash:        hash,
	}, nil
}

// Key hashes a renderer command line together with a raw diagram body into
// 64 lowercase hex characters.
func Key(args []string, rawBody string) string {
	sum := sha256.Sum256([]byte(Signature(args) + rawBody))
	return hex.EncodeToString(sum[:])
}

// DebugPath returns the sibling file holding the raw diagram body of an
// artifact.
func DebugPath(artifact string) string {
	return strings.TrimSuffix(artifact, filepath.Ext(artifact)) + ".diag"
}

func isFormatKey(key string) bool {
	return strings.HasPrefix(strings.ToLower(key), FormatPrefix)
}
