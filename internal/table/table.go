// SPDX-License-Identifier: MPL-2.0

package table

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pluttan/volumes/pkg/taskgraph"
)

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"

	// DefaultPath is the task table used when none is selected.
	DefaultPath = "vol.toml"
)

// configSections hold settings rather than tasks, in order of preference.
var configSections = []string{"config", "settings"}

type (
	// Format is a task table encoding.
	Format string

	// Document is a parsed task table.
	Document struct {
		Graph *taskgraph.Graph
		// Config is the [config] (or [settings]) section, nil when absent.
		Config map[string]any
		Format Format
	}

	// Option configures parsing.
	Option func(*options)

	options struct {
		env []string
	}
)

// WithEnv sets the KEY=value pairs exposed to HCL expressions as env.KEY.
// Without it the process environment is used.
func WithEnv(env []string) Option {
	return func(o *options) { o.env = env }
}

// FormatFor infers the table format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", &taskgraph.MalformedRecipeError{
			Path:   path,
			Reason: fmt.Sprintf("unsupported task table extension %q (use .toml, .yaml, .yml or .hcl)", filepath.Ext(path)),
		}
	}
}

// ParseFile reads and parses the task table at path.
func ParseFile(path string, opts ...Option) (*Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, bytes.NewReader(data), format, opts...)
}

// Parse parses a task table read from r. path is used for error messages and
// as the graph's source path.
func Parse(path string, r io.Reader, format Format, opts ...Option) (*Document, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.env == nil {
		o.env = os.Environ()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatTOML:
		return parseTOML(path, data)
	case FormatYAML:
		return parseYAML(path, data)
	case FormatHCL:
		return parseHCL(path, data, o.env)
	default:
		return nil, &taskgraph.MalformedRecipeError{Path: path, Reason: fmt.Sprintf("unsupported task table format %q", format)}
	}
}

func isConfigSection(name string) bool {
	return slices.Contains(configSections, name)
}

// pickConfig returns the first config section present in sections.
func pickConfig(sections map[string]map[string]any) map[string]any {
	for _, s := range configSections {
		if cfg, ok := sections[s]; ok {
			return cfg
		}
	}
	return nil
}
