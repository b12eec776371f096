// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// Layer is a settings map contributed by a task document.
	Layer struct {
		// Source names the origin in error messages, e.g. "vol.toml [config]".
		Source string
		Values map[string]any
	}

	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath string
		// Layers are merged in order above the user config file.
		Layers []Layer
		// Overrides win over every other source, environment included.
		Overrides map[string]any
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
		// Path reports the user config file the last successful Load read, or "".
		Path() string
	}

	fileProvider struct {
		path string
	}
)

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	p.path = path

	return cfg, nil
}

func (p *fileProvider) Path() string { return p.path }

// WithLayer returns a copy of opts with layer appended.
func (opts LoadOptions) WithLayer(source string, values map[string]any) LoadOptions {
	out := opts
	out.Layers = append(append([]Layer(nil), opts.Layers...), Layer{Source: source, Values: values})
	return out
}
