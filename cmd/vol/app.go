// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/internal/config"
	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/internal/presenter"
	"github.com/pluttan/volumes/internal/runtime"
)

const logPrefix = "vol"

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root of the CLI layer: every command handler receives it and reaches
	// configuration, output streams and the logger through it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
		env    []string
		// configDir overrides the user config directory lookup.
		configDir string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
		// Env is the base environment of steps. Nil means the host environment.
		Env []string
		// ConfigDir replaces the platform config directory. Empty means
		// config.ConfigDir().
		ConfigDir string
	}
)

// NewApp creates the CLI composition root.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	logger := log.NewWithOptions(deps.Stderr, log.Options{
		Prefix: logPrefix,
		Level:  log.WarnLevel,
	})

	return &App{
		Config:    deps.Config,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		logger:    logger,
		env:       deps.Env,
		configDir: deps.ConfigDir,
	}
}

// orchestrator builds the run orchestrator for one invocation.
func (a *App) orchestrator(flags *rootFlags) *execute.Orchestrator {
	return execute.New(execute.Options{
		Provider: a.Config,
		Config:   a.loadOptions(flags),
		Logger:   a.logger,
		Env:      a.env,
		Presenter: func(cfg *config.Config) runtime.Presenter {
			return presenter.New(a.stdout, cfg, presenter.WithLive(!flags.noLive))
		},
	})
}

// loadOptions returns the configuration inputs selected by flags.
func (a *App) loadOptions(flags *rootFlags) config.LoadOptions {
	opts := config.LoadOptions{
		ConfigFilePath: flags.configFile,
		ConfigDirPath:  a.configDir,
	}
	if flags.verbose {
		opts.Overrides = map[string]any{"verbose": true}
	}
	return opts
}

// request builds the execute request for target.
func request(flags *rootFlags, target string, overrides expr.Vars) execute.Request {
	return execute.Request{
		Target:     target,
		Overrides:  overrides,
		TablePath:  flags.tablePath,
		RecipePath: flags.recipePath,
	}
}
