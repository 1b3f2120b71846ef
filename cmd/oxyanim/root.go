package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-anim/engine/definition"
	"github.com/Carmen-Shannon/oxy-anim/internal/config"
	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	dir        string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "oxyanim",
		Short:         "oxyanim composes and blends animations onto headless targets",
		Long:          `oxyanim loads animation definitions from YAML, attaches them to in-memory targets and drives them with the blending engine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "Directory containing animation definitions (overrides the config)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config)")

	cmd.AddCommand(newSimulateCmd(opts), newDumpCmd(opts), newWatchCmd(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads the config file and applies flag overrides.
func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.dir != "" {
		cfg.Definitions = o.dir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.Level()), nil
}

func loadLibrary(cfg config.Config) (definition.Library, error) {
	lib := definition.NewLibrary()
	if err := lib.LoadDir(cfg.Definitions); err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	return lib, nil
}
