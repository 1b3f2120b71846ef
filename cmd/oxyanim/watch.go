package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine"
	"github.com/Carmen-Shannon/oxy-anim/engine/coordinator"
	"github.com/Carmen-Shannon/oxy-anim/engine/definition"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	debounce time.Duration
	limit    time.Duration
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [animation]...",
		Short: "Play animations and hot-reload their definitions as files change",
		Long: `Loads the definitions directory, plays the named animations in real time and watches the
directory. A changed definition replaces the playing instance; a removed one is detached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, opts, args)
		},
	}
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 100*time.Millisecond, "Quiet period before a changed file is reloaded")
	cmd.Flags().DurationVar(&opts.limit, "for", 0, "Stop after this long (0 runs until interrupted)")
	return cmd
}

func runWatch(cmd *cobra.Command, root *rootOptions, opts *watchOptions, args []string) error {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cfg)
	if err != nil {
		return err
	}

	prof := profiler.NewProfiler(profiler.WithLogger(logger))
	c, insts, err := attachAll(lib, args, 1,
		coordinator.WithLogger(logger),
		coordinator.WithProfiler(prof),
	)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		inst.SetLoop(true)
		inst.Start()
	}

	watcher, err := definition.NewWatcher(lib, []string{cfg.Definitions},
		definition.WithLogger(logger),
		definition.WithDebounce(opts.debounce),
	)
	if err != nil {
		return err
	}
	defer watcher.Close()

	eng := engine.NewEngine(
		engine.WithTickRate(cfg.TickRate),
		engine.WithWorkers(cfg.Workers, cfg.QueueSize, cfg.IdleTimeout),
		engine.WithLogger(logger),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Profiling),
		engine.WithCoordinators(c),
	)
	if cfg.MetricsAddr != "" {
		stop := serveInspect(cfg, eng, logger)
		defer stop()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if opts.limit > 0 {
		var cancelLimit context.CancelFunc
		ctx, cancelLimit = context.WithTimeout(ctx, opts.limit)
		defer cancelLimit()
	}

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	out := cmd.OutOrStdout()
	events, errs := watcher.Events, watcher.Errors
	for {
		select {
		case err := <-runErr:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(out, "error: %v\n", err)
		case change, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			eng.Do(func() {
				replace(c, change, out)
			})
		}
	}
}

// replace swaps a playing instance for its reloaded definition, keeping blend and anim time.
func replace(c coordinator.Coordinator, change definition.Change, out io.Writer) {
	if change.Definition == nil {
		fmt.Fprintf(out, "removed %s\n", change.Path)
		for _, inst := range c.Instances() {
			if inst.Definition().Source() == change.Path {
				_ = inst.Detach()
				fmt.Fprintf(out, "detached %s\n", inst.Name())
			}
		}
		return
	}

	def := change.Definition
	fmt.Fprintf(out, "reloaded %s from %s\n", def.Name(), change.Path)
	old, ok := c.FindInstance(def.Name())
	if !ok {
		return
	}
	blend, at := old.Blend(), old.AnimTime()
	if err := old.Detach(); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	inst, err := c.AttachBlended(def, blend, old.Priority())
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	inst.SetCurrentTime(at, true)
	inst.SetLoop(true)
	inst.Start()
}
