package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine"
	"github.com/Carmen-Shannon/oxy-anim/engine/coordinator"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/internal/config"
	"github.com/Carmen-Shannon/oxy-anim/internal/inspect"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	duration  float64
	weight    float64
	every     int
	exclusive bool
	realtime  bool
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate <animation>...",
		Short: "Attach animations to a headless scene and print its state over time",
		Long: `Attaches every named animation to one in-memory target, starts them and ticks the engine.
Without --realtime the simulation runs as fast as possible with a fixed step of 1/tick_rate.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, root, opts, args)
		},
	}
	cmd.Flags().Float64Var(&opts.duration, "duration", 2, "Simulated seconds")
	cmd.Flags().Float64Var(&opts.weight, "weight", 1, "Blend weight of every animation")
	cmd.Flags().IntVar(&opts.every, "every", 10, "Print the scene every N ticks")
	cmd.Flags().BoolVar(&opts.exclusive, "exclusive", false, "Play the last animation exclusively, zeroing the others on shared pins")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Tick on the wall clock instead of a fixed step")
	return cmd
}

func runSimulate(cmd *cobra.Command, root *rootOptions, opts *simulateOptions, args []string) error {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cfg)
	if err != nil {
		return err
	}

	prof := profiler.NewProfiler(profiler.WithLogger(logger))
	c, insts, err := attachAll(lib, args, opts.weight,
		coordinator.WithLogger(logger),
		coordinator.WithProfiler(prof),
	)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		inst.Start()
	}
	if opts.exclusive {
		if _, err := c.PlayExclusive(args[len(args)-1]); err != nil {
			return err
		}
	}

	eng := engine.NewEngine(
		engine.WithTickRate(cfg.TickRate),
		engine.WithWorkers(cfg.Workers, cfg.QueueSize, cfg.IdleTimeout),
		engine.WithLogger(logger),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Profiling),
		engine.WithCoordinators(c),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.MetricsAddr != "" {
		stop := serveInspect(cfg, eng, logger)
		defer stop()
	}

	out := cmd.OutOrStdout()
	if err := writeState(out, 0, c.Target()); err != nil {
		return err
	}
	every := max(opts.every, 1)

	if opts.realtime {
		ticks := 0
		eng.SetTickCallback(func(float64) {
			ticks++
			if ticks%every == 0 {
				_ = writeState(out, eng.Now(), c.Target())
			}
		})
		runCtx, cancel := context.WithTimeout(ctx, time.Duration(opts.duration*float64(time.Second)))
		defer cancel()
		if err := eng.Run(runCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	}

	step := 1 / cfg.TickRate
	steps := int(math.Ceil(opts.duration / step))
	for n := 1; n <= steps; n++ {
		if err := eng.Tick(step); err != nil {
			return fmt.Errorf("tick %d: %w", n, err)
		}
		if n%every == 0 || n == steps {
			if err := writeState(out, eng.Now(), c.Target()); err != nil {
				return err
			}
		}
	}
	return nil
}

// serveInspect serves metrics and coordinator dumps until the returned stop function is called.
func serveInspect(cfg config.Config, eng engine.Engine, logger *slog.Logger) func() {
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           inspect.NewHandler(eng, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("inspect server listening", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("inspect server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
