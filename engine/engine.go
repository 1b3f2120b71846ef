package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/engine/coordinator"
	"github.com/Carmen-Shannon/oxy-anim/engine/profiler"
	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
)

// engine implements the Engine interface.
// Drives every registered coordinator once per tick on a shared worker pool.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	mu     *sync.RWMutex // guards coordinators and tickCallback
	tickMu *sync.Mutex   // serializes ticks

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	logger           *slog.Logger
	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float64)

	coordinators []coordinator.Coordinator
	now          float64

	pool        worker.DynamicWorkerPool
	workers     int
	queueSize   int
	idleTimeout time.Duration
}

// Engine is the headless driver for animation coordinators.
// Each tick advances world time and ticks every coordinator exactly once, in parallel.
type Engine interface {
	// EnableProfiler enables periodic performance statistics in the log.
	EnableProfiler()

	// DisableProfiler disables periodic performance statistics.
	DisableProfiler()

	// Profiler returns the profiler holding the engine metrics.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers a function called after every tick, on the ticking goroutine.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float64))

	// AddCoordinator registers a coordinator. A coordinator already registered is ignored.
	//
	// Parameters:
	//   - c: the coordinator to drive
	AddCoordinator(c coordinator.Coordinator)

	// RemoveCoordinator stops driving a coordinator.
	//
	// Parameters:
	//   - c: the coordinator to remove
	//
	// Returns:
	//   - bool: false if it was not registered
	RemoveCoordinator(c coordinator.Coordinator) bool

	// Coordinators returns the registered coordinators in registration order.
	//
	// Returns:
	//   - []coordinator.Coordinator: the coordinators
	Coordinators() []coordinator.Coordinator

	// Now returns the world time of the last tick.
	//
	// Returns:
	//   - float64: seconds since the engine started
	Now() float64

	// Tick advances world time by elapsed seconds and ticks every coordinator once.
	//
	// Parameters:
	//   - elapsed: the seconds since the previous tick
	//
	// Returns:
	//   - error: the joined coordinator errors
	Tick(elapsed float64) error

	// Do runs fn between ticks, where coordinators may be read or changed safely.
	//
	// Parameters:
	//   - fn: the function to run
	Do(fn func())

	// Run ticks at the configured rate until ctx is done or Quit is called.
	//
	// Parameters:
	//   - ctx: the run context
	//
	// Returns:
	//   - error: ctx.Err() when the context ended the loop, nil after Quit
	Run(ctx context.Context) error

	// Quit stops Run. Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Defaults to 60 ticks per second on a pool of 4 workers.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		mu:              &sync.RWMutex{},
		tickMu:          &sync.Mutex{},
		logger:          logging.NewNop(),
		engineTickRate:  time.Second / 60,
		workers:         4,
		queueSize:       256,
		idleTimeout:     1 * time.Second,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	e.profiler.SetCoordinators(len(e.coordinators))

	// Initialize the pool after options so WithWorkers can override the default.
	e.pool = worker.NewDynamicWorkerPool(e.workers, e.queueSize, e.idleTimeout)
	return e
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60.0
	}
	rate := time.Duration(float64(time.Second) / fps)
	// Drain any pending update so the newest rate wins.
	select {
	case <-e.tickRateChannel:
	default:
	}
	e.tickRateChannel <- rate
}

func (e *engine) SetTickCallback(callback func(deltaTime float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) AddCoordinator(c coordinator.Coordinator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slices.Contains(e.coordinators, c) {
		return
	}
	e.coordinators = append(e.coordinators, c)
	e.profiler.SetCoordinators(len(e.coordinators))
}

func (e *engine) RemoveCoordinator(c coordinator.Coordinator) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := slices.Index(e.coordinators, c)
	if idx < 0 {
		return false
	}
	e.coordinators = slices.Delete(e.coordinators, idx, idx+1)
	e.profiler.SetCoordinators(len(e.coordinators))
	return true
}

func (e *engine) Coordinators() []coordinator.Coordinator {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.coordinators)
}

func (e *engine) Now() float64 {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return e.now
}

func (e *engine) Tick(elapsed float64) error {
	callback, err := e.tick(elapsed)
	// Called without the tick lock so the callback may use Now and Do.
	if callback != nil {
		callback(elapsed)
	}
	return err
}

func (e *engine) tick(elapsed float64) (func(float64), error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	start := time.Now()
	e.now += elapsed
	now := e.now

	e.mu.RLock()
	coords := slices.Clone(e.coordinators)
	callback := e.tickCallback
	e.mu.RUnlock()

	// Each coordinator is handed to exactly one task, so coordinators need no locking.
	errs := make([]error, len(coords))
	var wg sync.WaitGroup
	for n, c := range coords {
		wg.Add(1)
		idx := n
		e.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				errs[idx] = c.Tick(now, elapsed)
				return nil, nil
			},
		})
	}
	wg.Wait()

	e.profiler.ObserveTick(time.Since(start))
	if e.profilingEnabled {
		e.profiler.Tick()
	}

	err := errors.Join(errs...)
	if err != nil {
		e.logger.Warn("tick failed", "t", now, "error", err)
	}
	return callback, err
}

func (e *engine) Do(fn func()) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	fn()
}

func (e *engine) Run(ctx context.Context) error {
	e.mu.RLock()
	rate := e.engineTickRate
	e.mu.RUnlock()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	e.logger.Info("engine running", "tick_rate", rate, "coordinators", len(e.Coordinators()))
	lastTick := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitChannel:
			return nil
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(lastTick).Seconds()
			lastTick = now

			// Tick errors are logged; content errors must not stop the loop.
			_ = e.Tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// Quit signals Run to return.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}
