package profiler

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Profiler tracks tick timing, attach traffic and memory statistics.
// Metrics are exported through Prometheus; a summary is logged at a configurable interval.
type Profiler struct {
	mu       *sync.Mutex
	logger   *slog.Logger
	registry *prometheus.Registry

	tickDuration prometheus.Histogram
	applyErrors  prometheus.Counter
	attaches     *prometheus.CounterVec
	detaches     prometheus.Counter
	instances    prometheus.Gauge
	coordinators prometheus.Gauge

	namespace      string
	tickCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a Profiler with its own registry.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		logger:         logging.NewNop(),
		registry:       prometheus.NewRegistry(),
		namespace:      "oxyanim",
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}

	p.tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: p.namespace,
		Name:      "tick_duration_seconds",
		Help:      "Wall time spent ticking every coordinator once.",
		Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05},
	})
	p.applyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      "apply_errors_total",
		Help:      "Applicator writes that failed.",
	})
	p.attaches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      "attaches_total",
		Help:      "Animation attach attempts by result.",
	}, []string{"result"})
	p.detaches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      "detaches_total",
		Help:      "Animation instances detached.",
	})
	p.instances = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: p.namespace,
		Name:      "instances",
		Help:      "Animation instances currently attached.",
	})
	p.coordinators = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: p.namespace,
		Name:      "coordinators",
		Help:      "Coordinators driven by the engine.",
	})
	p.registry.MustRegister(p.tickDuration, p.applyErrors, p.attaches, p.detaches, p.instances, p.coordinators)
	return p
}

// Registry returns the registry the metrics are registered in, for serving with promhttp.
//
// Returns:
//   - *prometheus.Registry: the registry
func (p *Profiler) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveTick records how long one engine tick took.
//
// Parameters:
//   - d: the tick duration
func (p *Profiler) ObserveTick(d time.Duration) {
	p.tickDuration.Observe(d.Seconds())
}

// ObserveApplyErrors counts failed applicator writes.
//
// Parameters:
//   - n: the number of failures
func (p *Profiler) ObserveApplyErrors(n int) {
	p.applyErrors.Add(float64(n))
}

// ObserveAttach counts an attach attempt.
//
// Parameters:
//   - err: the attach result
func (p *Profiler) ObserveAttach(err error) {
	if err != nil {
		p.attaches.WithLabelValues("error").Inc()
		return
	}
	p.attaches.WithLabelValues("ok").Inc()
	p.instances.Inc()
}

// ObserveDetach counts a detached instance.
func (p *Profiler) ObserveDetach() {
	p.detaches.Inc()
	p.instances.Dec()
}

// SetCoordinators records how many coordinators the engine drives.
//
// Parameters:
//   - n: the coordinator count
func (p *Profiler) SetCoordinators(n int) {
	p.coordinators.Set(float64(n))
}

// Tick should be called once per engine tick to track tick rate.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: ticks per second, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tickCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	tps := float64(p.tickCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logger.Info("profiler",
		"tps", tps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	p.tickCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
