package profiler

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	p := NewProfiler()
	p.ObserveAttach(nil)
	p.ObserveAttach(nil)
	p.ObserveAttach(errors.New("no modifier"))
	p.ObserveDetach()
	p.ObserveApplyErrors(3)
	p.SetCoordinators(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.attaches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.attaches.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.detaches))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.instances))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.applyErrors))
	assert.Equal(t, 4.0, testutil.ToFloat64(p.coordinators))
}

func TestTickHistogramIsRegistered(t *testing.T) {
	p := NewProfiler(WithNamespace("test"))
	p.ObserveTick(2 * time.Millisecond)

	n, err := testutil.GatherAndCount(p.Registry(), "test_tick_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTickLogsAtInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(
		WithLogger(logging.NewWithWriter(&buf, slog.LevelInfo)),
		WithUpdateInterval(time.Hour),
	)
	assert.False(t, p.Tick())
	assert.Empty(t, buf.String())

	p.updateInterval = 0
	assert.True(t, p.Tick())
	assert.Contains(t, buf.String(), "tps=")
	assert.Contains(t, buf.String(), "heap_mb=")
}
