// Package inspect serves metrics and read-only views of running coordinators over HTTP.
package inspect

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Carmen-Shannon/oxy-anim/engine"
	"github.com/Carmen-Shannon/oxy-anim/engine/coordinator"
	"github.com/Carmen-Shannon/oxy-anim/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Summary describes one coordinator in the listing.
type Summary struct {
	Name      string   `json:"name"`
	Instances []string `json:"instances"`
	Running   bool     `json:"running"`
	SyncDirty bool     `json:"sync_dirty"`
}

type server struct {
	engine engine.Engine
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for an engine.
//
// Routes:
//   - GET /healthz
//   - GET /metrics
//   - GET /coordinators
//   - GET /coordinators/{name}/graph?channel=Root&simplified=true
//   - GET /coordinators/{name}/instances
//
// Parameters:
//   - eng: the engine whose coordinators and profiler are exposed
//   - logger: the logger for encode failures, nil for none
//
// Returns:
//   - http.Handler: the router
func NewHandler(eng engine.Engine, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &server{engine: eng, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.HandlerFor(eng.Profiler().Registry(), promhttp.HandlerOpts{}))
	r.Get("/coordinators", s.list)
	r.Route("/coordinators/{name}", func(r chi.Router) {
		r.Get("/graph", s.graph)
		r.Get("/instances", s.instances)
	})
	return r
}

func (s *server) list(w http.ResponseWriter, r *http.Request) {
	out := []Summary{}
	s.engine.Do(func() {
		for _, c := range s.engine.Coordinators() {
			sum := Summary{Name: c.Name(), Running: c.Running(), SyncDirty: c.SyncDirty(), Instances: []string{}}
			for _, inst := range c.Instances() {
				sum.Instances = append(sum.Instances, inst.Name())
			}
			out = append(out, sum)
		}
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Warn("encode coordinators", "error", err)
	}
}

func (s *server) graph(w http.ResponseWriter, r *http.Request) {
	simplified, _ := strconv.ParseBool(r.URL.Query().Get("simplified"))
	channelName := r.URL.Query().Get("channel")
	s.dump(w, r, func(c coordinator.Coordinator, buf *bytes.Buffer) error {
		return c.DumpGraph(buf, channelName, simplified)
	})
}

func (s *server) instances(w http.ResponseWriter, r *http.Request) {
	s.dump(w, r, func(c coordinator.Coordinator, buf *bytes.Buffer) error {
		return c.DumpInstances(buf)
	})
}

// dump runs fn on the named coordinator between ticks and writes its text output.
func (s *server) dump(w http.ResponseWriter, r *http.Request, fn func(coordinator.Coordinator, *bytes.Buffer) error) {
	name := chi.URLParam(r, "name")
	var (
		buf   bytes.Buffer
		found bool
		err   error
	)
	s.engine.Do(func() {
		for _, c := range s.engine.Coordinators() {
			if c.Name() == name {
				found = true
				err = fn(c, &buf)
				return
			}
		}
	})

	switch {
	case !found:
		http.Error(w, "unknown coordinator "+strconv.Quote(name), http.StatusNotFound)
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write(buf.Bytes()); err != nil {
			s.logger.Warn("write dump", "coordinator", name, "error", err)
		}
	}
}
