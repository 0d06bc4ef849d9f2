// Package server serves depicted data sets as JSON layers, so that a viewer
// running in another process can draw them.
//
// Routes:
//
//	GET  /version                 build information
//	GET  /volumes                 volume keys and block counts
//	GET  /layers                  every layer
//	GET  /volumes/{volume}/layers layers of one volume plus the omni volume
//	GET  /dataset?mode=nested     text summary of the data set
//	POST /reload                  read the input files again
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/buildinfo"
	"github.com/matzehuels/blik/pkg/dataset"
	"github.com/matzehuels/blik/pkg/depict"
	"github.com/matzehuels/blik/pkg/errors"
	blikio "github.com/matzehuels/blik/pkg/io"
	"github.com/matzehuels/blik/pkg/observability"
	"github.com/matzehuels/blik/pkg/pipeline"
)

// Server holds the most recent pipeline result and serves it.
type Server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	mu     sync.RWMutex
	result *pipeline.Result
}

// New creates a server for the inputs in opts. Call Reload before serving.
func New(runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, opts: opts, logger: logger}
}

// Reload runs the pipeline again and swaps in the new result.
func (s *Server) Reload(ctx context.Context) (*pipeline.Result, error) {
	opts := s.opts
	opts.Show = "" // visibility is chosen per request
	res, err := s.runner.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.result = res
	s.mu.Unlock()
	return res, nil
}

func (s *Server) current() (*pipeline.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no data loaded")
	}
	return s.result, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusOK, buildinfo.Get())
	})
	r.Get("/volumes", s.handleVolumes)
	r.Get("/layers", s.handleLayers)
	r.Get("/volumes/{volume}/layers", s.handleLayers)
	r.Get("/dataset", s.handleDataSet)
	r.Post("/reload", s.handleReload)
	return r
}

// observe reports every request to the server hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.Server().OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", time.Since(start))
	})
}

type volumeSummary struct {
	Key    string `json:"key"`
	Blocks int    `json:"blocks"`
}

func (s *Server) handleVolumes(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.fail(w, err)
		return
	}
	out := struct {
		Volumes []volumeSummary `json:"volumes"`
		Omni    int             `json:"omni"`
	}{Volumes: []volumeSummary{}, Omni: len(res.DataSet.Omni())}
	for _, key := range res.DataSet.Volumes() {
		members, err := res.DataSet.Members(key)
		if err != nil {
			s.fail(w, err)
			return
		}
		out.Volumes = append(out.Volumes, volumeSummary{Key: key, Blocks: len(members)})
	}
	s.respond(w, http.StatusOK, out)
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.fail(w, err)
		return
	}
	volume := chi.URLParam(r, "volume")
	if volume != "" && !hasVolume(res.DataSet, volume) {
		s.fail(w, errors.NotFound("volume "+volume))
		return
	}
	layers := visibleIn(res.Scene.Layers(), volume)
	w.Header().Set("Content-Type", "application/json")
	if err := blikio.WriteJSON(layers, volume, w); err != nil {
		s.logger.Warn("write layers", "err", err)
	}
}

func (s *Server) handleDataSet(w http.ResponseWriter, r *http.Request) {
	res, err := s.current()
	if err != nil {
		s.fail(w, err)
		return
	}
	mode := dataset.ModeNested
	if q := r.URL.Query().Get("mode"); q != "" {
		if mode, err = dataset.ParseMode(q); err != nil {
			s.fail(w, err)
			return
		}
	}
	text, err := res.DataSet.Format(mode)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	res, err := s.Reload(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"blocks": res.Stats.Blocks,
		"layers": res.Stats.Layers,
		"failed": len(res.Failed),
	})
}

func hasVolume(ds *dataset.DataSet, volume string) bool {
	if volume == block.OmniVolume {
		return true
	}
	_, err := ds.Members(volume)
	return err == nil
}

// visibleIn returns the layers of volume and of the omni volume, or every
// layer when volume is empty.
func visibleIn(layers []depict.Layer, volume string) []depict.Layer {
	out := make([]depict.Layer, 0, len(layers))
	for _, l := range layers {
		if volume != "" && l.Volume != volume && l.Volume != block.OmniVolume {
			continue
		}
		l.Attrs.Visible = true
		out = append(out, l)
	}
	return out
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.respond(w, statusFor(err), map[string]string{
		"code":  string(errors.GetCode(err)),
		"error": err.Error(),
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidName, errors.ErrCodeInvalidPath,
		errors.ErrCodeParse, errors.ErrCodeUnsupported, errors.ErrCodeMissingMetadata:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
