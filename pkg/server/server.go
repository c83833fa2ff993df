package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/gorilla/mux"

	"github.com/oxygene76/exosky/internal/types"
	"github.com/oxygene76/exosky/pkg/analysis"
	"github.com/oxygene76/exosky/pkg/constellation"
	"github.com/oxygene76/exosky/pkg/export"
	"github.com/oxygene76/exosky/pkg/observability"
	"github.com/oxygene76/exosky/pkg/render"
)

// Server serves the interactive sky pages and the JSON API
type Server struct {
	manager        *analysis.Manager
	exporter       *export.Exporter
	constellations *constellation.Service
	metrics        *observability.SkyCollector
	logger         log.Logger
	router         *mux.Router
}

// New creates the server and registers its routes. metrics may be nil.
func New(
	manager *analysis.Manager,
	exporter *export.Exporter,
	constellations *constellation.Service,
	metrics *observability.SkyCollector,
	logger log.Logger,
) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Server{
		manager:        manager,
		exporter:       exporter,
		constellations: constellations,
		metrics:        metrics,
		logger:         logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	// Pages
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/sky/{planet}", s.handleSkyPage).Methods("GET")

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/planets", s.handleListPlanets).Methods("GET")
	api.HandleFunc("/sky/{planet}", s.handleGetSky).Methods("GET")
	api.HandleFunc("/sky/{planet}/export", s.handleExport).Methods("POST")
	api.HandleFunc("/constellations", s.handleSaveConstellation).Methods("POST")

	// Operations
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
		r.Use(s.metrics.Middleware)
	}

	r.Use(corsMiddleware)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// handleIndex redirects to the sky of the first planet
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	planets := s.manager.Catalog().Planets()
	http.Redirect(w, r, "/sky/"+url.PathEscape(planets[0].Name), http.StatusFound)
}

// handleSkyPage renders the interactive page of a planet
func (s *Server) handleSkyPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.view(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	planets := s.manager.Catalog().Planets()
	names := make([]string, len(planets))
	for i, p := range planets {
		names[i] = p.Name
	}

	exportURL := "/api/v1/sky/" + url.PathEscape(view.Planet.Name) + "/export"
	if limit := r.URL.Query().Get("limit"); limit != "" {
		exportURL += "?" + url.Values{"limit": {limit}}.Encode()
	}

	nav := &render.Navigation{
		Planets:   names,
		SkyPath:   "/sky/",
		ExportURL: exportURL,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WritePage(w, view, nav); err != nil {
		s.logger.Error("failed to render page", "planet", view.Planet.Name, "err", err)
	}
}

// handleListPlanets lists planets, optionally filtered by ?q=
func (s *Server) handleListPlanets(w http.ResponseWriter, r *http.Request) {
	planets := s.manager.Catalog().Search(r.URL.Query().Get("q"))
	if planets == nil {
		planets = []types.Planet{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"planets": planets,
		"count":   len(planets),
	})
}

// handleGetSky returns the sky view of a planet
func (s *Server) handleGetSky(w http.ResponseWriter, r *http.Request) {
	view, err := s.view(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// handleExport renders the static image and returns it, or its preview
// with ?preview=true
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	view, err := s.view(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.exporter.Export(view)
	s.metrics.ObserveExport(err)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data := result.Data
	disposition := fmt.Sprintf("attachment; filename=%q", filepath.Base(result.Path))
	if preview, _ := strconv.ParseBool(r.URL.Query().Get("preview")); preview {
		if data, err = export.EncodePreview(result); err != nil {
			s.writeError(w, err)
			return
		}
		disposition = "inline"
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write image", "planet", view.Planet.Name, "err", err)
	}
}

// SaveConstellationRequest is the body of POST /api/v1/constellations
type SaveConstellationRequest struct {
	Name    string   `json:"name"`
	StarIDs []string `json:"star_ids"`
	// Planet, when set, restricts the selection to stars visible from it
	Planet string `json:"planet,omitempty"`
}

// handleSaveConstellation acknowledges a custom constellation
func (s *Server) handleSaveConstellation(w http.ResponseWriter, r *http.Request) {
	var req SaveConstellationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errorsmod.Wrapf(types.ErrInvalidInput, "invalid request: %s", err))
		return
	}

	if req.Planet != "" {
		view, err := s.manager.View(r.Context(), req.Planet)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := constellation.CheckSelection(view, req.StarIDs); err != nil {
			s.writeError(w, err)
			return
		}
	}

	ack := s.constellations.Save(req.Name, req.StarIDs)
	s.metrics.ObserveConstellation()
	s.writeJSON(w, http.StatusOK, ack)
}

// handleHealth reports the catalog size
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cat := s.manager.Catalog()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"planets": cat.NumPlanets(),
		"stars":   cat.NumStars(),
	})
}

// view computes the sky of the {planet} route variable. ?limit= overrides
// the magnitude limit for this request.
func (s *Server) view(r *http.Request) (*types.SkyView, error) {
	name := mux.Vars(r)["planet"]
	planet, ok := s.manager.Catalog().Planet(name)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrUnknownTarget, "planet %q", name)
	}

	filter := s.manager.Filter()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errorsmod.Wrapf(types.ErrInvalidInput, "limit %q is not a number", raw)
		}
		filter.MagnitudeLimit = limit
	}

	start := time.Now()
	view, err := s.manager.ViewFrom(r.Context(), planet, filter)
	if err != nil {
		s.metrics.ObserveView(0, time.Since(start), err)
		return nil, err
	}
	s.metrics.ObserveView(len(view.Stars), time.Since(start), nil)
	return view, nil
}

// statusCode maps the error taxonomy onto HTTP status codes
func statusCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnknownTarget):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", code, "err", err)
	} else {
		s.logger.Debug("request rejected", "status", code, "err", err)
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeJSON encodes v before committing the status so an unencodable value
// still yields an error response
func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
		buf.Reset()
		code = http.StatusInternalServerError
		json.NewEncoder(&buf).Encode(map[string]string{"error": "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("failed to write response", "err", err)
	}
}

// corsMiddleware enables CORS for web client integration
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
