// Package api serves the live scene over HTTP.
// GET endpoints are public and read-only.
// POST and DELETE endpoints require a bearer token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talgya/relief/internal/engine"
	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/lighting"
	"github.com/talgya/relief/internal/persistence"
	"github.com/talgya/relief/internal/render"
	"github.com/talgya/relief/internal/world"
)

// Preview layers beyond the raw terrain layers.
const (
	PreviewShaded    = "shaded"
	PreviewElevation = "elevation"
	PreviewLightmap  = "lightmap"
	PreviewMask      = "mask" // Elevation above ?t=, sea level by default
)

// Server serves a scene over HTTP.
type Server struct {
	Scene    *engine.Scene
	DB       *persistence.DB // Nil disables scene storage endpoints
	Port     int
	AdminKey string // Bearer token for mutating endpoints. Empty = disabled.
	Log      *zap.Logger

	PreviewLimit   int           // Preview requests per client per window, 0 = unlimited
	PreviewWindow  time.Duration
	AllowedOrigins []string // Extra CORS origins on top of localhost dev servers

	started time.Time
	limiter *RateLimiter
	srv     *http.Server
}

// Handler builds the routed handler, CORS included.
func (s *Server) Handler() http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}
	if s.limiter == nil {
		window := s.PreviewWindow
		if window <= 0 {
			window = time.Minute
		}
		s.limiter = NewRateLimiter(s.PreviewLimit, window)
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/cell/{x}/{y}", s.handleCell)
	mux.HandleFunc("GET /api/v1/light", s.handleGetLight)
	mux.HandleFunc("GET /api/v1/preview.png", RateLimitMiddleware(s.limiter, s.handlePreview))
	mux.HandleFunc("GET /api/v1/scenes", s.handleScenes)

	// Admin endpoints.
	mux.HandleFunc("POST /api/v1/light", s.adminOnly(s.handleSetLight))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("DELETE /api/v1/scenes/{id}", s.adminOnly(s.handleDeleteScene))

	return corsMiddleware(s.AllowedOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	handler := s.Handler()
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.Log.Info("HTTP API starting", zap.String("addr", addr), zap.Bool("admin_auth", s.AdminKey != ""))

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Shutdown stops the server started by Start and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(extra []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no RELIEF_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   "relief",
		"scene":  s.Scene.Status(),
		"store":  s.DB != nil,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.PathValue("x"))
	y, errY := strconv.Atoi(r.PathValue("y"))
	if errX != nil || errY != nil {
		http.Error(w, "cell coordinates must be integers", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.Scene.Cell(x, y))
}

type lightResponse struct {
	Light lighting.Light `json:"light"`
	Stats lighting.Stats `json:"stats"`
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lightResponse{Light: s.Scene.Light(), Stats: s.Scene.Stats()})
}

func (s *Server) handleSetLight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X         *float64 `json:"x"`
		Y         *float64 `json:"y"`
		Z         *float64 `json:"z"`
		Intensity *float64 `json:"intensity"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	for _, v := range []*float64{req.X, req.Y, req.Z, req.Intensity} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			http.Error(w, "light coordinates must be finite", http.StatusBadRequest)
			return
		}
	}

	// Omitted fields keep their current value.
	l, stats := s.Scene.UpdateLight(func(l *lighting.Light) {
		for _, f := range []struct {
			src *float64
			dst *float64
		}{{req.X, &l.X}, {req.Y, &l.Y}, {req.Z, &l.Z}, {req.Intensity, &l.Intensity}} {
			if f.src != nil {
				*f.dst = *f.src
			}
		}
	})
	s.Log.Info("light moved via API",
		zap.Float64("x", l.X), zap.Float64("y", l.Y), zap.Float64("z", l.Z),
		zap.Float32("max_intensity", stats.Max), zap.Bool("dark", stats.Dark),
	)
	writeJSON(w, http.StatusOK, lightResponse{Light: l, Stats: stats})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	layer := r.URL.Query().Get("layer")
	if layer == "" {
		layer = PreviewShaded
	}

	threshold := float32(world.ShallowWaterMax)
	if v := r.URL.Query().Get("t"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			http.Error(w, "t must be a finite number", http.StatusBadRequest)
			return
		}
		threshold = float32(f)
	}

	var (
		img image.Image
		err error
	)
	s.Scene.View(func(t *world.Terrain, lightmap *grid.Grid) {
		switch layer {
		case PreviewShaded:
			img, err = render.Shaded(t.Map, lightmap)
		case PreviewElevation:
			img = render.Elevation(t.Map)
		case PreviewLightmap:
			img = render.Gray(lightmap)
		case PreviewMask:
			img = render.Mask(t.Map, threshold)
		default:
			if g := t.Layer(layer); g != nil {
				img = render.Gray(g)
			}
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if img == nil {
		http.Error(w, fmt.Sprintf("unknown layer %q", layer), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "scene store disabled", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, 200)
	}
	rows, err := s.DB.ListScenes(limit)
	if err != nil {
		s.Log.Error("list scenes", zap.Error(err))
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []persistence.SceneRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "scene store disabled", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Label string `json:"label"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}

	snap := s.Scene.Snapshot()
	snap.Label = req.Label
	id, err := s.DB.SaveScene(snap)
	if err != nil {
		s.Log.Error("snapshot failed", zap.Error(err))
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	if err := s.DB.SaveMeta("last_scene", id); err != nil {
		s.Log.Warn("record last scene", zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "saved", "id": id})
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "scene store disabled", http.StatusServiceUnavailable)
		return
	}
	id := r.PathValue("id")
	err := s.DB.DeleteScene(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "scene not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Log.Error("delete scene", zap.String("id", id), zap.Error(err))
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
