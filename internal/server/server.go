// Package server exposes rendering and color picking over HTTP. Every request
// builds its own band set; nothing is shared between requests except the
// preset store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"

	"github.com/MeKo-Tech/posterize/internal/colorspace"
	"github.com/MeKo-Tech/posterize/internal/imageio"
	"github.com/MeKo-Tech/posterize/internal/picker"
	"github.com/MeKo-Tech/posterize/internal/preset"
	"github.com/MeKo-Tech/posterize/internal/wheel"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxUploadBytes = 32 << 20
	DefaultMaxConcurrent  = 2
	DefaultRenderTimeout  = time.Minute
	maxWheelSize          = 2048
)

// PresetLookup resolves named presets for /render?preset=NAME.
type PresetLookup interface {
	Get(ctx context.Context, name string) (preset.Record, error)
	List(ctx context.Context) ([]preset.Record, error)
}

// Config configures the HTTP surface.
type Config struct {
	MaxUploadBytes int64
	MaxConcurrent  int
	RenderTimeout  time.Duration
	WheelSize      int
	CacheControl   string
	Grain          float64
	Seed           int64
}

// Server holds the handlers and render statistics.
type Server struct {
	cfg     Config
	presets PresetLookup
	logger  *slog.Logger
	sem     chan struct{}

	activeRenders atomic.Int32
	totalRendered atomic.Int64
	totalFailed   atomic.Int64
	bytesServed   atomic.Uint64
}

// Status is the JSON body of /status.
type Status struct {
	ActiveRenders int    `json:"active_renders"`
	TotalRendered int64  `json:"total_rendered"`
	TotalFailed   int64  `json:"total_failed"`
	BytesServed   string `json:"bytes_served"`
	MaxConcurrent int    `json:"max_concurrent"`
}

// PickResponse is the JSON body of /wheel/pick.
type PickResponse struct {
	Inside bool       `json:"inside"`
	Hue    float64    `json:"hue"`
	Sat    float64    `json:"saturation"`
	Value  float64    `json:"value"`
	Hex    string     `json:"hex"`
	RGB    [3]uint8   `json:"rgb"`
	Marker [2]float64 `json:"marker"`
}

// New creates a server. presets may be nil, in which case preset lookups fail.
func New(cfg Config, presets PresetLookup, logger *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}
	if cfg.WheelSize <= 0 {
		cfg.WheelSize = wheel.DefaultSize
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	return &Server{
		cfg:     cfg,
		presets: presets,
		logger:  logger,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", s.serveStatus)
	mux.HandleFunc("POST /render", s.serveRender)
	mux.HandleFunc("GET /wheel.png", s.serveWheel)
	mux.HandleFunc("GET /wheel/pick", s.servePick)
	mux.HandleFunc("GET /presets", s.servePresets)
	return withCORS(mux)
}

// Status reports render counters.
func (s *Server) Status() Status {
	return Status{
		ActiveRenders: int(s.activeRenders.Load()),
		TotalRendered: s.totalRendered.Load(),
		TotalFailed:   s.totalFailed.Load(),
		BytesServed:   humanize.Bytes(s.bytesServed.Load()),
		MaxConcurrent: s.cfg.MaxConcurrent,
	}
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Status(), s.log())
}

func (s *Server) serveWheel(w http.ResponseWriter, r *http.Request) {
	size, err := intParam(r, "size", s.cfg.WheelSize)
	if err != nil || size <= 0 || size > maxWheelSize {
		http.Error(w, fmt.Sprintf("size must be in 1..%d", maxWheelSize), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if err := imageio.Encode(w, wheel.Render(size), imaging.PNG); err != nil {
		s.log().Error("Failed to write wheel", "error", err)
	}
}

func (s *Server) servePick(w http.ResponseWriter, r *http.Request) {
	size, err := intParam(r, "size", s.cfg.WheelSize)
	if err != nil || size <= 0 {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}
	x, errX := floatParam(r, "x", 0)
	y, errY := floatParam(r, "y", 0)
	v, errV := floatParam(r, "value", 1)
	if err := errors.Join(errX, errY, errV); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess := picker.NewSession(colorspace.Color{R: 255, G: 255, B: 255}, size)
	if hex := r.URL.Query().Get("hex"); hex != "" {
		sess.SetText(hex)
		sess.Apply()
	}
	inside := true
	if r.URL.Query().Has("x") || r.URL.Query().Has("y") {
		inside = sess.Pick(x, y)
	}
	if r.URL.Query().Has("value") {
		sess.SetValue(v)
	}

	h, sat, val := sess.HSV()
	mx, my := sess.Marker()
	c := sess.Color()
	writeJSON(w, PickResponse{
		Inside: inside,
		Hue:    h,
		Sat:    sat,
		Value:  val,
		Hex:    sess.Hex(),
		RGB:    [3]uint8{c.R, c.G, c.B},
		Marker: [2]float64{mx, my},
	}, s.log())
}

func (s *Server) servePresets(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		http.Error(w, "no preset store configured", http.StatusNotFound)
		return
	}
	records, err := s.presets.List(r.Context())
	if err != nil {
		s.log().Error("Failed to list presets", "error", err)
		http.Error(w, "failed to list presets", http.StatusInternalServerError)
		return
	}

	entries := make([]preset.Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, preset.Entry{Name: rec.Name, Config: rec.Document})
	}
	writeJSON(w, entries, s.log())
}

func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

var _ PresetLookup = (*preset.Store)(nil)
