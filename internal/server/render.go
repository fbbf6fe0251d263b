package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/posterize/internal/composite"
	"github.com/MeKo-Tech/posterize/internal/imageio"
	"github.com/MeKo-Tech/posterize/internal/mask"
	"github.com/MeKo-Tech/posterize/internal/preset"
)

// errBusy is returned when the render semaphore cannot be acquired in time.
var errBusy = errors.New("server busy")

// serveRender posterizes the uploaded image. The image is the raw request
// body or the "image" field of a multipart form. Bands come from the preset
// query parameter, or from breaks and colors; the default band set is used
// when none are given.
func (s *Server) serveRender(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	q := r.URL.Query()
	doc, err := s.resolveDocument(r.Context(), q.Get("preset"), q.Get("breaks"), q.Get("colors"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, preset.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	format, err := imageio.ParseFormat(defaultString(q.Get("format"), "png"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	maxW, errW := intParam(r, "max_width", 0)
	maxH, errH := intParam(r, "max_height", 0)
	grain, errG := floatParam(r, "grain", s.cfg.Grain)
	if err := errors.Join(errW, errH, errG); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if grain < 0 || grain > 1 {
		http.Error(w, fmt.Sprintf("grain must be in [0,1], got %g", grain), http.StatusBadRequest)
		return
	}

	src, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	defer cancel()

	if err := s.acquire(ctx); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.activeRenders.Add(1)
	out, err := s.render(src, doc, maxW, maxH, grain)
	s.activeRenders.Add(-1)
	<-s.sem

	if err != nil {
		s.totalFailed.Add(1)
		s.log().Error("Render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, out, format); err != nil {
		s.totalFailed.Add(1)
		s.log().Error("Failed to encode render", "error", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	s.totalRendered.Add(1)
	s.bytesServed.Add(uint64(buf.Len()))

	w.Header().Set("Content-Type", imageio.ContentType(format))
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log().Error("Failed to write response", "error", err)
	}

	s.log().Debug("Rendered upload",
		"bands", len(doc.Colors),
		"width", out.Bounds().Dx(),
		"height", out.Bounds().Dy(),
		"elapsed", time.Since(start),
	)
}

func (s *Server) render(src image.Image, doc preset.Document, maxW, maxH int, grain float64) (image.Image, error) {
	bs, err := doc.BandSet()
	if err != nil {
		return nil, err
	}
	gray := mask.ToGray(imageio.Fit(src, maxW, maxH))
	return composite.RenderWithOptions(gray, bs, composite.Options{Grain: grain, Seed: s.cfg.Seed})
}

func (s *Server) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errBusy, ctx.Err())
	}
}

func (s *Server) resolveDocument(ctx context.Context, name, breaks, colors string) (preset.Document, error) {
	if name != "" {
		if s.presets == nil {
			return preset.Document{}, fmt.Errorf("%w: %s (no preset store configured)", preset.ErrNotFound, name)
		}
		rec, err := s.presets.Get(ctx, name)
		if err != nil {
			return preset.Document{}, err
		}
		return rec.Document, nil
	}
	if breaks == "" && colors == "" {
		return preset.Default(), nil
	}
	return preset.Parse(breaks, colors)
}

func readUpload(r *http.Request) (image.Image, error) {
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("failed to read image field: %w", err)
		}
		defer f.Close()
		body = f
	}
	return imageio.Decode(body)
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
