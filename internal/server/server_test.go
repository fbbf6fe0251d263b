package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/posterize/internal/colorspace"
	"github.com/MeKo-Tech/posterize/internal/preset"
)

// grayPNG encodes a one-row image holding the given gray values.
func grayPNG(t *testing.T, values ...uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, len(values), 1))
	for x, v := range values {
		img.SetGray(x, 0, color.Gray{Y: v})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeNRGBA(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func rgbAt(img image.Image, x, y int) colorspace.Color {
	return colorspace.FromColor(img.At(x, y))
}

func TestHealthz(t *testing.T) {
	srv := New(Config{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestRenderDefaultBands(t *testing.T) {
	srv := New(Config{}, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/render", bytes.NewReader(grayPNG(t, 120, 121, 0, 255)))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img := decodeNRGBA(t, rec.Body.Bytes())
	blue, red := colorspace.Color{B: 255}, colorspace.Color{R: 255}
	require.Equal(t, blue, rgbAt(img, 0, 0))
	require.Equal(t, red, rgbAt(img, 1, 0))
	require.Equal(t, blue, rgbAt(img, 2, 0))
	require.Equal(t, red, rgbAt(img, 3, 0))

	require.Equal(t, int64(1), srv.Status().TotalRendered)
}

func TestRenderCustomBandsMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "in.png")
	require.NoError(t, err)
	_, err = fw.Write(grayPNG(t, 10, 100, 200))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/render?breaks=50,150&colors=%23000000,%23808080,%23ffffff", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	New(Config{}, nil, nil).Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	img := decodeNRGBA(t, rec.Body.Bytes())
	require.Equal(t, colorspace.Color{}, rgbAt(img, 0, 0))
	require.Equal(t, colorspace.Color{R: 128, G: 128, B: 128}, rgbAt(img, 1, 0))
	require.Equal(t, colorspace.Color{R: 255, G: 255, B: 255}, rgbAt(img, 2, 0))
}

func TestRenderRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   []byte
		want   int
	}{
		{name: "bad breaks", target: "/render?breaks=300&colors=%23000000,%23ffffff", want: http.StatusBadRequest},
		{name: "bad format", target: "/render?format=heic", want: http.StatusBadRequest},
		{name: "not an image", target: "/render", body: []byte("hello"), want: http.StatusBadRequest},
		{name: "unknown preset", target: "/render?preset=nope", want: http.StatusNotFound},
		{name: "grain above one", target: "/render?grain=1.5", want: http.StatusBadRequest},
		{name: "negative grain", target: "/render?grain=-0.2", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == nil {
				body = grayPNG(t, 1, 2)
			}
			rec := httptest.NewRecorder()
			New(Config{}, nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.target, bytes.NewReader(body)))
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRenderMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}, nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/render", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRenderWithStoredPreset(t *testing.T) {
	store, err := preset.OpenStore(filepath.Join(t.TempDir(), "presets.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	doc, err := preset.Parse("200", "#00ff00,#ffff00")
	require.NoError(t, err)
	_, err = store.Save(context.Background(), "lime", doc)
	require.NoError(t, err)

	srv := New(Config{}, store, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/render?preset=lime", bytes.NewReader(grayPNG(t, 0, 255))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	img := decodeNRGBA(t, rec.Body.Bytes())
	require.Equal(t, colorspace.Color{G: 255}, rgbAt(img, 0, 0))
	require.Equal(t, colorspace.Color{R: 255, G: 255}, rgbAt(img, 1, 0))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []preset.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "lime", entries[0].Name)
}

func TestWheelPNG(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}, nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wheel.png?size=40", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	img := decodeNRGBA(t, rec.Body.Bytes())
	require.Equal(t, image.Rect(0, 0, 40, 40), img.Bounds())

	rec = httptest.NewRecorder()
	New(Config{}, nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wheel.png?size=-1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWheelPick(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}, nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wheel/pick?size=300&x=300&y=150&value=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PickResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Inside)
	require.InDelta(t, 0.5, resp.Hue, 1e-9)
	require.Equal(t, "#00ffff", resp.Hex)
	require.Equal(t, [3]uint8{0, 255, 255}, resp.RGB)
}

func TestWheelPickOutsideKeepsColor(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}, nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wheel/pick?hex=%23ff0000&x=0&y=0", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PickResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Inside)
	require.Equal(t, "#ff0000", resp.Hex)
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}, nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/render", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
