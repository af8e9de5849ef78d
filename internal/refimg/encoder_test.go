package refimg

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func TestEncodeFileMissing(t *testing.T) {
	var e Encoder
	if got := e.EncodeFile(filepath.Join(t.TempDir(), "nope.png"), CharacterMaxSide, DefaultJPEGQuality); got != "" {
		t.Fatalf("expected empty uri, got %d bytes", len(got))
	}
}

func TestEncodeFileOpaqueIsJPEG(t *testing.T) {
	path := writeImage(t, "ref.jpg", 400, 300, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var e Encoder
	uri := e.EncodeFile(path, CharacterMaxSide, DefaultJPEGQuality)
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("uri prefix = %.40q", uri)
	}
	if w, h := decodeURI(t, uri); w != 400 || h != 300 {
		t.Fatalf("dims = %dx%d, want 400x300 (no upscale, no downscale)", w, h)
	}
}

func TestEncodeFileAlphaIsPNG(t *testing.T) {
	path := writeImage(t, "ref.png", 64, 64, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	var e Encoder
	uri := e.EncodeFile(path, CharacterMaxSide, DefaultJPEGQuality)
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("uri prefix = %.40q", uri)
	}
}

func TestEncodeFileDownscalesLongSide(t *testing.T) {
	path := writeImage(t, "wide.jpg", 2048, 1024, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	var e Encoder
	uri := e.EncodeFile(path, CharacterMaxSide, DefaultJPEGQuality)
	w, h := decodeURI(t, uri)
	if w != 512 {
		t.Fatalf("width = %d, want 512", w)
	}
	// Aspect ratio preserved within a pixel of rounding.
	if h < 255 || h > 257 {
		t.Fatalf("height = %d, want ~256", h)
	}
}

func TestEncodeFileZeroBudgetKeepsSize(t *testing.T) {
	path := writeImage(t, "big.jpg", 1500, 900, color.NRGBA{R: 9, G: 9, B: 9, A: 255})
	var e Encoder
	uri := e.EncodeFile(path, 0, DefaultJPEGQuality)
	if w, h := decodeURI(t, uri); w != 1500 || h != 900 {
		t.Fatalf("dims = %dx%d, want 1500x900", w, h)
	}
}

func writeImage(t *testing.T, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	img := imaging.New(w, h, c)
	path := filepath.Join(t.TempDir(), name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func decodeURI(t *testing.T, uri string) (int, int) {
	t.Helper()
	i := strings.Index(uri, ",")
	if i < 0 {
		t.Fatalf("malformed data uri: %.40q", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(uri[i+1:])
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	return cfg.Width, cfg.Height
}
