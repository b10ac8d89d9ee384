package upload

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func newStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	cfg.Dir = t.TempDir()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, Config{})
	data := pngBytes(t, 40, 20)

	res, err := s.Save(ctx, bytes.NewReader(data), "diagram.png")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if res.Width != 40 || res.Height != 20 {
		t.Errorf("size = %dx%d, want 40x20", res.Width, res.Height)
	}
	if res.Alt != "diagram" {
		t.Errorf("Alt = %q", res.Alt)
	}
	name := strings.TrimPrefix(res.URL, DefaultURLPath)
	if !namePattern.MatchString(name) {
		t.Fatalf("URL = %q is not content addressed", res.URL)
	}

	f, err := os.Open(filepath.Join(s.Dir(), name))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	defer f.Close()
	if _, format, err := image.DecodeConfig(f); err != nil || format != "jpeg" {
		t.Errorf("stored format = %q, %v", format, err)
	}

	again, err := s.Save(ctx, bytes.NewReader(data), "other-name.png")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if again.URL != res.URL || !again.Existing {
		t.Errorf("identical upload not reused: %+v", again)
	}
	if again.Alt != "other-name" {
		t.Errorf("Alt = %q", again.Alt)
	}
}

func TestSave_Downscales(t *testing.T) {
	s := newStore(t, Config{MaxWidth: 100})
	res, err := s.Save(context.Background(), bytes.NewReader(pngBytes(t, 400, 200)), "big.png")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if res.Width != 100 || res.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", res.Width, res.Height)
	}
}

func TestSave_Errors(t *testing.T) {
	s := newStore(t, Config{MaxBytes: 1024})
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmpty},
		{"not an image", []byte("hello world"), ErrUnsupported},
		{"too large", bytes.Repeat([]byte{0}, 2048), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(context.Background(), bytes.NewReader(tt.data), "x.png")
			if !errors.Is(err, tt.want) {
				t.Errorf("Save() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// forgeDimensions rewrites the IHDR size of a PNG without touching the
// pixel data.
func forgeDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	if string(out[12:16]) != "IHDR" {
		t.Fatal("first chunk is not IHDR")
	}
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestSave_PixelLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("forged header", func(t *testing.T) {
		s := newStore(t, Config{})
		data := forgeDimensions(t, pngBytes(t, 1, 1), 100000, 100000)
		_, err := s.Save(ctx, bytes.NewReader(data), "bomb.png")
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("Save() error = %v, want %v", err, ErrTooLarge)
		}
		entries, _ := os.ReadDir(s.Dir())
		if len(entries) != 0 {
			t.Errorf("rejected upload left %d files", len(entries))
		}
	})

	t.Run("configured limit", func(t *testing.T) {
		s := newStore(t, Config{MaxPixels: 500})
		if _, err := s.Save(ctx, bytes.NewReader(pngBytes(t, 40, 20)), "a.png"); !errors.Is(err, ErrTooLarge) {
			t.Errorf("Save(40x20) error = %v, want %v", err, ErrTooLarge)
		}
		if _, err := s.Save(ctx, bytes.NewReader(pngBytes(t, 20, 20)), "b.png"); err != nil {
			t.Errorf("Save(20x20) error = %v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	s := newStore(t, Config{})
	res, err := s.Save(context.Background(), bytes.NewReader(pngBytes(t, 8, 8)), "a.png")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	f, err := s.Open(strings.TrimPrefix(res.URL, DefaultURLPath))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	f.Close()

	for _, name := range []string{"../etc/passwd", "missing.jpg", strings.Repeat("a", 32) + ".jpg"} {
		if _, err := s.Open(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q) error = %v, want ErrNotFound", name, err)
		}
	}
}
