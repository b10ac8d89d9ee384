// Package upload stores images re-encoded as JPEG under content-addressed
// names.
package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth = 1600
	DefaultQuality  = 85
	DefaultMaxBytes = 10 << 20
	// DefaultMaxPixels bounds the decoded size, about 160 MB as RGBA.
	DefaultMaxPixels = 40_000_000
	DefaultURLPath   = "/uploads/"
)

var (
	ErrEmpty       = errors.New("upload is empty")
	ErrTooLarge    = errors.New("upload is too large")
	ErrUnsupported = errors.New("unsupported image format")
	ErrNotFound    = errors.New("upload not found")
)

var namePattern = regexp.MustCompile(`^[0-9a-f]{32}\.jpg$`)

// Result describes a stored image.
type Result struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Alt    string `json:"alt"`
	// Existing is true when identical bytes were uploaded before.
	Existing bool `json:"-"`
}

// Config configures a Store.
type Config struct {
	Dir      string
	URLPath  string
	MaxWidth int
	Quality  int
	MaxBytes int64
	// MaxPixels limits width*height as declared by the image header.
	MaxPixels int64
	Logger    *slog.Logger
}

// Store writes uploads to a directory.
type Store struct {
	dir       string
	urlPath   string
	maxWidth  int
	quality   int
	maxBytes  int64
	maxPixels int64
	logger    *slog.Logger
}

// New creates the upload directory if needed.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if cfg.URLPath == "" {
		cfg.URLPath = DefaultURLPath
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = DefaultMaxWidth
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultQuality
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{
		dir:       cfg.Dir,
		urlPath:   strings.TrimSuffix(cfg.URLPath, "/") + "/",
		maxWidth:  cfg.MaxWidth,
		quality:   cfg.Quality,
		maxBytes:  cfg.MaxBytes,
		maxPixels: cfg.MaxPixels,
		logger:    cfg.Logger,
	}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string { return s.dir }

// Save stores the image read from r. The name is derived from the SHA-256
// of the uploaded bytes, so repeated uploads reuse the stored file.
func (s *Store) Save(ctx context.Context, r io.Reader, filename string) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])[:32] + ".jpg"
	path := filepath.Join(s.dir, name)
	res := &Result{URL: s.urlPath + name, Alt: altText(filename)}

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		cfg, err := jpeg.DecodeConfig(f)
		if err == nil {
			res.Width, res.Height, res.Existing = cfg.Width, cfg.Height, true
			return res, nil
		}
		s.logger.Warn("stored upload unreadable, re-encoding", "name", name, "error", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, fmt.Errorf("%w: image is %dx%d", ErrUnsupported, hdr.Width, hdr.Height)
	}
	if px := int64(hdr.Width) * int64(hdr.Height); px > s.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, hdr.Width, hdr.Height, s.maxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	img := s.fit(src)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: s.quality}); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	b := img.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()
	s.logger.Info("image uploaded", "name", name, "format", format, "width", res.Width, "height", res.Height, "bytes", len(data))
	return res, nil
}

// fit downscales src to the maximum width and flattens it onto white.
func (s *Store) fit(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > s.maxWidth {
		h = max(h*s.maxWidth/w, 1)
		w = s.maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}
	return dst
}

// Open returns the stored upload called name.
func (s *Store) Open(name string) (*os.File, error) {
	if !namePattern.MatchString(name) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return f, nil
}

func altText(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
