// Package imaging stages uploaded images on disk and normalizes them to JPEG.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

const (
	filePrefix  = "upload-"
	jpegQuality = 90

	// DefaultMaxPixels bounds the decoded bitmap, roughly 160 MiB as RGBA.
	DefaultMaxPixels = 40_000_000
)

// Stager writes uploads to a scratch directory and converts them to JPEG.
type Stager struct {
	dir       string
	maxBytes  int64
	maxPixels int64
	now       func() time.Time
}

// NewStager creates the upload directory if needed.
func NewStager(dir string, maxBytes int64) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Stager{dir: dir, maxBytes: maxBytes, maxPixels: DefaultMaxPixels, now: time.Now}, nil
}

// SetMaxPixels caps width*height of accepted images. Zero or less disables the cap.
func (s *Stager) SetMaxPixels(n int64) {
	s.maxPixels = n
}

// Upload is a staged, normalized image. Release must be called once the
// request is done with it.
type Upload struct {
	Name string
	Path string
	JPEG []byte

	once sync.Once
	err  error
}

// DataURL returns the JPEG as a base64 data URL.
func (u *Upload) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(u.JPEG)
}

// Release removes the staged file. Safe to call more than once.
func (u *Upload) Release() error {
	u.once.Do(func() {
		if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
			u.err = err
		}
	})
	return u.err
}

// Stage writes data to a temp file, decodes it and rewrites it as JPEG.
// Decode problems are reported as domain.ErrImageDecode and leave no file behind.
func (s *Stager) Stage(ctx context.Context, data []byte) (*Upload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrImageDecode)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: image is %d bytes, limit is %d", domain.ErrImageDecode, len(data), s.maxBytes)
	}

	name := filePrefix + uuid.NewString() + ".jpg"
	upload := &Upload{Name: name, Path: filepath.Join(s.dir, name)}

	if err := os.WriteFile(upload.Path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	out, err := normalize(data, s.maxPixels)
	if err != nil {
		upload.Release()
		return nil, err
	}
	if err := os.WriteFile(upload.Path, out, 0o600); err != nil {
		upload.Release()
		return nil, fmt.Errorf("failed to write normalized upload: %w", err)
	}
	upload.JPEG = out
	return upload, nil
}

func normalize(data []byte, maxPixels int64) ([]byte, error) {
	// Headers are checked first so a tiny file cannot declare a huge bitmap.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: image is %dx%d, limit is %d pixels", domain.ErrImageDecode, cfg.Width, cfg.Height, maxPixels)
	}

	// JPEG input is re-encoded too, which drops metadata.
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %w", domain.ErrImageDecode, err)
	}
	return buf.Bytes(), nil
}

// DecodeBase64 decodes an inline image, dropping any data URL prefix.
func DecodeBase64(encoded string) ([]byte, error) {
	if i := strings.IndexByte(encoded, ','); i >= 0 {
		encoded = encoded[i+1:]
	}
	encoded = strings.Join(strings.Fields(encoded), "")

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %w", domain.ErrImageDecode, err)
	}
	return data, nil
}

// SweepStale removes staged files older than maxAge and returns how many were removed.
func (s *Stager) SweepStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list upload dir: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove stale upload: %w", err)
		}
		removed++
	}
	return removed, nil
}
