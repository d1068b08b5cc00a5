package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestStager(t *testing.T) *Stager {
	t.Helper()
	s, err := NewStager(filepath.Join(t.TempDir(), "uploads"), 1<<20)
	require.NoError(t, err)
	return s
}

func TestStageNormalizesToJPEG(t *testing.T) {
	s := newTestStager(t)

	upload, err := s.Stage(context.Background(), pngBytes(t))
	require.NoError(t, err)

	_, err = os.Stat(upload.Path)
	require.NoError(t, err, "staged file should exist until released")

	_, err = jpeg.Decode(bytes.NewReader(upload.JPEG))
	require.NoError(t, err)
	assert.Contains(t, upload.DataURL(), "data:image/jpeg;base64,")

	require.NoError(t, upload.Release())
	require.NoError(t, upload.Release())
	_, err = os.Stat(upload.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestStageRejectsGarbage(t *testing.T) {
	s := newTestStager(t)

	_, err := s.Stage(context.Background(), []byte("definitely not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrImageDecode)

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed decode must not leave files")
}

func TestStageRejectsOversized(t *testing.T) {
	s, err := NewStager(t.TempDir(), 8)
	require.NoError(t, err)

	_, err = s.Stage(context.Background(), pngBytes(t))
	assert.ErrorIs(t, err, domain.ErrImageDecode)
}

// hugePNG is a 1x1 PNG whose header claims width x height pixels.
func hugePNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()

	// Signature (8) then IHDR: length (4), type (4), width, height, ..., crc.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestStageRejectsOversizedDimensions(t *testing.T) {
	s := newTestStager(t)

	data := hugePNG(t, 60000, 60000)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 60000, cfg.Width)

	_, err = s.Stage(context.Background(), data)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrImageDecode)
	assert.Contains(t, err.Error(), "60000x60000")

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageMaxPixelsIsConfigurable(t *testing.T) {
	s := newTestStager(t)
	s.SetMaxPixels(8)

	_, err := s.Stage(context.Background(), pngBytes(t))
	assert.ErrorIs(t, err, domain.ErrImageDecode)

	s.SetMaxPixels(16)
	upload, err := s.Stage(context.Background(), pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, upload.Release())
}

func TestStageHonorsCancelledContext(t *testing.T) {
	s := newTestStager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Stage(ctx, pngBytes(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeBase64(t *testing.T) {
	raw := []byte("hello image")
	encoded := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeBase64(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeBase64("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeBase64(base64.RawStdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = DecodeBase64("!!!not base64!!!")
	assert.ErrorIs(t, err, domain.ErrImageDecode)
}

func TestSweepStale(t *testing.T) {
	s := newTestStager(t)

	old := filepath.Join(s.dir, filePrefix+"old.jpg")
	fresh := filepath.Join(s.dir, filePrefix+"fresh.jpg")
	other := filepath.Join(s.dir, "keep.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(other, past, past))

	removed, err := s.SweepStale(10 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(other)
	assert.NoError(t, err)
}
