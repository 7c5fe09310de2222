package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveNormalizesLargeImage(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save(pngBytes(t, 1200, 800), "cover.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(saved.FileName, ".jpg"))

	stored, err := os.ReadFile(store.Path(saved.FileName))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, ThumbnailBound, bounds.Dx())
	// aspect ratio preserved inside the bounding box
	assert.Less(t, bounds.Dy(), ThumbnailBound)
}

func TestSaveFallsBackOnUndecodableBytes(t *testing.T) {
	store := newTestStore(t)

	raw := []byte("definitely not an image")
	saved, err := store.Save(raw, "mystery.webp")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(saved.FileName, ".webp"))

	stored, err := os.ReadFile(store.Path(saved.FileName))
	require.NoError(t, err)
	assert.Equal(t, raw, stored)
}

func TestSavedFileNamesNeverCollide(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Save([]byte("a"), "same.png")
	require.NoError(t, err)
	second, err := store.Save([]byte("b"), "same.png")
	require.NoError(t, err)

	assert.NotEqual(t, first.FileName, second.FileName)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save([]byte("x"), "x.bin")
	require.NoError(t, err)

	require.NoError(t, store.Delete(saved.FileName))
	require.NoError(t, store.Delete(saved.FileName))
	require.NoError(t, store.Delete("never-existed.jpg"))
}

func TestSweepRemovesOnlyOrphans(t *testing.T) {
	store := newTestStore(t)

	kept, err := store.Save([]byte("kept"), "kept.bin")
	require.NoError(t, err)
	orphan, err := store.Save([]byte("orphan"), "orphan.bin")
	require.NoError(t, err)

	removed, err := store.Sweep([]string{kept.FileName}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	require.FileExists(t, store.Path(kept.FileName))
	_, err = os.Stat(filepath.Join(store.Path(orphan.FileName)))
	assert.True(t, os.IsNotExist(err))
}

func TestSweepSparesFilesWithinGracePeriod(t *testing.T) {
	store := newTestStore(t)

	inflight, err := store.Save([]byte("just uploaded"), "inflight.bin")
	require.NoError(t, err)
	stale, err := store.Save([]byte("long orphaned"), "stale.bin")
	require.NoError(t, err)
	twoHoursAgo := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(stale.FileName), twoHoursAgo, twoHoursAgo))

	removed, err := store.Sweep(nil, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// the fresh file may belong to a request whose row has not committed yet
	require.FileExists(t, store.Path(inflight.FileName))
	require.NoFileExists(t, store.Path(stale.FileName))
}
