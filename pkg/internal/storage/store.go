package storage

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	ThumbnailBound = 500
	JpegQuality    = 85
)

// Store keeps ticket images on the local filesystem, one file per upload,
// named by a fresh UUID so uploads never collide or overwrite each other.
type Store struct {
	root   string
	logger zerolog.Logger
}

type SavedImage struct {
	FileName string
	Meta     map[string]any
}

func NewStore(root string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, logger: logger}, nil
}

// Save normalizes the upload to a bounded thumbnail and persists it. When the
// bytes cannot be decoded as an image the original file is stored as-is; a
// broken normalizer must not reject the upload.
func (s *Store) Save(raw []byte, originalName string) (*SavedImage, error) {
	data, ext := s.normalize(raw, originalName)

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.root, name), data, 0o644); err != nil {
		return nil, err
	}

	return &SavedImage{
		FileName: name,
		Meta: map[string]any{
			"original_name": originalName,
			"original_size": len(raw),
			"stored_size":   len(data),
		},
	}, nil
}

// normalize resizes to fit the thumbnail bounding box, preserving aspect
// ratio, and re-encodes as quality-optimized JPEG.
func (s *Store) normalize(raw []byte, originalName string) ([]byte, string) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		s.logger.Warn().Err(err).Str("file", originalName).
			Msg("Unable to decode uploaded image, storing the original file...")
		return raw, originalExt(originalName)
	}

	img = imaging.Fit(img, ThumbnailBound, ThumbnailBound, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JpegQuality)); err != nil {
		s.logger.Warn().Err(err).Str("file", originalName).
			Msg("Unable to re-encode uploaded image, storing the original file...")
		return raw, originalExt(originalName)
	}

	return buf.Bytes(), ".jpg"
}

// Delete removes a stored file and treats an already-absent file as success.
func (s *Store) Delete(fileName string) error {
	if len(fileName) == 0 {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, fileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Path(fileName string) string {
	return filepath.Join(s.root, fileName)
}

// Sweep deletes every file in the store that is not in the referenced set.
// Used by the scheduled cleanup for files orphaned by crashed requests.
// Files modified within the grace period are spared: an upload is written
// before its ticket row commits, so a brand-new file without a reference may
// belong to a request still in flight.
func (s *Store) Sweep(referenced []string, grace time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-grace)
	var removed int
	for _, entry := range entries {
		if entry.IsDir() || lo.Contains(referenced, entry.Name()) {
			continue
		}
		if info, err := entry.Info(); err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := s.Delete(entry.Name()); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Unable to sweep orphan image...")
			continue
		}
		removed++
	}

	return removed, nil
}

func originalExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) == 0 {
		ext = ".bin"
	}
	return ext
}
