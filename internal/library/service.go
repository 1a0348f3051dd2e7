package library

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

// Service ingests uploads into the asset store: bytes are written to
// assetsDir under the asset id, fingerprinted, and recorded in the
// repository. Identical re-uploads return the existing asset.
type Service struct {
	repo      *Repository
	assetsDir string
	logger    *slog.Logger
}

func NewService(repo *Repository, assetsDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, assetsDir: assetsDir, logger: logger}
}

// Ingest streams src into the store and records the asset. durationS
// comes from the client's probe of the file and may be zero for images
// and text media.
func (s *Service) Ingest(filename string, src io.Reader, durationS float64) (*Asset, error) {
	kind, ok := KindForFilename(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Ext(filename))
	}

	if err := os.MkdirAll(s.assetsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset store: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.assetsDir, id+filepath.Ext(filename))

	size, fingerprint, err := writeAndHash(path, src)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	if existing, err := s.repo.GetByFingerprint(fingerprint); err == nil {
		os.Remove(path)
		s.logger.Info("duplicate upload, reusing asset",
			"asset_id", existing.ID, "filename", filename)
		return existing, nil
	} else if !errors.Is(err, ErrAssetNotFound) {
		os.Remove(path)
		return nil, err
	}

	asset := &Asset{
		ID:          id,
		Filename:    filepath.Base(filename),
		Kind:        kind,
		Path:        path,
		Size:        size,
		DurationS:   durationS,
		Fingerprint: fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(asset); err != nil {
		os.Remove(path)
		return nil, err
	}

	s.logger.Info("asset ingested",
		"asset_id", asset.ID, "filename", asset.Filename, "kind", asset.Kind, "size", asset.Size)
	return asset, nil
}

func (s *Service) Get(id string) (*Asset, error) { return s.repo.Get(id) }
func (s *Service) List() ([]*Asset, error)       { return s.repo.List() }

// Remove deletes the asset record and its stored bytes. A missing file
// is not an error; the record is authoritative.
func (s *Service) Remove(id string) error {
	asset, err := s.repo.Get(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	if err := os.Remove(asset.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove asset file", "asset_id", id, "error", err)
	}
	return nil
}

func writeAndHash(path string, src io.Reader) (int64, string, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create asset file: %w", err)
	}
	defer dst.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(dst, hasher), src)
	if err != nil {
		return 0, "", fmt.Errorf("failed to write asset file: %w", err)
	}
	return size, hex.EncodeToString(hasher.Sum(nil)), nil
}
