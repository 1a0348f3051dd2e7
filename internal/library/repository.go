package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

var ErrAssetNotFound = errors.New("asset not found")

// Repository persists asset metadata in sqlite. File bytes live on
// disk under the asset store; only paths and fingerprints go here.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(a *Asset) error {
	_, err := r.db.Exec(`
		INSERT INTO assets (id, filename, kind, path, size, duration_s, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Filename, string(a.Kind), a.Path, a.Size, a.DurationS, a.Fingerprint,
		a.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return nil
}

func (r *Repository) Get(id string) (*Asset, error) {
	row := r.db.QueryRow(`
		SELECT id, filename, kind, path, size, duration_s, fingerprint, created_at
		FROM assets WHERE id = ?`, id)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	return asset, err
}

// GetByFingerprint finds an already-ingested copy of the same bytes,
// used to dedupe repeat uploads.
func (r *Repository) GetByFingerprint(fp string) (*Asset, error) {
	row := r.db.QueryRow(`
		SELECT id, filename, kind, path, size, duration_s, fingerprint, created_at
		FROM assets WHERE fingerprint = ? LIMIT 1`, fp)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	return asset, err
}

func (r *Repository) List() ([]*Asset, error) {
	rows, err := r.db.Query(`
		SELECT id, filename, kind, path, size, duration_s, fingerprint, created_at
		FROM assets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM assets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssetNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*Asset, error) {
	var a Asset
	var kind, createdAt string
	if err := row.Scan(&a.ID, &a.Filename, &kind, &a.Path, &a.Size, &a.DurationS, &a.Fingerprint, &createdAt); err != nil {
		return nil, err
	}
	a.Kind = timeline.Kind(kind)
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse asset timestamp: %w", err)
	}
	a.CreatedAt = t
	return &a, nil
}
