// Package project persists compositions to sqlite. Items are stored
// flattened, one row per item, and hydrated back into timeline items
// on load.
package project

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

var ErrProjectNotFound = errors.New("project not found")

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(name string) (*Project, error) {
	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.Exec(`
		INSERT INTO projects (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// EnsureDefault creates an "Untitled project" on first run so the
// editor always has something to open. Returns the existing newest
// project otherwise.
func (r *Repository) EnsureDefault() (*Project, error) {
	projects, err := r.List()
	if err != nil {
		return nil, err
	}
	if len(projects) > 0 {
		return projects[0], nil
	}
	return r.Create("Untitled project")
}

func (r *Repository) Get(id string) (*Project, error) {
	row := r.db.QueryRow(
		"SELECT id, name, created_at, updated_at FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

func (r *Repository) List() ([]*Project, error) {
	rows, err := r.db.Query(
		"SELECT id, name, created_at, updated_at FROM projects ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// SaveItems replaces the project's item rows with the given set in one
// transaction. Sort order preserves the composition's insertion order
// so hydration reproduces it.
func (r *Repository) SaveItems(projectID string, items []*timeline.Item) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM project_items WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO project_items (
			id, project_id, kind, name, start_s, end_s, track, media_ref, color, muted,
			pos_x, pos_y, width, height, rotation,
			text_content, font_family, font_size, font_color, font_weight, font_style, text_align,
			sort
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for sort, item := range items {
		var posX, posY, width, height, rotation any
		if item.Geometry != nil {
			posX, posY = item.Geometry.Position.X, item.Geometry.Position.Y
			width, height = item.Geometry.Width, item.Geometry.Height
			rotation = item.Geometry.Rotation
		}
		var content, family, color, weight, style, align any
		var size any
		if item.Text != nil {
			content, family = item.Text.Content, item.Text.FontFamily
			size = item.Text.FontSize
			color, weight = item.Text.FontColor, item.Text.FontWeight
			style, align = item.Text.FontStyle, item.Text.Align
		}

		_, err := stmt.Exec(
			item.ID, projectID, string(item.Kind), item.Name,
			item.Range.Start, item.Range.End, item.Track, item.MediaRef, item.Color, item.Muted,
			posX, posY, width, height, rotation,
			content, family, size, color, weight, style, align,
			sort)
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
		}
	}

	if _, err := tx.Exec(
		"UPDATE projects SET updated_at = ? WHERE id = ?",
		formatTime(time.Now().UTC()), projectID); err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}

	return tx.Commit()
}

// LoadItems hydrates the project's items in saved order.
func (r *Repository) LoadItems(projectID string) ([]*timeline.Item, error) {
	rows, err := r.db.Query(`
		SELECT id, kind, name, start_s, end_s, track, media_ref, color, muted,
		       pos_x, pos_y, width, height, rotation,
		       text_content, font_family, font_size, font_color, font_weight, font_style, text_align
		FROM project_items WHERE project_id = ? ORDER BY sort`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	var items []*timeline.Item
	for rows.Next() {
		var item timeline.Item
		var kind string
		var mediaRef, color sql.NullString
		var posX, posY, width, height, rotation sql.NullFloat64
		var content, family, fontColor, weight, style, align sql.NullString
		var size sql.NullInt64

		err := rows.Scan(
			&item.ID, &kind, &item.Name, &item.Range.Start, &item.Range.End,
			&item.Track, &mediaRef, &color, &item.Muted,
			&posX, &posY, &width, &height, &rotation,
			&content, &family, &size, &fontColor, &weight, &style, &align)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		item.Kind = timeline.Kind(kind)
		item.MediaRef = mediaRef.String
		item.Color = color.String
		if posX.Valid {
			item.Geometry = &timeline.Geometry{
				Position: timeline.Position{X: posX.Float64, Y: posY.Float64},
				Width:    width.Float64,
				Height:   height.Float64,
				Rotation: rotation.Float64,
			}
		}
		if content.Valid {
			item.Text = &timeline.TextStyle{
				Content:    content.String,
				FontFamily: family.String,
				FontSize:   int(size.Int64),
				FontColor:  fontColor.String,
				FontWeight: weight.String,
				FontStyle:  style.String,
				Align:      align.String,
			}
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var p Project
	var created, updated string
	if err := row.Scan(&p.ID, &p.Name, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("failed to parse project timestamp: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("failed to parse project timestamp: %w", err)
	}
	return &p, nil
}
