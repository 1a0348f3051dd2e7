package project

import (
	"path/filepath"
	"testing"

	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewRepository(database.Conn())
}

func TestCreateGetList(t *testing.T) {
	repo := newTestRepo(t)

	p, err := repo.Create("My Edit")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID == "" || p.Name != "My Edit" {
		t.Fatalf("Create() returned %+v", p)
	}

	got, err := repo.Get(p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "My Edit" {
		t.Errorf("Get().Name = %s", got.Name)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d projects, want 1", len(list))
	}

	if _, err := repo.Get("missing"); err != ErrProjectNotFound {
		t.Errorf("Get(missing) error = %v, want ErrProjectNotFound", err)
	}
}

func TestEnsureDefault(t *testing.T) {
	repo := newTestRepo(t)

	p, err := repo.EnsureDefault()
	if err != nil {
		t.Fatalf("EnsureDefault() error = %v", err)
	}
	if p.Name != "Untitled project" {
		t.Errorf("default project name = %s", p.Name)
	}

	again, err := repo.EnsureDefault()
	if err != nil {
		t.Fatalf("EnsureDefault() second error = %v", err)
	}
	if again.ID != p.ID {
		t.Errorf("EnsureDefault() created a second project")
	}
}

func TestSaveAndLoadItems_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	p, err := repo.Create("roundtrip")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	items := []*timeline.Item{
		{
			ID:       timeline.NewID(),
			Kind:     timeline.KindVideo,
			Name:     "intro.mp4",
			Range:    timeline.TimeRange{Start: 0, End: 12.5},
			Track:    0,
			MediaRef: "asset-1",
			Color:    "#4f46e5",
			Muted:    true,
		},
		{
			ID:    timeline.NewID(),
			Kind:  timeline.KindText,
			Name:  "Title",
			Range: timeline.TimeRange{Start: 1, End: 4},
			Track: 1,
			Geometry: &timeline.Geometry{
				Position: timeline.Position{X: 50, Y: 20},
				Width:    30,
				Height:   10,
				Rotation: 5,
			},
			Text: &timeline.TextStyle{
				Content:    "Hello",
				FontFamily: "Inter",
				FontSize:   48,
				FontColor:  "#ffffff",
				FontWeight: "bold",
				Align:      "center",
			},
		},
	}

	if err := repo.SaveItems(p.ID, items); err != nil {
		t.Fatalf("SaveItems() error = %v", err)
	}

	loaded, err := repo.LoadItems(p.ID)
	if err != nil {
		t.Fatalf("LoadItems() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadItems() returned %d items, want 2", len(loaded))
	}

	video := loaded[0]
	if video.ID != items[0].ID || video.Kind != timeline.KindVideo {
		t.Errorf("first item = %+v", video)
	}
	if video.Range != items[0].Range || !video.Muted || video.MediaRef != "asset-1" {
		t.Errorf("video fields not preserved: %+v", video)
	}
	if video.Geometry != nil || video.Text != nil {
		t.Error("video item should not gain geometry or text on load")
	}

	text := loaded[1]
	if text.Geometry == nil || text.Geometry.Position.X != 50 || text.Geometry.Rotation != 5 {
		t.Errorf("text geometry not preserved: %+v", text.Geometry)
	}
	if text.Text == nil || text.Text.Content != "Hello" || text.Text.FontSize != 48 {
		t.Errorf("text style not preserved: %+v", text.Text)
	}
}

func TestSaveItems_ReplacesPrevious(t *testing.T) {
	repo := newTestRepo(t)
	p, _ := repo.Create("replace")

	first := []*timeline.Item{
		{ID: timeline.NewID(), Kind: timeline.KindAudio, Name: "a", Range: timeline.TimeRange{Start: 0, End: 5}},
		{ID: timeline.NewID(), Kind: timeline.KindAudio, Name: "b", Range: timeline.TimeRange{Start: 5, End: 9}},
	}
	if err := repo.SaveItems(p.ID, first); err != nil {
		t.Fatalf("SaveItems() error = %v", err)
	}

	second := []*timeline.Item{
		{ID: timeline.NewID(), Kind: timeline.KindVideo, Name: "c", Range: timeline.TimeRange{Start: 0, End: 3}},
	}
	if err := repo.SaveItems(p.ID, second); err != nil {
		t.Fatalf("SaveItems() second error = %v", err)
	}

	loaded, err := repo.LoadItems(p.ID)
	if err != nil {
		t.Fatalf("LoadItems() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "c" {
		t.Errorf("LoadItems() after replace = %+v", loaded)
	}
}

func TestDelete_CascadesItems(t *testing.T) {
	repo := newTestRepo(t)
	p, _ := repo.Create("doomed")

	items := []*timeline.Item{
		{ID: timeline.NewID(), Kind: timeline.KindVideo, Name: "x", Range: timeline.TimeRange{Start: 0, End: 1}},
	}
	if err := repo.SaveItems(p.ID, items); err != nil {
		t.Fatalf("SaveItems() error = %v", err)
	}

	if err := repo.Delete(p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	loaded, err := repo.LoadItems(p.ID)
	if err != nil {
		t.Fatalf("LoadItems() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("items survived project delete: %d", len(loaded))
	}

	if err := repo.Delete(p.ID); err != ErrProjectNotFound {
		t.Errorf("Delete(missing) error = %v, want ErrProjectNotFound", err)
	}
}
