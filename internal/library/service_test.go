package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	tmpDir := t.TempDir()

	database, err := db.New(filepath.Join(tmpDir, "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := NewRepository(database.Conn())
	return NewService(repo, filepath.Join(tmpDir, "assets"), nil)
}

func TestIngest_StoresFileAndRecord(t *testing.T) {
	svc := newTestService(t)

	asset, err := svc.Ingest("clip.mp4", strings.NewReader("fake mp4 bytes"), 42.5)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if asset.Kind != timeline.KindVideo {
		t.Errorf("Kind = %s, want video", asset.Kind)
	}
	if asset.DurationS != 42.5 {
		t.Errorf("DurationS = %v, want 42.5", asset.DurationS)
	}
	if asset.Size != int64(len("fake mp4 bytes")) {
		t.Errorf("Size = %d, want %d", asset.Size, len("fake mp4 bytes"))
	}

	data, err := os.ReadFile(asset.Path)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "fake mp4 bytes" {
		t.Errorf("stored bytes = %q", data)
	}

	got, err := svc.Get(asset.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Fingerprint != asset.Fingerprint {
		t.Errorf("Fingerprint mismatch: %s vs %s", got.Fingerprint, asset.Fingerprint)
	}
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Ingest("notes.txt", strings.NewReader("hello"), 0); err == nil {
		t.Fatal("Ingest() with .txt should fail")
	}
}

func TestIngest_DeduplicatesByFingerprint(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Ingest("a.mp4", strings.NewReader("same bytes"), 10)
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	second, err := svc.Ingest("b.mp4", strings.NewReader("same bytes"), 10)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("duplicate upload got new asset %s, want %s", second.ID, first.ID)
	}

	assets, err := svc.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(assets) != 1 {
		t.Errorf("List() returned %d assets, want 1", len(assets))
	}
}

func TestRemove_DeletesRecordAndFile(t *testing.T) {
	svc := newTestService(t)

	asset, err := svc.Ingest("clip.webm", strings.NewReader("bytes"), 5)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if err := svc.Remove(asset.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := svc.Get(asset.ID); err != ErrAssetNotFound {
		t.Errorf("Get() after remove error = %v, want ErrAssetNotFound", err)
	}
	if _, err := os.Stat(asset.Path); !os.IsNotExist(err) {
		t.Errorf("asset file still present after remove")
	}
}

func TestKindForFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     timeline.Kind
		ok       bool
	}{
		{"movie.MP4", timeline.KindVideo, true},
		{"track.wav", timeline.KindAudio, true},
		{"still.jpeg", timeline.KindImage, true},
		{"doc.pdf", "", false},
		{"noext", "", false},
	}

	for _, tt := range tests {
		kind, ok := KindForFilename(tt.filename)
		if ok != tt.ok || kind != tt.want {
			t.Errorf("KindForFilename(%q) = (%s, %v), want (%s, %v)",
				tt.filename, kind, ok, tt.want, tt.ok)
		}
	}
}
