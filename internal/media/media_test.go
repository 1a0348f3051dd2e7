package media

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/library"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantLen   int64
		wantErr   bool
	}{
		{"open ended", "bytes=0-", 100, 0, 100, false},
		{"closed", "bytes=10-19", 100, 10, 10, false},
		{"end clamped to size", "bytes=90-199", 100, 90, 10, false},
		{"suffix", "bytes=-25", 100, 75, 25, false},
		{"suffix larger than file", "bytes=-500", 100, 0, 100, false},
		{"start past end of file", "bytes=100-", 100, 0, 0, true},
		{"end before start", "bytes=50-10", 100, 0, 0, true},
		{"multi-range unsupported", "bytes=0-1,5-6", 100, 0, 0, true},
		{"missing unit", "0-10", 100, 0, 0, true},
		{"garbage", "bytes=abc-def", 100, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br, err := parseRange(tt.header, tt.size)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseRange(%q) expected error", tt.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRange(%q) error = %v", tt.header, err)
			}
			if br.start != tt.wantStart || br.length != tt.wantLen {
				t.Errorf("parseRange(%q) = (%d, %d), want (%d, %d)",
					tt.header, br.start, br.length, tt.wantStart, tt.wantLen)
			}
		})
	}
}

func newTestHandler(t *testing.T) (*Handler, *library.Asset) {
	t.Helper()
	tmpDir := t.TempDir()

	database, err := db.New(filepath.Join(tmpDir, "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	svc := library.NewService(library.NewRepository(database.Conn()),
		filepath.Join(tmpDir, "assets"), nil)
	asset, err := svc.Ingest("clip.mp4", strings.NewReader("0123456789"), 1)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	return NewHandler(svc, nil), asset
}

func TestServeAsset_FullFile(t *testing.T) {
	h, asset := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/media/"+asset.ID, nil)
	rec := httptest.NewRecorder()
	h.ServeAsset(rec, req, asset.ID)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("missing Accept-Ranges header")
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "0123456789" {
		t.Errorf("body = %q", body)
	}
}

func TestServeAsset_PartialContent(t *testing.T) {
	h, asset := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/media/"+asset.ID, nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	h.ServeAsset(rec, req, asset.ID)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q, want bytes 2-5/10", got)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "2345" {
		t.Errorf("body = %q, want 2345", body)
	}
}

func TestServeAsset_UnsatisfiableRange(t *testing.T) {
	h, asset := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/media/"+asset.ID, nil)
	req.Header.Set("Range", "bytes=50-")
	rec := httptest.NewRecorder()
	h.ServeAsset(rec, req, asset.ID)

	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */10" {
		t.Errorf("Content-Range = %q, want bytes */10", got)
	}
}

func TestServeAsset_UnknownAsset(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/media/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeAsset(rec, req, "nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
