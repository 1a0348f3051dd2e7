// Package media serves stored asset bytes over HTTP with byte-range
// support, which browser <video> elements require for seeking.
package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cutroom/cutroom-agent/internal/library"
)

var errBadRange = errors.New("malformed range header")

type byteRange struct {
	start  int64
	length int64
}

// parseRange interprets a single-range "bytes=" header against a file
// of the given size. Multi-range requests fall back to a full
// response, matching what media playback actually sends.
func parseRange(header string, size int64) (*byteRange, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, errBadRange
	}
	if strings.Contains(spec, ",") {
		return nil, errBadRange
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return nil, errBadRange
	}

	if startStr == "" {
		// Suffix form: last N bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return nil, errBadRange
		}
		if n > size {
			n = size
		}
		return &byteRange{start: size - n, length: n}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 || start >= size {
		return nil, errBadRange
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return nil, errBadRange
		}
		if end >= size {
			end = size - 1
		}
	}
	return &byteRange{start: start, length: end - start + 1}, nil
}

// Handler resolves asset ids to files and streams them.
type Handler struct {
	assets *library.Service
	logger *slog.Logger
}

func NewHandler(assets *library.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{assets: assets, logger: logger}
}

// ServeAsset writes the asset's bytes, honoring a single Range header.
func (h *Handler) ServeAsset(w http.ResponseWriter, r *http.Request, assetID string) {
	asset, err := h.assets.Get(assetID)
	if err != nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		h.logger.Error("asset file missing", "asset_id", assetID, "error", err)
		http.Error(w, "asset unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "asset unavailable", http.StatusInternalServerError)
		return
	}
	size := info.Size()

	w.Header().Set("Content-Type", contentType(asset.Path))
	w.Header().Set("Accept-Ranges", "bytes")

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, f)
		return
	}

	br, err := parseRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "invalid range", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := f.Seek(br.start, io.SeekStart); err != nil {
		http.Error(w, "asset unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(br.length, 10))
	w.Header().Set("Content-Range",
		fmt.Sprintf("bytes %d-%d/%d", br.start, br.start+br.length-1, size))
	w.WriteHeader(http.StatusPartialContent)
	io.CopyN(w, f, br.length)
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
