package library

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// Asset is one piece of uploaded media backing timeline items. Path
// points into the agent's asset store; the ref handed to clients is the
// asset id, resolved back to bytes by the media endpoint.
type Asset struct {
	ID          string        `json:"id"`
	Filename    string        `json:"filename"`
	Kind        timeline.Kind `json:"kind"`
	Path        string        `json:"path"`
	Size        int64         `json:"size"`
	DurationS   float64       `json:"duration_s"`
	Fingerprint string        `json:"fingerprint"`
	CreatedAt   time.Time     `json:"created_at"`
}

var extensionKinds = map[string]timeline.Kind{
	".mp4":  timeline.KindVideo,
	".mov":  timeline.KindVideo,
	".mkv":  timeline.KindVideo,
	".webm": timeline.KindVideo,
	".mp3":  timeline.KindAudio,
	".wav":  timeline.KindAudio,
	".m4a":  timeline.KindAudio,
	".ogg":  timeline.KindAudio,
	".png":  timeline.KindImage,
	".jpg":  timeline.KindImage,
	".jpeg": timeline.KindImage,
	".gif":  timeline.KindImage,
	".webp": timeline.KindImage,
}

// KindForFilename maps a filename to the timeline kind it would back,
// by extension. The second return is false for unsupported files.
func KindForFilename(filename string) (timeline.Kind, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := extensionKinds[ext]
	return kind, ok
}
