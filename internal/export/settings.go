package export

import (
	"fmt"
	"strings"
)

// Settings selects how a composition is rendered. The choices mirror
// what the render service accepts; anything else is rejected up front
// so a bad job never enters the queue.
type Settings struct {
	Quality    string `json:"quality"`
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
}

var (
	validQualities   = map[string]bool{"high": true, "medium": true, "low": true}
	validFormats     = map[string]bool{"mp4": true, "webm": true, "avi": true}
	validResolutions = map[string]bool{"1920x1080": true, "1280x720": true, "854x480": true}
)

func DefaultSettings() Settings {
	return Settings{Quality: "high", Format: "mp4", Resolution: "1920x1080"}
}

func (s Settings) Validate() error {
	if !validQualities[s.Quality] {
		return fmt.Errorf("invalid quality %q", s.Quality)
	}
	if !validFormats[s.Format] {
		return fmt.Errorf("invalid format %q", s.Format)
	}
	if !validResolutions[s.Resolution] {
		return fmt.Errorf("invalid resolution %q", s.Resolution)
	}
	return nil
}

// SanitizeName makes a project name safe to use as an output filename.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "export"
	}
	return out
}
