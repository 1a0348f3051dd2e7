package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// ManifestClip is one timeline item flattened for the render service.
type ManifestClip struct {
	ItemID    string  `json:"item_id"`
	Kind      string  `json:"kind"`
	MediaRef  string  `json:"media_ref,omitempty"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Track     int     `json:"track"`
	Muted     bool    `json:"muted,omitempty"`
	PosX      float64 `json:"pos_x,omitempty"`
	PosY      float64 `json:"pos_y,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Rotation  float64 `json:"rotation,omitempty"`
	Text      string  `json:"text,omitempty"`
	FontSize  int     `json:"font_size,omitempty"`
	FontColor string  `json:"font_color,omitempty"`
}

// Manifest is the full render order for one export job.
type Manifest struct {
	JobID      string         `json:"job_id"`
	ProjectID  string         `json:"project_id"`
	OutputName string         `json:"output_name"`
	Settings   Settings       `json:"settings"`
	DurationS  float64        `json:"duration_s"`
	Clips      []ManifestClip `json:"clips"`
}

// BuildManifest flattens the composition into render order: clips
// sorted by track then start time, geometry and text inlined. The
// manifest duration is the real content extent, not the padded
// timeline canvas.
func BuildManifest(jobID, projectID, projectName string, items []*timeline.Item, settings Settings) Manifest {
	clips := make([]ManifestClip, 0, len(items))
	contentEnd := 0.0
	for _, item := range items {
		clip := ManifestClip{
			ItemID:   item.ID,
			Kind:     string(item.Kind),
			MediaRef: item.MediaRef,
			Start:    item.Range.Start,
			End:      item.Range.End,
			Track:    item.Track,
			Muted:    item.Muted,
		}
		if item.Geometry != nil {
			clip.PosX = item.Geometry.Position.X
			clip.PosY = item.Geometry.Position.Y
			clip.Width = item.Geometry.Width
			clip.Height = item.Geometry.Height
			clip.Rotation = item.Geometry.Rotation
		}
		if item.Text != nil {
			clip.Text = item.Text.Content
			clip.FontSize = item.Text.FontSize
			clip.FontColor = item.Text.FontColor
		}
		clips = append(clips, clip)
		if item.Range.End > contentEnd {
			contentEnd = item.Range.End
		}
	}

	sort.SliceStable(clips, func(i, j int) bool {
		if clips[i].Track != clips[j].Track {
			return clips[i].Track < clips[j].Track
		}
		return clips[i].Start < clips[j].Start
	})

	return Manifest{
		JobID:      jobID,
		ProjectID:  projectID,
		OutputName: SanitizeName(projectName),
		Settings:   settings,
		DurationS:  contentEnd,
		Clips:      clips,
	}
}

// EDL renders a CMX-style edit decision list for the manifest, a
// sidecar for interchange with desktop NLEs. Only video and audio
// clips carry events.
func (m Manifest) EDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", m.OutputName)
	b.WriteString("FCM: NON-DROP FRAME\n\n")

	event := 1
	for _, clip := range m.Clips {
		if clip.Kind != "video" && clip.Kind != "audio" {
			continue
		}
		channel := "V"
		if clip.Kind == "audio" {
			channel = "A"
		}
		fmt.Fprintf(&b, "%03d  AX       %s     C        %s %s %s %s\n",
			event, channel,
			secondsToTimecode(0), secondsToTimecode(clip.End-clip.Start),
			secondsToTimecode(clip.Start), secondsToTimecode(clip.End))
		if clip.MediaRef != "" {
			fmt.Fprintf(&b, "* FROM CLIP NAME: %s\n", clip.MediaRef)
		}
		b.WriteString("\n")
		event++
	}
	return b.String()
}

// secondsToTimecode formats seconds as HH:MM:SS:FF at 30 fps.
func secondsToTimecode(s float64) string {
	if s < 0 {
		s = 0
	}
	total := int(s)
	frames := int((s - float64(total)) * 30)
	return fmt.Sprintf("%02d:%02d:%02d:%02d",
		total/3600, (total%3600)/60, total%60, frames)
}
