package timeline

import "github.com/google/uuid"

// Kind discriminates the item variants placed on the timeline.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// TimeRange is an item's placement on the timeline in seconds.
// Start < End, both >= 0. Trimming mutates the range directly; there
// is no separate source in/out.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r TimeRange) Span() float64 {
	return r.End - r.Start
}

func (r TimeRange) Contains(t float64) bool {
	return t >= r.Start && t <= r.End
}

// Overlaps uses the open-interval test: two ranges overlap iff
// start1 < end2 && start2 < end1. Touching endpoints do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r TimeRange) Valid() bool {
	return r.Start >= 0 && r.Start < r.End
}

// Position is a point on the preview canvas in percentage units (0-100).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry is the 2D placement of an image or text item on the preview
// canvas. Width/Height of zero mean natural size.
type Geometry struct {
	Position Position `json:"position"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Rotation float64  `json:"rotation,omitempty"`
}

// TextStyle carries the typography of a text item.
type TextStyle struct {
	Content    string `json:"content"`
	FontFamily string `json:"font_family,omitempty"`
	FontSize   int    `json:"font_size,omitempty"`
	FontColor  string `json:"font_color,omitempty"`
	FontWeight string `json:"font_weight,omitempty"`
	FontStyle  string `json:"font_style,omitempty"`
	Align      string `json:"align,omitempty"`
}

// Item is a single placed piece of content. Video and audio carry Muted
// and contribute to the project duration; image and text carry Geometry;
// text additionally carries a TextStyle.
type Item struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Name     string    `json:"name"`
	Range    TimeRange `json:"range"`
	Track    int       `json:"track"`
	MediaRef string    `json:"media_ref,omitempty"`
	Color    string    `json:"color,omitempty"`
	Muted    bool      `json:"muted,omitempty"`
	Geometry *Geometry `json:"geometry,omitempty"`
	Text     *TextStyle `json:"text,omitempty"`
}

// TimesDuration reports whether the item contributes to the derived
// project duration. Only video and audio do.
func (i *Item) TimesDuration() bool {
	return i.Kind == KindVideo || i.Kind == KindAudio
}

// HasGeometry reports whether the item is positioned on the preview canvas.
func (i *Item) HasGeometry() bool {
	return i.Kind == KindImage || i.Kind == KindText
}

func (i *Item) clone() *Item {
	c := *i
	if i.Geometry != nil {
		g := *i.Geometry
		c.Geometry = &g
	}
	if i.Text != nil {
		t := *i.Text
		c.Text = &t
	}
	return &c
}

// NewID returns a fresh opaque item identifier.
func NewID() string {
	return uuid.NewString()
}
