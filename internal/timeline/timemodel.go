package timeline

// Zoom bounds for the user-controlled scale, in pixels per second.
const (
	MinPixelsPerSecond = 10.0
	MaxPixelsPerSecond = 500.0
)

// Scale maps wall-clock seconds to pixel offsets along the timeline.
// The zero value is unusable; construct with NewScale or FitScale.
type Scale struct {
	PixelsPerSecond float64
}

// NewScale builds a scale from a user zoom value, clamped to the
// supported pixels-per-second range.
func NewScale(pixelsPerSecond float64) Scale {
	if pixelsPerSecond < MinPixelsPerSecond {
		pixelsPerSecond = MinPixelsPerSecond
	}
	if pixelsPerSecond > MaxPixelsPerSecond {
		pixelsPerSecond = MaxPixelsPerSecond
	}
	return Scale{PixelsPerSecond: pixelsPerSecond}
}

// FitScale computes the scale at which the whole duration fits the
// viewport width. A zero duration or degenerate viewport falls back to
// the minimum scale instead of dividing by zero.
func FitScale(viewportWidth, duration float64) Scale {
	if duration <= 0 || viewportWidth <= 0 {
		return Scale{PixelsPerSecond: MinPixelsPerSecond}
	}
	pps := viewportWidth / duration
	if pps < MinPixelsPerSecond {
		pps = MinPixelsPerSecond
	}
	return Scale{PixelsPerSecond: pps}
}

func (s Scale) TimeToPixel(t float64) float64 {
	return t * s.PixelsPerSecond
}

func (s Scale) PixelToTime(p float64) float64 {
	if s.PixelsPerSecond <= 0 {
		return 0
	}
	return p / s.PixelsPerSecond
}

// MarkerStep picks the ruler tick interval in seconds for the current
// scale so labels stay readable when zoomed out.
func (s Scale) MarkerStep() float64 {
	switch {
	case s.PixelsPerSecond < 20:
		return 10
	case s.PixelsPerSecond < 50:
		return 5
	case s.PixelsPerSecond < 100:
		return 2
	default:
		return 1
	}
}
