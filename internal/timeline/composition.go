package timeline

import "errors"

const (
	// MinDuration is the floor for the derived project duration, in
	// seconds. An empty composition still presents a five-minute canvas.
	MinDuration = 300.0

	// MinClipSpan is the smallest timeline span a trim may leave behind.
	MinClipSpan = 0.5
)

var ErrInvalidRange = errors.New("item range must satisfy 0 <= start < end")

// Composition is the authoritative in-memory model of a project: the
// placed items, the playhead, the selection, and the derived duration.
// All views read from it and write through its mutation operations.
// It is not safe for concurrent use; callers serialize access.
type Composition struct {
	items       []*Item
	selected    string
	currentTime float64
	playing     bool
	duration    float64
}

func NewComposition() *Composition {
	return &Composition{duration: MinDuration}
}

// ItemSpec describes an item to be added. A negative Track asks the
// store to resolve a free track via FindAvailableTrack.
type ItemSpec struct {
	Kind     Kind
	Name     string
	Range    TimeRange
	Track    int
	MediaRef string
	Color    string
	Muted    bool
	Geometry *Geometry
	Text     *TextStyle
}

// AddItem validates the spec, assigns a fresh id, resolves the track if
// not explicit, and recomputes the derived duration.
func (c *Composition) AddItem(spec ItemSpec) (*Item, error) {
	if !spec.Range.Valid() {
		return nil, ErrInvalidRange
	}

	track := spec.Track
	if track < 0 {
		track = FindAvailableTrack(spec.Range.Start, spec.Range.End, c.items)
	}

	item := &Item{
		ID:       NewID(),
		Kind:     spec.Kind,
		Name:     spec.Name,
		Range:    spec.Range,
		Track:    track,
		MediaRef: spec.MediaRef,
		Color:    spec.Color,
		Muted:    spec.Muted,
		Geometry: spec.Geometry,
		Text:     spec.Text,
	}

	c.items = append(c.items, item)
	c.recalcDuration()
	return item.clone(), nil
}

// ItemUpdate is a partial update; nil fields are left untouched.
type ItemUpdate struct {
	Name     *string
	Start    *float64
	End      *float64
	Track    *int
	MediaRef *string
	Muted    *bool
	Geometry *Geometry
	Text     *TextStyle
}

// UpdateItem merges the update into the item. Unknown ids are a no-op,
// not an error: a delete can race an in-flight drag and callers must
// tolerate stale ids. A range update that would produce start >= end is
// dropped while the rest of the update applies. Returns whether the
// item was found.
func (c *Composition) UpdateItem(id string, upd ItemUpdate) bool {
	item := c.find(id)
	if item == nil {
		return false
	}

	next := item.Range
	if upd.Start != nil {
		next.Start = *upd.Start
	}
	if upd.End != nil {
		next.End = *upd.End
	}
	rangeChanged := next != item.Range
	if rangeChanged && next.Valid() {
		item.Range = next
	}

	if upd.Name != nil {
		item.Name = *upd.Name
	}
	if upd.Track != nil && *upd.Track >= 0 {
		item.Track = *upd.Track
	}
	if upd.MediaRef != nil {
		item.MediaRef = *upd.MediaRef
	}
	if upd.Muted != nil {
		item.Muted = *upd.Muted
	}
	if upd.Geometry != nil && item.HasGeometry() {
		g := *upd.Geometry
		item.Geometry = &g
	}
	if upd.Text != nil && item.Kind == KindText {
		t := *upd.Text
		item.Text = &t
	}

	if rangeChanged && item.TimesDuration() {
		c.recalcDuration()
	}
	return true
}

// RemoveItem deletes the item and recomputes the duration. Unknown ids
// are a no-op. A removed item also loses the selection.
func (c *Composition) RemoveItem(id string) {
	for idx, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:idx], c.items[idx+1:]...)
			if c.selected == id {
				c.selected = ""
			}
			c.recalcDuration()
			return
		}
	}
}

// SetSelection selects the given item, or clears the selection when id
// is empty. Selecting an unknown id clears as well.
func (c *Composition) SetSelection(id string) {
	if id != "" && c.find(id) == nil {
		id = ""
	}
	c.selected = id
}

func (c *Composition) Selection() string {
	return c.selected
}

// SetCurrentTime clamps to [0, duration] and returns the applied value.
func (c *Composition) SetCurrentTime(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > c.duration {
		t = c.duration
	}
	c.currentTime = t
	return t
}

func (c *Composition) CurrentTime() float64 {
	return c.currentTime
}

func (c *Composition) SetPlaying(playing bool) {
	c.playing = playing
}

func (c *Composition) Playing() bool {
	return c.playing
}

// Duration is derived: the max end time over video/audio items, floored
// at MinDuration.
func (c *Composition) Duration() float64 {
	return c.duration
}

// Item returns a copy of the item, or nil if unknown.
func (c *Composition) Item(id string) *Item {
	item := c.find(id)
	if item == nil {
		return nil
	}
	return item.clone()
}

// Items returns copies of all items in insertion order.
func (c *Composition) Items() []*Item {
	out := make([]*Item, len(c.items))
	for i, item := range c.items {
		out[i] = item.clone()
	}
	return out
}

// ItemsAt returns copies of the items whose range contains t.
func (c *Composition) ItemsAt(t float64) []*Item {
	var out []*Item
	for _, item := range c.items {
		if item.Range.Contains(t) {
			out = append(out, item.clone())
		}
	}
	return out
}

// Replace swaps in a full item set, as when hydrating a saved project.
// Invalid items are dropped rather than poisoning the store.
func (c *Composition) Replace(items []*Item) {
	c.items = c.items[:0]
	for _, item := range items {
		if !item.Range.Valid() || item.Track < 0 {
			continue
		}
		c.items = append(c.items, item.clone())
	}
	c.selected = ""
	c.currentTime = 0
	c.playing = false
	c.recalcDuration()
}

func (c *Composition) find(id string) *Item {
	for _, item := range c.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (c *Composition) recalcDuration() {
	maxEnd := 0.0
	for _, item := range c.items {
		if item.TimesDuration() && item.Range.End > maxEnd {
			maxEnd = item.Range.End
		}
	}
	if maxEnd < MinDuration {
		maxEnd = MinDuration
	}
	c.duration = maxEnd
	if c.currentTime > c.duration {
		c.currentTime = c.duration
	}
}
