package timeline

import "errors"

// Gesture identifies what a pointer-drag manipulates.
type Gesture string

const (
	GesturePlayhead     Gesture = "playhead"
	GestureTrimStart    Gesture = "trim_start"
	GestureTrimEnd      Gesture = "trim_end"
	GestureMove         Gesture = "move"
	GestureCanvasMove   Gesture = "canvas_move"
	GestureCanvasResize Gesture = "canvas_resize"
)

// Handle names one of the eight resize grips on a canvas item.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

const (
	// MinSizePercent is the smallest width/height a resize may leave, in
	// percent of the canvas.
	MinSizePercent = 2.0

	// SnapThresholdPercent is how close an edge must get to the canvas
	// border before it snaps flush to it.
	SnapThresholdPercent = 2.0
)

// Pointer is an abstract pointer position in pixels, independent of any
// windowing toolkit.
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

var (
	ErrGestureActive  = errors.New("a gesture is already in progress")
	ErrUnknownItem    = errors.New("gesture target item not found")
	ErrMissingHandle  = errors.New("canvas resize requires a handle")
	ErrUnknownGesture = errors.New("unknown gesture kind")
)

// Controller turns pointer-down/move/up events into composition
// mutations. It is a two-state machine: idle, or dragging one gesture.
// Deltas are always computed against the snapshot taken at pointer-down
// so repeated moves cannot accumulate drift. Every move is committed to
// the store immediately; there is no buffering and no cancel gesture.
type Controller struct {
	comp  *Composition
	scale Scale

	canvasWidth  float64
	canvasHeight float64

	dragging bool
	gesture  Gesture
	handle   Handle
	itemID   string

	origin     Pointer
	originTime float64
	originItem TimeRange
	originGeom Geometry

	snapX bool
	snapY bool
}

func NewController(comp *Composition, scale Scale) *Controller {
	return &Controller{comp: comp, scale: scale}
}

// SetScale updates the time/pixel mapping, as when zoom or fit mode
// changes. Taking effect mid-gesture is fine: deltas are re-derived
// from the origin on the next move.
func (g *Controller) SetScale(scale Scale) {
	g.scale = scale
}

// SetCanvasSize records the preview canvas size in pixels so pointer
// deltas can be converted to percentage units.
func (g *Controller) SetCanvasSize(width, height float64) {
	g.canvasWidth = width
	g.canvasHeight = height
}

func (g *Controller) Dragging() bool {
	return g.dragging
}

// SnapIndicator reports whether the last move snapped an edge to the
// canvas border on each axis, for the view to flash a guide line.
func (g *Controller) SnapIndicator() (x, y bool) {
	return g.snapX, g.snapY
}

// PointerDown starts a gesture, capturing the origin pointer position
// and the target's current time/geometry as the delta basis. Item
// gestures also move the selection to the item.
func (g *Controller) PointerDown(gesture Gesture, handle Handle, itemID string, p Pointer) error {
	if g.dragging {
		return ErrGestureActive
	}

	switch gesture {
	case GesturePlayhead:
		g.originTime = g.comp.CurrentTime()
	case GestureTrimStart, GestureTrimEnd, GestureMove:
		item := g.comp.Item(itemID)
		if item == nil {
			return ErrUnknownItem
		}
		g.originItem = item.Range
		g.comp.SetSelection(itemID)
	case GestureCanvasMove, GestureCanvasResize:
		if gesture == GestureCanvasResize && handle == "" {
			return ErrMissingHandle
		}
		item := g.comp.Item(itemID)
		if item == nil || !item.HasGeometry() {
			return ErrUnknownItem
		}
		if item.Geometry != nil {
			g.originGeom = *item.Geometry
		} else {
			g.originGeom = Geometry{Position: Position{X: 50, Y: 50}}
		}
		g.comp.SetSelection(itemID)
	default:
		return ErrUnknownGesture
	}

	g.dragging = true
	g.gesture = gesture
	g.handle = handle
	g.itemID = itemID
	g.origin = p
	g.snapX = false
	g.snapY = false
	return nil
}

// PointerMove applies the gesture at the new pointer position. Ignored
// when no gesture is active.
func (g *Controller) PointerMove(p Pointer) {
	if !g.dragging {
		return
	}

	switch g.gesture {
	case GesturePlayhead:
		dt := g.scale.PixelToTime(p.X - g.origin.X)
		g.comp.SetCurrentTime(g.originTime + dt)

	case GestureTrimStart:
		dt := g.scale.PixelToTime(p.X - g.origin.X)
		start := clamp(g.originItem.Start+dt, 0, g.originItem.End-MinClipSpan)
		g.comp.UpdateItem(g.itemID, ItemUpdate{Start: &start})

	case GestureTrimEnd:
		dt := g.scale.PixelToTime(p.X - g.origin.X)
		end := clamp(g.originItem.End+dt, g.originItem.Start+MinClipSpan, g.comp.Duration())
		g.comp.UpdateItem(g.itemID, ItemUpdate{End: &end})

	case GestureMove:
		dt := g.scale.PixelToTime(p.X - g.origin.X)
		span := g.originItem.Span()
		start := clamp(g.originItem.Start+dt, 0, g.comp.Duration()-span)
		end := start + span
		g.comp.UpdateItem(g.itemID, ItemUpdate{Start: &start, End: &end})

	case GestureCanvasMove:
		geom := g.originGeom
		geom.Position.X = clamp(geom.Position.X+g.percentX(p.X-g.origin.X), 0, 100)
		geom.Position.Y = clamp(geom.Position.Y+g.percentY(p.Y-g.origin.Y), 0, 100)
		g.applySnap(&geom)
		g.comp.UpdateItem(g.itemID, ItemUpdate{Geometry: &geom})

	case GestureCanvasResize:
		geom := g.resized(g.percentX(p.X-g.origin.X), g.percentY(p.Y-g.origin.Y))
		g.applySnap(&geom)
		g.comp.UpdateItem(g.itemID, ItemUpdate{Geometry: &geom})
	}
}

// PointerUp ends the gesture and clears transient state. The store is
// not touched: every move was already committed.
func (g *Controller) PointerUp() {
	g.dragging = false
	g.gesture = ""
	g.handle = ""
	g.itemID = ""
	g.snapX = false
	g.snapY = false
}

// resized applies the handle semantics to the origin geometry: north
// affects height and y, west affects width and x, and so on. A grip
// pushed past the minimum size pins the item at MinSizePercent with the
// opposite edge held in place.
func (g *Controller) resized(dx, dy float64) Geometry {
	geom := g.originGeom

	switch g.handle {
	case HandleE, HandleNE, HandleSE:
		geom.Width = g.originGeom.Width + dx
	case HandleW, HandleNW, HandleSW:
		geom.Width = g.originGeom.Width - dx
		geom.Position.X = g.originGeom.Position.X + dx
	}
	if geom.Width < MinSizePercent {
		switch g.handle {
		case HandleW, HandleNW, HandleSW:
			geom.Position.X = g.originGeom.Position.X + g.originGeom.Width - MinSizePercent
		}
		geom.Width = MinSizePercent
	}

	switch g.handle {
	case HandleS, HandleSE, HandleSW:
		geom.Height = g.originGeom.Height + dy
	case HandleN, HandleNE, HandleNW:
		geom.Height = g.originGeom.Height - dy
		geom.Position.Y = g.originGeom.Position.Y + dy
	}
	if geom.Height < MinSizePercent {
		switch g.handle {
		case HandleN, HandleNE, HandleNW:
			geom.Position.Y = g.originGeom.Position.Y + g.originGeom.Height - MinSizePercent
		}
		geom.Height = MinSizePercent
	}

	return geom
}

// applySnap pulls edges within the snap threshold flush to the canvas
// border and records the indicator flags.
func (g *Controller) applySnap(geom *Geometry) {
	g.snapX = false
	g.snapY = false

	if geom.Position.X < SnapThresholdPercent {
		geom.Position.X = 0
		g.snapX = true
	} else if right := geom.Position.X + geom.Width; right > 100-SnapThresholdPercent && right < 100+SnapThresholdPercent {
		geom.Position.X = 100 - geom.Width
		g.snapX = true
	}

	if geom.Position.Y < SnapThresholdPercent {
		geom.Position.Y = 0
		g.snapY = true
	} else if bottom := geom.Position.Y + geom.Height; bottom > 100-SnapThresholdPercent && bottom < 100+SnapThresholdPercent {
		geom.Position.Y = 100 - geom.Height
		g.snapY = true
	}
}

func (g *Controller) percentX(px float64) float64 {
	if g.canvasWidth <= 0 {
		return 0
	}
	return px / g.canvasWidth * 100
}

func (g *Controller) percentY(px float64) float64 {
	if g.canvasHeight <= 0 {
		return 0
	}
	return px / g.canvasHeight * 100
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
