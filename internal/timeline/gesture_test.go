package timeline

import "testing"

func newTestController(t *testing.T) (*Controller, *Composition, *Item) {
	t.Helper()
	comp := NewComposition()
	added, err := comp.AddItem(ItemSpec{Kind: KindVideo, Range: TimeRange{5, 20}, Track: -1})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	ctrl := NewController(comp, NewScale(100))
	ctrl.SetCanvasSize(1000, 500)
	return ctrl, comp, added
}

func TestController_PlayheadScrub(t *testing.T) {
	ctrl, comp, _ := newTestController(t)
	comp.SetCurrentTime(10)

	if err := ctrl.PointerDown(GesturePlayhead, "", "", Pointer{X: 0}); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}

	// 100 px/s: +250px is +2.5s.
	ctrl.PointerMove(Pointer{X: 250})
	if got := comp.CurrentTime(); got != 12.5 {
		t.Errorf("currentTime = %v, want 12.5", got)
	}

	// Far left clamps to zero, computed from the origin, not cumulative.
	ctrl.PointerMove(Pointer{X: -5000})
	if got := comp.CurrentTime(); got != 0 {
		t.Errorf("currentTime = %v, want 0", got)
	}

	ctrl.PointerUp()
	if ctrl.Dragging() {
		t.Error("controller still dragging after pointer up")
	}
}

func TestController_TrimEndClampsToMinSpan(t *testing.T) {
	ctrl, comp, clip := newTestController(t)

	if err := ctrl.PointerDown(GestureTrimEnd, "", clip.ID, Pointer{X: 0}); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}

	// -20s of pointer delta on a 15s clip: end pins at start + 0.5.
	ctrl.PointerMove(Pointer{X: -2000})

	got := comp.Item(clip.ID).Range
	if got.End != clip.Range.Start+MinClipSpan {
		t.Errorf("end = %v, want %v", got.End, clip.Range.Start+MinClipSpan)
	}
	if got.Start != clip.Range.Start {
		t.Errorf("start moved to %v during trim-end", got.Start)
	}
}

func TestController_TrimStartClamps(t *testing.T) {
	ctrl, comp, clip := newTestController(t)

	ctrl.PointerDown(GestureTrimStart, "", clip.ID, Pointer{X: 0})

	tests := []struct {
		name      string
		pointerX  float64
		wantStart float64
	}{
		{"left of zero clamps to zero", -3000, 0},
		{"right of end clamps to end minus min span", 3000, 20 - MinClipSpan},
		{"normal trim", 200, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl.PointerMove(Pointer{X: tt.pointerX})
			if got := comp.Item(clip.ID).Range.Start; got != tt.wantStart {
				t.Errorf("start = %v, want %v", got, tt.wantStart)
			}
		})
	}
}

func TestController_TrimClampIdempotent(t *testing.T) {
	ctrl, comp, clip := newTestController(t)

	ctrl.PointerDown(GestureTrimStart, "", clip.ID, Pointer{X: 0})
	ctrl.PointerMove(Pointer{X: 3000})
	first := comp.Item(clip.ID).Range.Start

	ctrl.PointerMove(Pointer{X: 3000})
	second := comp.Item(clip.ID).Range.Start

	if first != second {
		t.Errorf("repeated clamp changed result: %v then %v", first, second)
	}
}

func TestController_MoveKeepsSpanAndBounds(t *testing.T) {
	ctrl, comp, clip := newTestController(t)

	ctrl.PointerDown(GestureMove, "", clip.ID, Pointer{X: 0})

	ctrl.PointerMove(Pointer{X: 1000}) // +10s
	got := comp.Item(clip.ID).Range
	if got.Start != 15 || got.End != 30 {
		t.Errorf("range = %v, want {15 30}", got)
	}

	// Push far right: clip pins at duration with its span intact.
	ctrl.PointerMove(Pointer{X: 1e6})
	got = comp.Item(clip.ID).Range
	if got.End != comp.Duration() {
		t.Errorf("end = %v, want duration %v", got.End, comp.Duration())
	}
	if span := got.Span(); span != 15 {
		t.Errorf("span = %v, want 15", span)
	}
}

func TestController_SelectsItemOnPointerDown(t *testing.T) {
	ctrl, comp, clip := newTestController(t)

	ctrl.PointerDown(GestureMove, "", clip.ID, Pointer{})
	if comp.Selection() != clip.ID {
		t.Errorf("selection = %q, want %q", comp.Selection(), clip.ID)
	}
}

func TestController_RejectsSecondGesture(t *testing.T) {
	ctrl, _, clip := newTestController(t)

	ctrl.PointerDown(GestureMove, "", clip.ID, Pointer{})
	if err := ctrl.PointerDown(GesturePlayhead, "", "", Pointer{}); err != ErrGestureActive {
		t.Errorf("second PointerDown error = %v, want ErrGestureActive", err)
	}
}

func TestController_UnknownItem(t *testing.T) {
	ctrl, _, _ := newTestController(t)

	if err := ctrl.PointerDown(GestureMove, "", "gone", Pointer{}); err != ErrUnknownItem {
		t.Errorf("PointerDown error = %v, want ErrUnknownItem", err)
	}
	if ctrl.Dragging() {
		t.Error("failed pointer down left the controller dragging")
	}
}

func newCanvasController(t *testing.T) (*Controller, *Composition, *Item) {
	t.Helper()
	comp := NewComposition()
	text, err := comp.AddItem(ItemSpec{
		Kind:  KindText,
		Range: TimeRange{0, 10},
		Track: -1,
		Text:  &TextStyle{Content: "title"},
		Geometry: &Geometry{
			Position: Position{X: 40, Y: 40},
			Width:    20,
			Height:   10,
		},
	})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	ctrl := NewController(comp, NewScale(100))
	ctrl.SetCanvasSize(1000, 500)
	return ctrl, comp, text
}

func TestController_CanvasMoveAndSnap(t *testing.T) {
	ctrl, comp, text := newCanvasController(t)

	ctrl.PointerDown(GestureCanvasMove, "", text.ID, Pointer{X: 0, Y: 0})

	// 1000px canvas: -390px is -39%, landing at x=1, inside the snap band.
	ctrl.PointerMove(Pointer{X: -390, Y: 0})
	geom := comp.Item(text.ID).Geometry
	if geom.Position.X != 0 {
		t.Errorf("x = %v, want snapped to 0", geom.Position.X)
	}
	if snapX, _ := ctrl.SnapIndicator(); !snapX {
		t.Error("snap indicator not raised")
	}

	ctrl.PointerUp()
	if snapX, snapY := ctrl.SnapIndicator(); snapX || snapY {
		t.Error("snap indicator survived pointer up")
	}
}

func TestController_CanvasResizeHandles(t *testing.T) {
	tests := []struct {
		name   string
		handle Handle
		dx     float64 // pixels
		dy     float64
		want   Geometry
	}{
		{
			"east grows width only",
			HandleE, 100, 77,
			Geometry{Position: Position{X: 40, Y: 40}, Width: 30, Height: 10},
		},
		{
			"west moves x and shrinks width",
			HandleW, 100, 0,
			Geometry{Position: Position{X: 50, Y: 40}, Width: 10, Height: 10},
		},
		{
			"north moves y and grows height",
			HandleN, 0, -100,
			Geometry{Position: Position{X: 40, Y: 20}, Width: 20, Height: 30},
		},
		{
			"south grows height only",
			HandleS, 0, 50,
			Geometry{Position: Position{X: 40, Y: 40}, Width: 20, Height: 20},
		},
		{
			"southeast grows both",
			HandleSE, 100, 50,
			Geometry{Position: Position{X: 40, Y: 40}, Width: 30, Height: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, comp, text := newCanvasController(t)

			if err := ctrl.PointerDown(GestureCanvasResize, tt.handle, text.ID, Pointer{X: 0, Y: 0}); err != nil {
				t.Fatalf("PointerDown() error = %v", err)
			}
			ctrl.PointerMove(Pointer{X: tt.dx, Y: tt.dy})

			got := *comp.Item(text.ID).Geometry
			if got != tt.want {
				t.Errorf("geometry = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestController_CanvasResizeMinSize(t *testing.T) {
	ctrl, comp, text := newCanvasController(t)

	ctrl.PointerDown(GestureCanvasResize, HandleE, text.ID, Pointer{X: 0, Y: 0})
	// Shrink far past zero width.
	ctrl.PointerMove(Pointer{X: -900, Y: 0})

	got := comp.Item(text.ID).Geometry
	if got.Width != MinSizePercent {
		t.Errorf("width = %v, want pinned at %v", got.Width, MinSizePercent)
	}
}

func TestController_CanvasResizeWestMinSizeHoldsEastEdge(t *testing.T) {
	ctrl, comp, text := newCanvasController(t)

	ctrl.PointerDown(GestureCanvasResize, HandleW, text.ID, Pointer{X: 0, Y: 0})
	ctrl.PointerMove(Pointer{X: 900, Y: 0})

	got := comp.Item(text.ID).Geometry
	if got.Width != MinSizePercent {
		t.Errorf("width = %v, want %v", got.Width, MinSizePercent)
	}
	// Original east edge was at 60; it must not have moved.
	if edge := got.Position.X + got.Width; edge != 60 {
		t.Errorf("east edge = %v, want 60", edge)
	}
}

func TestController_ResizeRequiresHandle(t *testing.T) {
	ctrl, _, text := newCanvasController(t)

	if err := ctrl.PointerDown(GestureCanvasResize, "", text.ID, Pointer{}); err != ErrMissingHandle {
		t.Errorf("PointerDown error = %v, want ErrMissingHandle", err)
	}
}
