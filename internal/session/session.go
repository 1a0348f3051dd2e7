// Package session hosts live editing sessions: one open project, its
// in-memory composition, the gesture controller, and the playback
// synchronizer, with all access serialized behind the session lock.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// Broadcaster fans session events out to connected clients. The ws hub
// satisfies it.
type Broadcaster interface {
	Broadcast(room, msgType string, payload any)
}

// Session is one project open for editing. The composition and its
// helpers are not goroutine-safe, so every entry point takes the lock.
type Session struct {
	ID        string
	ProjectID string

	mu      sync.Mutex
	comp    *timeline.Composition
	gesture *timeline.Controller
	sync    *playback.Synchronizer
	scale   timeline.Scale

	broadcaster Broadcaster
	logger      *slog.Logger
}

func newSession(id, projectID string, items []*timeline.Item, b Broadcaster, logger *slog.Logger) *Session {
	comp := timeline.NewComposition()
	comp.Replace(items)
	scale := timeline.NewScale(50)

	s := &Session{
		ID:          id,
		ProjectID:   projectID,
		comp:        comp,
		gesture:     timeline.NewController(comp, scale),
		sync:        playback.NewSynchronizer(comp, logger),
		scale:       scale,
		broadcaster: b,
		logger:      logger,
	}
	return s
}

// State is the snapshot broadcast to clients after every mutation.
type State struct {
	SessionID       string           `json:"session_id"`
	ProjectID       string           `json:"project_id"`
	Items           []*timeline.Item `json:"items"`
	Selection       string           `json:"selection,omitempty"`
	CurrentTime     float64          `json:"current_time"`
	Playing         bool             `json:"playing"`
	Duration        float64          `json:"duration"`
	PixelsPerSecond float64          `json:"pixels_per_second"`
	MarkerStep      float64          `json:"marker_step"`
	Dragging        bool             `json:"dragging"`
	SnapX           bool             `json:"snap_x"`
	SnapY           bool             `json:"snap_y"`
}

func (s *Session) snapshotLocked() State {
	snapX, snapY := s.gesture.SnapIndicator()
	return State{
		SessionID:       s.ID,
		ProjectID:       s.ProjectID,
		Items:           s.comp.Items(),
		Selection:       s.comp.Selection(),
		CurrentTime:     s.comp.CurrentTime(),
		Playing:         s.comp.Playing(),
		Duration:        s.comp.Duration(),
		PixelsPerSecond: s.scale.PixelsPerSecond,
		MarkerStep:      s.scale.MarkerStep(),
		Dragging:        s.gesture.Dragging(),
		SnapX:           snapX,
		SnapY:           snapY,
	}
}

// Snapshot returns the current state without mutating anything.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) publishLocked() {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(s.ID, "state", s.snapshotLocked())
	}
}

// AddItem places a new item and publishes the result.
func (s *Session) AddItem(spec timeline.ItemSpec) (*timeline.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.comp.AddItem(spec)
	if err != nil {
		return nil, err
	}
	s.sync.Refresh()
	s.publishLocked()
	return item, nil
}

func (s *Session) UpdateItem(id string, upd timeline.ItemUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.comp.UpdateItem(id, upd)
	if found {
		s.sync.Refresh()
		s.publishLocked()
	}
	return found
}

func (s *Session) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comp.RemoveItem(id)
	s.sync.Refresh()
	s.publishLocked()
}

func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comp.SetSelection(id)
	s.publishLocked()
}

// Items returns copies of the composition's items, for persistence.
func (s *Session) Items() []*timeline.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comp.Items()
}

// PointerDown begins a drag gesture.
func (s *Session) PointerDown(gesture timeline.Gesture, handle timeline.Handle, itemID string, p timeline.Pointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gesture.PointerDown(gesture, handle, itemID, p); err != nil {
		return fmt.Errorf("pointer down rejected: %w", err)
	}
	s.publishLocked()
	return nil
}

func (s *Session) PointerMove(p timeline.Pointer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gesture.PointerMove(p)
	s.sync.Refresh()
	s.publishLocked()
}

func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gesture.PointerUp()
	s.publishLocked()
}

// SetZoom updates the time/pixel mapping; the value is clamped to the
// supported zoom band.
func (s *Session) SetZoom(pixelsPerSecond float64) timeline.Scale {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scale = timeline.NewScale(pixelsPerSecond)
	s.gesture.SetScale(s.scale)
	s.publishLocked()
	return s.scale
}

// FitToView sizes the scale so the whole project spans the viewport.
func (s *Session) FitToView(viewportWidth float64) timeline.Scale {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scale = timeline.FitScale(viewportWidth, s.comp.Duration())
	s.gesture.SetScale(s.scale)
	s.publishLocked()
	return s.scale
}

func (s *Session) SetCanvasSize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gesture.SetCanvasSize(width, height)
}

// Play/Pause/SeekTo drive the transport.
func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.SetPlaying(true)
	s.publishLocked()
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.SetPlaying(false)
	s.publishLocked()
}

func (s *Session) SeekTo(t float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := s.sync.Seek(t)
	s.publishLocked()
	return applied
}

// AttachSurface registers a client-side media surface for an item.
func (s *Session) AttachSurface(itemID string, surface playback.Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.Attach(itemID, surface)
}

func (s *Session) DetachSurface(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.Detach(itemID)
}

// Surface event entry points, driven by client notifications.
func (s *Session) SurfaceDurationReady(itemID string, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.DurationReady(itemID, duration)
	s.publishLocked()
}

func (s *Session) SurfaceTimeUpdate(itemID string, t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.TimeUpdate(itemID, t)
	s.publishLocked()
}

func (s *Session) SurfaceEnded(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.Ended(itemID)
	s.publishLocked()
}

func (s *Session) SurfaceFailed(itemID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.SurfaceFailed(itemID, reason)
	s.publishLocked()
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync.DetachAll()
}
