package playback

import (
	"log/slog"
	"math"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// DriftTolerance is how far a non-primary surface may run from the
// authoritative clock before it is forcibly reseeked. Each surface has
// its own decode clock, so independent drift is expected.
const DriftTolerance = 0.1

type surfaceState struct {
	surface  Surface
	duration float64
	ready    bool
	failed   bool
	active   bool    // currently commanded to play
	lastTime float64 // last reported timeline time
}

// Synchronizer reconciles a composition's currentTime/isPlaying pair
// against the media surfaces attached to its items. The surface on the
// lowest-track video item is primary; its timeupdate events drive the
// clock forward, and everything else is corrected against it.
//
// Single-threaded by design: the host serializes gesture handling and
// surface notifications through one event queue, so no locking happens
// here. Callers that dispatch from multiple goroutines must serialize.
type Synchronizer struct {
	comp     *timeline.Composition
	surfaces map[string]*surfaceState // keyed by item ID
	primary  string
	logger   *slog.Logger
}

func NewSynchronizer(comp *timeline.Composition, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		comp:     comp,
		surfaces: make(map[string]*surfaceState),
		logger:   logger,
	}
}

// Attach registers a surface for an item. The surface stays excluded
// from duration aggregation and playback commands until DurationReady.
func (s *Synchronizer) Attach(itemID string, surface Surface) {
	s.surfaces[itemID] = &surfaceState{surface: surface}
	s.electPrimary()
}

// Detach drops the surface. No teardown command is sent; releasing the
// underlying resource is the host's concern.
func (s *Synchronizer) Detach(itemID string) {
	delete(s.surfaces, itemID)
	if s.primary == itemID {
		s.electPrimary()
	}
}

// DetachAll drops every surface, as when a project is closed.
func (s *Synchronizer) DetachAll() {
	s.surfaces = make(map[string]*surfaceState)
	s.primary = ""
}

// Primary returns the item ID of the surface driving the clock, or ""
// when no surface qualifies.
func (s *Synchronizer) Primary() string {
	return s.primary
}

// DurationReady marks a surface's metadata as loaded. Any deferred
// playback command is issued now.
func (s *Synchronizer) DurationReady(itemID string, duration float64) {
	st, ok := s.surfaces[itemID]
	if !ok {
		return
	}
	st.duration = duration
	st.ready = true
	st.failed = false
	s.electPrimary()

	if s.comp.Playing() {
		s.reconcile(itemID, st)
	}
}

// SurfaceFailed marks a surface as unusable (bad URL, decode error).
// Non-fatal: the surface is excluded from playback commands and the
// rest of the composition is unaffected.
func (s *Synchronizer) SurfaceFailed(itemID string, reason string) {
	st, ok := s.surfaces[itemID]
	if !ok {
		return
	}
	st.failed = true
	st.active = false
	if s.logger != nil {
		s.logger.Warn("media surface failed", "item_id", itemID, "reason", reason)
	}
	if s.primary == itemID {
		s.electPrimary()
	}
}

// TimeUpdate handles a surface's timeupdate notification. t is the
// surface's local media time. The primary's updates advance the
// authoritative clock and trigger drift correction on everyone else;
// non-primary updates are only recorded for the next drift check.
func (s *Synchronizer) TimeUpdate(itemID string, t float64) {
	st, ok := s.surfaces[itemID]
	if !ok {
		return
	}

	item := s.comp.Item(itemID)
	if item == nil {
		return
	}
	st.lastTime = item.Range.Start + t

	if itemID != s.primary || !s.comp.Playing() {
		return
	}

	now := s.comp.SetCurrentTime(st.lastTime)
	for id, other := range s.surfaces {
		if id == itemID {
			continue
		}
		s.reconcile(id, other)
		if other.active && math.Abs(other.lastTime-now) > DriftTolerance {
			s.seekSurface(id, other, now)
		}
	}
}

// Ended handles a surface's ended notification. Only the primary ends
// playback: stop and rewind to the start (loop-to-start policy, not
// pause-in-place), propagating the rewind to every surface.
func (s *Synchronizer) Ended(itemID string) {
	if itemID != s.primary {
		return
	}
	s.comp.SetPlaying(false)
	s.comp.SetCurrentTime(0)
	for id, st := range s.surfaces {
		if st.active {
			st.surface.Pause()
			st.active = false
		}
		s.seekSurface(id, st, 0)
	}
}

// SetPlaying starts or stops playback: play every ready surface whose
// item contains the current time, pause everything on stop.
func (s *Synchronizer) SetPlaying(playing bool) {
	s.comp.SetPlaying(playing)

	if !playing {
		for _, st := range s.surfaces {
			if st.active {
				st.surface.Pause()
				st.active = false
			}
		}
		return
	}

	for id, st := range s.surfaces {
		s.reconcile(id, st)
	}
}

// Seek moves the authoritative clock and propagates a direct seek to
// every ready surface rather than waiting for drift correction.
// Returns the clamped time actually applied.
func (s *Synchronizer) Seek(t float64) float64 {
	applied := s.comp.SetCurrentTime(t)
	for id, st := range s.surfaces {
		s.seekSurface(id, st, applied)
		s.reconcile(id, st)
	}
	return applied
}

// Refresh re-evaluates primary election and per-surface play state
// after composition edits (items moved, removed, retracked).
func (s *Synchronizer) Refresh() {
	for id := range s.surfaces {
		if s.comp.Item(id) == nil {
			delete(s.surfaces, id)
		}
	}
	s.electPrimary()
	for id, st := range s.surfaces {
		s.reconcile(id, st)
	}
}

// reconcile brings one surface's play state in line with the clock:
// playing surfaces whose item no longer contains currentTime are
// paused, idle ones inside their range are started.
func (s *Synchronizer) reconcile(itemID string, st *surfaceState) {
	if !st.ready || st.failed {
		return
	}
	item := s.comp.Item(itemID)
	if item == nil {
		return
	}

	shouldPlay := s.comp.Playing() && item.Range.Contains(s.comp.CurrentTime())
	switch {
	case shouldPlay && !st.active:
		if err := st.surface.Play(); err != nil {
			s.SurfaceFailed(itemID, err.Error())
			return
		}
		st.active = true
	case !shouldPlay && st.active:
		st.surface.Pause()
		st.active = false
	}
}

// seekSurface converts timeline time to the surface's local timebase
// and issues the seek. Surfaces that are not ready are skipped.
func (s *Synchronizer) seekSurface(itemID string, st *surfaceState, t float64) {
	if !st.ready || st.failed {
		return
	}
	item := s.comp.Item(itemID)
	if item == nil {
		return
	}
	local := t - item.Range.Start
	if local < 0 {
		local = 0
	}
	st.surface.Seek(local)
	st.lastTime = item.Range.Start + local
}

// electPrimary designates the ready, unfailed video item on the lowest
// track as the clock source.
func (s *Synchronizer) electPrimary() {
	best := ""
	bestTrack := 0
	for id, st := range s.surfaces {
		if !st.ready || st.failed {
			continue
		}
		item := s.comp.Item(id)
		if item == nil || item.Kind != timeline.KindVideo {
			continue
		}
		if best == "" || item.Track < bestTrack {
			best = id
			bestTrack = item.Track
		}
	}
	if best != s.primary && s.logger != nil {
		s.logger.Debug("primary surface changed", "item_id", best)
	}
	s.primary = best
}
