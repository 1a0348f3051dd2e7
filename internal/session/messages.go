package session

import (
	"encoding/json"

	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

// Client message payloads. Every message names the session through the
// websocket room, so payloads carry only the event itself.

type pointerPayload struct {
	Gesture string  `json:"gesture,omitempty"`
	Handle  string  `json:"handle,omitempty"`
	ItemID  string  `json:"item_id,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type transportPayload struct {
	Time float64 `json:"time,omitempty"`
}

type surfacePayload struct {
	ItemID   string  `json:"item_id"`
	Duration float64 `json:"duration,omitempty"`
	Time     float64 `json:"time,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

type viewportPayload struct {
	PixelsPerSecond float64 `json:"pixels_per_second,omitempty"`
	ViewportWidth   float64 `json:"viewport_width,omitempty"`
	CanvasWidth     float64 `json:"canvas_width,omitempty"`
	CanvasHeight    float64 `json:"canvas_height,omitempty"`
}

// HandleClientMessage dispatches one inbound websocket message to the
// room's session. Unknown sessions and malformed payloads are dropped
// with a log line; a stale browser tab must not take the agent down.
func (m *Manager) HandleClientMessage(room, msgType string, payload []byte) {
	s, err := m.Get(room)
	if err != nil {
		m.logger.Warn("message for unknown session", "session_id", room, "type", msgType)
		return
	}

	switch msgType {
	case "pointer_down":
		var p pointerPayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		if err := s.PointerDown(timeline.Gesture(p.Gesture), timeline.Handle(p.Handle),
			p.ItemID, timeline.Pointer{X: p.X, Y: p.Y}); err != nil {
			m.logger.Warn("gesture rejected", "session_id", room, "error", err)
		}

	case "pointer_move":
		var p pointerPayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.PointerMove(timeline.Pointer{X: p.X, Y: p.Y})

	case "pointer_up":
		s.PointerUp()

	case "play":
		s.Play()

	case "pause":
		s.Pause()

	case "seek":
		var p transportPayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.SeekTo(p.Time)

	case "surface_attach":
		var p surfacePayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.AttachSurface(p.ItemID, newRemoteSurface(m.broadcaster, room, p.ItemID))

	case "surface_detach":
		var p surfacePayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.DetachSurface(p.ItemID)

	case "surface_duration":
		var p surfacePayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.SurfaceDurationReady(p.ItemID, p.Duration)

	case "surface_time":
		var p surfacePayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.SurfaceTimeUpdate(p.ItemID, p.Time)

	case "surface_ended":
		var p surfacePayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.SurfaceEnded(p.ItemID)

	case "surface_error":
		var p surfacePayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.SurfaceFailed(p.ItemID, p.Reason)

	case "zoom":
		var p viewportPayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.SetZoom(p.PixelsPerSecond)

	case "fit":
		var p viewportPayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.FitToView(p.ViewportWidth)

	case "canvas_size":
		var p viewportPayload
		if !m.decode(payload, &p, msgType) {
			return
		}
		s.SetCanvasSize(p.CanvasWidth, p.CanvasHeight)

	default:
		m.logger.Warn("unknown message type", "session_id", room, "type", msgType)
	}
}

func (m *Manager) decode(payload []byte, out any, msgType string) bool {
	if err := json.Unmarshal(payload, out); err != nil {
		m.logger.Warn("malformed payload", "type", msgType, "error", err)
		return false
	}
	return true
}

// remoteSurface relays playback commands to the client-side media
// element over the session's websocket room. The browser answers with
// surface_* events, closing the control loop.
type remoteSurface struct {
	broadcaster Broadcaster
	room        string
	itemID      string
}

func newRemoteSurface(b Broadcaster, room, itemID string) playback.Surface {
	return &remoteSurface{broadcaster: b, room: room, itemID: itemID}
}

type surfaceCommand struct {
	ItemID  string  `json:"item_id"`
	Command string  `json:"command"`
	Time    float64 `json:"time,omitempty"`
}

func (r *remoteSurface) Play() error {
	r.broadcaster.Broadcast(r.room, "surface_command", surfaceCommand{ItemID: r.itemID, Command: "play"})
	return nil
}

func (r *remoteSurface) Pause() {
	r.broadcaster.Broadcast(r.room, "surface_command", surfaceCommand{ItemID: r.itemID, Command: "pause"})
}

func (r *remoteSurface) Seek(t float64) {
	r.broadcaster.Broadcast(r.room, "surface_command", surfaceCommand{ItemID: r.itemID, Command: "seek", Time: t})
}
