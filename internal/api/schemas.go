package api

import (
	"encoding/json"
	"net/http"

	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type createProjectRequest struct {
	Name string `json:"name"`
}

type openSessionRequest struct {
	ProjectID string `json:"project_id"`
}

type addItemRequest struct {
	Kind     string              `json:"kind"`
	Name     string              `json:"name"`
	Start    float64             `json:"start"`
	End      float64             `json:"end"`
	Track    *int                `json:"track,omitempty"`
	MediaRef string              `json:"media_ref,omitempty"`
	Color    string              `json:"color,omitempty"`
	Muted    bool                `json:"muted,omitempty"`
	Geometry *timeline.Geometry  `json:"geometry,omitempty"`
	Text     *timeline.TextStyle `json:"text,omitempty"`
}

type updateItemRequest struct {
	Name     *string             `json:"name,omitempty"`
	Start    *float64            `json:"start,omitempty"`
	End      *float64            `json:"end,omitempty"`
	Track    *int                `json:"track,omitempty"`
	MediaRef *string             `json:"media_ref,omitempty"`
	Muted    *bool               `json:"muted,omitempty"`
	Geometry *timeline.Geometry  `json:"geometry,omitempty"`
	Text     *timeline.TextStyle `json:"text,omitempty"`
}

type selectRequest struct {
	ItemID string `json:"item_id"`
}

type transportRequest struct {
	Action string  `json:"action"`
	Time   float64 `json:"time,omitempty"`
}

type transportResponse struct {
	CurrentTime float64 `json:"current_time"`
	Playing     bool    `json:"playing"`
}

type createExportRequest struct {
	Settings *export.Settings `json:"settings,omitempty"`
}

type statusResponse struct {
	Version      string `json:"version"`
	OpenSessions int    `json:"open_sessions"`
	ExportPaused bool   `json:"export_paused"`
}
