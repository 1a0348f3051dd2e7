package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/config"
	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/session"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": config.Version})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Version:      config.Version,
		OpenSessions: len(s.sessions.List()),
		ExportPaused: s.runner.Paused(),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List()
	if err != nil {
		s.requestLog(r).Error("failed to list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "project name is required")
		return
	}

	proj, err := s.projects.Create(req.Name)
	if err != nil {
		s.requestLog(r).Error("failed to create project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.Get(chi.URLParam(r, "projectID"))
	if errors.Is(err, project.ErrProjectNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load project")
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	err := s.projects.Delete(chi.URLParam(r, "projectID"))
	if errors.Is(err, project.ErrProjectNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.sessions.List()})
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := s.sessions.Open(req.ProjectID)
	if errors.Is(err, project.ErrProjectNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		s.requestLog(r).Error("failed to open session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to open session")
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return sess
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	err := s.sessions.Close(id)
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.requestLog(r).Error("failed to close session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to close session")
		return
	}
	s.hub.CloseRoom(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	err := s.sessions.Save(id)
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.requestLog(r).Error("failed to save session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	track := -1
	if req.Track != nil {
		track = *req.Track
	}
	item, err := sess.AddItem(timeline.ItemSpec{
		Kind:     timeline.Kind(req.Kind),
		Name:     req.Name,
		Range:    timeline.TimeRange{Start: req.Start, End: req.End},
		Track:    track,
		MediaRef: req.MediaRef,
		Color:    req.Color,
		Muted:    req.Muted,
		Geometry: req.Geometry,
		Text:     req.Text,
	})
	if errors.Is(err, timeline.ErrInvalidRange) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req updateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	found := sess.UpdateItem(chi.URLParam(r, "itemID"), timeline.ItemUpdate{
		Name:     req.Name,
		Start:    req.Start,
		End:      req.End,
		Track:    req.Track,
		MediaRef: req.MediaRef,
		Muted:    req.Muted,
		Geometry: req.Geometry,
		Text:     req.Text,
	})
	if !found {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	sess.RemoveItem(chi.URLParam(r, "itemID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess.Select(req.ItemID)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req transportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Action {
	case "play":
		sess.Play()
	case "pause":
		sess.Pause()
	case "seek":
		sess.SeekTo(req.Time)
	default:
		writeError(w, http.StatusBadRequest, "action must be play, pause, or seek")
		return
	}

	state := sess.Snapshot()
	writeJSON(w, http.StatusOK, transportResponse{
		CurrentTime: state.CurrentTime,
		Playing:     state.Playing,
	})
}

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.sessions.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.hub.Serve(w, r, id)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.assets.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	if assets == nil {
		assets = []*library.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	var durationS float64
	if v := r.FormValue("duration_s"); v != "" {
		durationS, err = strconv.ParseFloat(v, 64)
		if err != nil || durationS < 0 {
			writeError(w, http.StatusBadRequest, "invalid duration_s")
			return
		}
	}

	asset, err := s.assets.Ingest(header.Filename, file, durationS)
	if errors.Is(err, library.ErrUnsupportedMedia) {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	if err != nil {
		s.requestLog(r).Error("asset upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	err := s.assets.Remove(chi.URLParam(r, "assetID"))
	if errors.Is(err, library.ErrAssetNotFound) {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleServeMedia(w http.ResponseWriter, r *http.Request) {
	s.media.ServeAsset(w, r, chi.URLParam(r, "assetID"))
}

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.projects.Get(projectID); err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	var req createExportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	settings := export.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	job, err := s.exports.Enqueue(projectID, settings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.exports.ListByProject(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list export jobs")
		return
	}
	if jobs == nil {
		jobs = []*export.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	job, err := s.exports.Get(chi.URLParam(r, "jobID"))
	if errors.Is(err, export.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "export job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load export job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handlePauseExports(w http.ResponseWriter, r *http.Request) {
	s.runner.Pause()
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *Server) handleResumeExports(w http.ResponseWriter, r *http.Request) {
	s.runner.Resume()
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}
