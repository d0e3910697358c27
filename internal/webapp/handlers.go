package webapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"rfidmusic/internal/logging"
	"rfidmusic/internal/musiclib"
	"rfidmusic/internal/store"
)

type scanRequest struct {
	RFID string `json:"rfid"`
}

type scanResponse struct {
	Mapped            bool   `json:"mapped"`
	RFID              string `json:"rfid"`
	MusicDir          string `json:"music_dir,omitempty"`
	AlbumTitle        string `json:"album_title,omitempty"`
	Artist            string `json:"artist,omitempty"`
	PlaybackTriggered bool   `json:"playback_triggered,omitempty"`
	Message           string `json:"message,omitempty"`
}

type mappingPayload struct {
	RFID       string `json:"rfid"`
	MusicDir   string `json:"music_dir"`
	AlbumTitle string `json:"album_title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	CoverPath  string `json:"cover_path,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	LastPlayed string `json:"last_played,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScan resolves a scanned identifier. Mapped identifiers trigger
// playback; unmapped ones are queued for assignment.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rfid := strings.TrimSpace(req.RFID)
	if rfid == "" {
		s.writeError(w, http.StatusBadRequest, "no RFID provided")
		return
	}

	mapping, err := s.store.Get(r.Context(), rfid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.pushPending(rfid)
			s.logger.Info("unmapped scan queued for assignment",
				logging.String(logging.FieldRFID, rfid),
			)
			s.writeJSON(w, http.StatusOK, scanResponse{
				RFID:    rfid,
				Message: "RFID not mapped. Assign it via the mappings API.",
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, "mapping lookup failed")
		return
	}

	if err := s.store.TouchLastPlayed(r.Context(), rfid); err != nil {
		s.logger.Warn("failed to record last played", logging.Error(err))
	}

	triggered := false
	if s.playback != nil {
		if err := s.playback.Play(r.Context(), rfid, mapping.MusicDir); err != nil {
			s.logger.Warn("playback trigger failed",
				logging.Error(err),
				logging.String(logging.FieldRFID, rfid),
				logging.String(logging.FieldEventType, "playback_failed"),
				logging.String(logging.FieldImpact, "scan resolved but nothing is playing"),
			)
		} else {
			triggered = true
		}
	}

	s.logger.Info("scan resolved",
		logging.String(logging.FieldRFID, rfid),
		logging.String("music_dir", mapping.MusicDir),
		logging.Bool("playback_triggered", triggered),
	)
	s.writeJSON(w, http.StatusOK, scanResponse{
		Mapped:            true,
		RFID:              rfid,
		MusicDir:          mapping.MusicDir,
		AlbumTitle:        mapping.AlbumTitle,
		Artist:            mapping.Artist,
		PlaybackTriggered: triggered,
	})
}

func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listMappings(w, r)
	case http.MethodPost:
		s.createMapping(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "list mappings failed")
		return
	}
	out := make([]mappingPayload, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, toPayload(m))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) createMapping(w http.ResponseWriter, r *http.Request) {
	var payload mappingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	payload.RFID = strings.TrimSpace(payload.RFID)
	payload.MusicDir = strings.TrimSpace(payload.MusicDir)
	if payload.RFID == "" || payload.MusicDir == "" {
		s.writeError(w, http.StatusBadRequest, "rfid and music_dir are required")
		return
	}

	assigned, err := s.store.AssignedDirs(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "assignment check failed")
		return
	}
	if _, taken := assigned[payload.MusicDir]; taken {
		s.writeError(w, http.StatusConflict, "music directory is already assigned")
		return
	}

	if payload.AlbumTitle == "" {
		payload.AlbumTitle = musiclib.DisplayTitle(filepath.Base(payload.MusicDir))
	}
	mapping := &store.Mapping{
		RFID:       payload.RFID,
		MusicDir:   payload.MusicDir,
		AlbumTitle: payload.AlbumTitle,
		Artist:     payload.Artist,
		CoverPath:  payload.CoverPath,
	}
	if err := s.store.Create(r.Context(), mapping); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.writeError(w, http.StatusConflict, "RFID is already assigned")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "create mapping failed")
		return
	}

	s.logger.Info("mapping created",
		logging.String(logging.FieldRFID, mapping.RFID),
		logging.String("music_dir", mapping.MusicDir),
	)
	s.writeJSON(w, http.StatusCreated, toPayload(mapping))
}

func (s *Server) handleMappingItem(w http.ResponseWriter, r *http.Request) {
	rfid := strings.TrimPrefix(r.URL.Path, "/api/mappings/")
	if rfid == "" || strings.Contains(rfid, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		mapping, err := s.store.Get(r.Context(), rfid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, "mapping not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, "mapping lookup failed")
			return
		}
		s.writeJSON(w, http.StatusOK, toPayload(mapping))
	case http.MethodPut:
		s.updateMapping(w, r, rfid)
	case http.MethodDelete:
		if err := s.store.Delete(r.Context(), rfid); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, "mapping not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, "delete mapping failed")
			return
		}
		s.logger.Info("mapping deleted", logging.String(logging.FieldRFID, rfid))
		s.writeJSON(w, http.StatusOK, map[string]string{"deleted": rfid})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// updateMapping replaces the mutable fields of an existing mapping. The
// directory conflict check skips the mapping being edited so resaving the
// same assignment is not rejected.
func (s *Server) updateMapping(w http.ResponseWriter, r *http.Request, rfid string) {
	var payload mappingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	payload.MusicDir = strings.TrimSpace(payload.MusicDir)
	if payload.MusicDir == "" {
		s.writeError(w, http.StatusBadRequest, "music_dir is required")
		return
	}

	current, err := s.store.Get(r.Context(), rfid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "mapping not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "mapping lookup failed")
		return
	}
	if payload.MusicDir != current.MusicDir {
		assigned, err := s.store.AssignedDirs(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "assignment check failed")
			return
		}
		if _, taken := assigned[payload.MusicDir]; taken {
			s.writeError(w, http.StatusConflict, "music directory is already assigned")
			return
		}
	}

	if payload.AlbumTitle == "" {
		payload.AlbumTitle = musiclib.DisplayTitle(filepath.Base(payload.MusicDir))
	}
	mapping := &store.Mapping{
		RFID:       rfid,
		MusicDir:   payload.MusicDir,
		AlbumTitle: payload.AlbumTitle,
		Artist:     payload.Artist,
		CoverPath:  payload.CoverPath,
	}
	if err := s.store.Update(r.Context(), mapping); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "mapping not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "update mapping failed")
		return
	}

	s.logger.Info("mapping updated",
		logging.String(logging.FieldRFID, rfid),
		logging.String("music_dir", mapping.MusicDir),
	)
	s.writeJSON(w, http.StatusOK, toPayload(mapping))
}

// handleDirectories lists album directories not yet assigned to a tag.
func (s *Server) handleDirectories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dirs, err := musiclib.Scan(s.cfg.Library.MusicDir)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "music library scan failed")
		return
	}
	assigned, err := s.store.AssignedDirs(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "assignment check failed")
		return
	}

	available := make([]musiclib.Directory, 0, len(dirs))
	for _, dir := range dirs {
		if _, taken := assigned[dir.Path]; taken {
			continue
		}
		available = append(available, dir)
	}
	s.writeJSON(w, http.StatusOK, available)
}

// handlePending hands out the oldest unmapped scan awaiting assignment.
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"rfid": s.popPending()})
}

func toPayload(m *store.Mapping) mappingPayload {
	payload := mappingPayload{
		RFID:       m.RFID,
		MusicDir:   m.MusicDir,
		AlbumTitle: m.AlbumTitle,
		Artist:     m.Artist,
		CoverPath:  m.CoverPath,
	}
	if !m.CreatedAt.IsZero() {
		payload.CreatedAt = m.CreatedAt.UTC().Format(time.RFC3339)
	}
	if m.LastPlayed != nil {
		payload.LastPlayed = m.LastPlayed.UTC().Format(time.RFC3339)
	}
	return payload
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.logger.Warn("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
