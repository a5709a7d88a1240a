package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/AnHumenny/video-surveillance/internal/fleet"
	"github.com/AnHumenny/video-surveillance/internal/repository"
)

// server exposes the narrow HTTP surface spec.md keeps in scope: reading
// the latest frame, triggering reinitialization, recording control, and
// zone updates. It deliberately does not reproduce the teacher's
// goa-generated CRUD/auth surface — that remains an out-of-scope external
// collaborator.
type server struct {
	fleet  *fleet.Fleet
	repo   repository.Repository
	logger *log.Logger
}

func newServer(f *fleet.Fleet, repo repository.Repository, logger *log.Logger) *server {
	return &server{fleet: f, repo: repo, logger: logger}
}

func (s *server) register(mux *http.ServeMux) {
	mux.HandleFunc("/cameras/", s.routeCamera)
	mux.HandleFunc("/reload", s.handleReload)
}

// handleReload diffs the repository's camera list against the fleet's
// live entries: starting newly enabled cameras, stopping removed or
// disabled ones, and leaving the rest untouched.
func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.fleet.Reload(r.Context()); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) routeCamera(w http.ResponseWriter, r *http.Request) {
	id, action, ok := parseCameraPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch action {
	case "status":
		s.handleStatus(w, r, id)
	case "stream":
		s.fleet.Viewers().Broadcaster(id).ServeHTTP(w, r)
	case "snapshot":
		s.handleSnapshot(w, r, id)
	case "frame":
		s.handleGetFrame(w, r, id)
	case "reinitialize":
		s.handleReinitialize(w, r, id)
	case "recording/start":
		s.handleStartRecording(w, r, id)
	case "recording/stop":
		s.handleStopRecording(w, r, id)
	case "recording/continuous/start":
		s.handleStartContinuous(w, r, id)
	case "recording/continuous/stop":
		s.handleStopContinuous(w, r, id)
	case "zone":
		s.handleSaveZone(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// statusResponse reports a camera's reconnect-state-machine status plus
// the last read/reconnect error observed, if any.
type statusResponse struct {
	Status    string `json:"status"`
	LastError string `json:"last_error,omitempty"`
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	status, err := s.fleet.Status(id)
	if err != nil {
		writeFleetError(w, err)
		return
	}
	resp := statusResponse{Status: status.String()}
	if lastErr, err := s.fleet.LastError(id); err == nil && lastErr != nil {
		resp.LastError = lastErr.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request, id string) {
	img, _, err := s.fleet.Snapshot(id)
	if err != nil {
		writeFleetError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 85}); err != nil {
		s.logger.Printf("encode snapshot for %s: %v", id, err)
	}
}

// handleGetFrame is the motion-detection hot path: it reads the camera's
// current feature flags straight from the repository (never re-read
// mid-frame inside the fleet itself) and passes them through to
// Fleet.GetFrame, which may trigger a screenshot save and/or an
// event-triggered clip as a side effect.
func (s *server) handleGetFrame(w http.ResponseWriter, r *http.Request, id string) {
	cfg, err := s.repo.GetCamera(r.Context(), id)
	if err != nil {
		writeFleetError(w, fleet.ErrConfigMissing)
		return
	}

	opts := fleet.GetFrameOptions{
		Motion:         cfg.MotionEnabled,
		SaveScreenshot: cfg.SaveScreenshot,
		ShouldReset:    r.URL.Query().Get("reset") == "true",
	}
	img, _, err := s.fleet.GetFrame(r.Context(), id, opts)
	if err != nil {
		writeFleetError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 85}); err != nil {
		s.logger.Printf("encode frame for %s: %v", id, err)
	}
}

func (s *server) handleReinitialize(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.fleet.Reinitialize(r.Context(), id); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleStartRecording(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var duration time.Duration
	if secs := r.URL.Query().Get("seconds"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil {
			duration = time.Duration(n) * time.Second
		}
	}
	if err := s.fleet.StartRecording(id, duration); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) handleStopRecording(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.fleet.StopRecording(id); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleStartContinuous(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.fleet.StartContinuousRecording(id); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) handleStopContinuous(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.fleet.StopContinuousRecording(id); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// zoneRequest mirrors the four-point polygon spec.md's data model uses in
// place of the original deployment's exec()-built coord_1..coord_4
// globals.
type zoneRequest struct {
	Points [4][2]int `json:"points"`
}

func (s *server) handleSaveZone(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid zone payload: %v", err), http.StatusBadRequest)
		return
	}

	if len(req.Points) != 4 {
		http.Error(w, "invalid zone payload: expected exactly four points", http.StatusBadRequest)
		return
	}
	zone := repository.Zone{CameraID: id}
	for i, p := range req.Points {
		if len(p) != 2 {
			http.Error(w, "invalid zone payload: each point needs two coordinates", http.StatusBadRequest)
			return
		}
		zone.Points[i] = repository.Point{X: p[0], Y: p[1]}
	}

	if err := s.fleet.SaveZone(r.Context(), zone); err != nil {
		writeFleetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseCameraPath(path string) (id, action string, ok bool) {
	const prefix = "/cameras/"
	if len(path) <= len(prefix) {
		return "", "", false
	}
	rest := path[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i], rest[i+1:], true
		}
	}
	return "", "", false
}

func writeFleetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, fleet.ErrTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, fleet.ErrNotRunning):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, fleet.ErrConfigInvalid), errors.Is(err, fleet.ErrConfigMissing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, fleet.ErrAlreadyRecording), errors.Is(err, fleet.ErrNotRecording):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, fleet.ErrRepoUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
