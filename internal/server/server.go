// Package server is a local backend speaking the sites / spaces / streams
// API, so the navigator can run without the hosted service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spacenav/internal/model"

	"github.com/sirupsen/logrus"
)

type Config struct {
	// Latency delays every write, making optimistic feedback visible.
	Latency time.Duration
	Logger  logrus.FieldLogger
}

type Server struct {
	db  *DB
	cfg Config
	log logrus.FieldLogger
}

func New(db *DB, cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Server{db: db, cfg: cfg, log: log.WithField("component", "server")}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /sites/{$}", s.handleSites)
	mux.HandleFunc("GET /spaces/{$}", s.handleSpaces)
	mux.HandleFunc("POST /spaces/{spaceId}/streams", s.handleAddStream)
	mux.HandleFunc("DELETE /streams/{streamId}", s.handleDeleteStream)
	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Spaces API"})
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.db.Sites(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) handleSpaces(w http.ResponseWriter, r *http.Request) {
	siteID := strings.TrimSpace(r.URL.Query().Get("siteId"))
	if siteID == "" {
		writeDetail(w, http.StatusBadRequest, "siteId is required")
		return
	}
	resp, err := s.db.Spaces(r.Context(), siteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddStream(w http.ResponseWriter, r *http.Request) {
	spaceID, err := strconv.Atoi(r.PathValue("spaceId"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "spaceId must be an integer")
		return
	}
	var req model.AddStreamRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeDetail(w, http.StatusBadRequest, "Stream name is required")
		return
	}
	if err := s.delay(r.Context()); err != nil {
		return
	}
	st, err := s.db.AddStream(r.Context(), spaceID, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.WithFields(logrus.Fields{"space_id": spaceID, "stream_id": st.ID}).Info("stream added")
	writeJSON(w, http.StatusOK, map[string]any{"id": st.ID, "name": st.Name, "spaceId": spaceID})
}

func (s *Server) handleDeleteStream(w http.ResponseWriter, r *http.Request) {
	streamID, err := strconv.Atoi(r.PathValue("streamId"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "streamId must be an integer")
		return
	}
	if err := s.delay(r.Context()); err != nil {
		return
	}
	if err := s.db.DeleteStream(r.Context(), streamID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.WithField("stream_id", streamID).Info("stream deleted")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Stream deleted successfully"})
}

func (s *Server) delay(ctx context.Context) error {
	if s.cfg.Latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.cfg.Latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var dup DuplicateNameError
	switch {
	case errors.As(err, &dup):
		writeDetail(w, http.StatusBadRequest, dup.Error())
	case errors.Is(err, ErrSiteNotFound):
		writeDetail(w, http.StatusNotFound, "Site not found")
	case errors.Is(err, ErrSpaceNotFound):
		writeDetail(w, http.StatusNotFound, "Space not found")
	case errors.Is(err, ErrStreamNotFound):
		writeDetail(w, http.StatusNotFound, "Stream not found")
	case errors.Is(err, ErrSiteUnavailable):
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"request_id": r.Header.Get("X-Request-Id"),
			"elapsed":    time.Since(start).String(),
		}).Debug("request")
	})
}
