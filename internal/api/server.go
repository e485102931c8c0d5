package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pbaille/echorealms/internal/archive"
	"github.com/pbaille/echorealms/internal/classifier"
	"github.com/pbaille/echorealms/internal/domain"
	"github.com/pbaille/echorealms/internal/storyteller"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Shelf persists archive changes. It is optional.
type Shelf interface {
	SaveStory(domain.Story) error
	DeleteStory(id string) error
}

// Server handles HTTP requests for scanning, weaving and archiving stories
type Server struct {
	classifier *classifier.Classifier
	generator  *storyteller.Generator
	archive    *archive.Archive
	shelf      Shelf
	log        *zap.Logger
	addr       string

	// Now dates export file names
	Now func() time.Time
}

// New creates a new API server. shelf may be nil for a memory-only archive.
func New(c *classifier.Classifier, g *storyteller.Generator, a *archive.Archive, shelf Shelf, log *zap.Logger, addr string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		classifier: c,
		generator:  g,
		archive:    a,
		shelf:      shelf,
		log:        log,
		addr:       addr,
		Now:        time.Now,
	}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Core flow
	mux.HandleFunc("POST /scan", s.scan)
	mux.HandleFunc("POST /stories", s.weave)

	// Archive
	mux.HandleFunc("GET /archive", s.listArchive)
	mux.HandleFunc("POST /archive", s.saveStory)
	mux.HandleFunc("GET /archive/export", s.exportArchive)
	mux.HandleFunc("GET /archive/{id}", s.getStory)
	mux.HandleFunc("DELETE /archive/{id}", s.deleteStory)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return s.withLogging(withCORS(mux))
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.log.Info("starting server", zap.String("addr", s.addr))
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h.ServeHTTP(rec, r)

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TextRequest is the request body for scanning or weaving text
type TextRequest struct {
	Text string `json:"text"`
}

// ScanResponse is the response for a scan
type ScanResponse struct {
	domain.Classification
	Keywords []classifier.Hit `json:"keywords"`
	Echoes   []string         `json:"echoes"`
}

// WeaveResponse is the response for a generated story
type WeaveResponse struct {
	Classification domain.Classification `json:"classification"`
	Story          domain.Story          `json:"story"`
}

func (s *Server) readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return "", false
	}
	return req.Text, true
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}

	hits := s.classifier.Matches(text)
	if hits == nil {
		hits = []classifier.Hit{}
	}
	echoes := classifier.EchoWords(text, 8)
	if echoes == nil {
		echoes = []string{}
	}

	writeJSON(w, http.StatusOK, ScanResponse{
		Classification: s.classifier.Classify(text),
		Keywords:       hits,
		Echoes:         echoes,
	})
}

func (s *Server) weave(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}

	result, story := storyteller.Weave(s.classifier, s.generator, text)
	s.log.Debug("story woven",
		zap.String("id", story.ID),
		zap.String("emotion", string(result.Emotion)),
		zap.Float64("intensity", result.Intensity),
	)

	writeJSON(w, http.StatusCreated, WeaveResponse{Classification: result, Story: story})
}

func (s *Server) listArchive(w http.ResponseWriter, r *http.Request) {
	stories := s.archive.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stories": stories,
		"count":   len(stories),
	})
}

func (s *Server) saveStory(w http.ResponseWriter, r *http.Request) {
	var story domain.Story
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&story); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateStory(story); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.shelf != nil {
		if err := s.shelf.SaveStory(story); err != nil {
			s.log.Error("save story", zap.String("id", story.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	// a story saved twice moves to the front instead of appearing twice
	s.archive.Remove(story.ID)
	s.archive.Add(story)

	writeJSON(w, http.StatusCreated, story)
}

func validateStory(story domain.Story) error {
	switch {
	case strings.TrimSpace(story.ID) == "":
		return errors.New("id is required")
	case !story.Emotion.Valid():
		return errors.New("unknown emotion: " + string(story.Emotion))
	case story.Intensity < 0.4 || story.Intensity > 1:
		return errors.New("intensity must be between 0.4 and 1")
	case story.CreatedAt.IsZero():
		return errors.New("createdAt is required")
	}
	return nil
}

func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	story, ok := s.archive.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "story not found")
		return
	}
	writeJSON(w, http.StatusOK, story)
}

func (s *Server) deleteStory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if s.shelf != nil {
		if err := s.shelf.DeleteStory(id); err != nil {
			s.log.Error("delete story", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.archive.Remove(id)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportArchive(w http.ResponseWriter, r *http.Request) {
	data, err := s.archive.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+archive.FileName(s.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
