package preview

import (
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/frame.png", s.frame)
	r.Get("/status", s.status)
	r.Post("/reload", s.reload)
	r.Post("/play", s.play)
	r.Post("/pause", s.pause)
}

// Handler is the full router with the usual middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	s.RegisterRoutes(r)
	return r
}

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	t := -1.0
	if raw := r.URL.Query().Get("t"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			http.Error(w, "invalid t", http.StatusBadRequest)
			return
		}
		t = v
	}

	img := s.RenderAt(t)
	defer s.Release(img)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		log.Printf("[!] Ошибка кодирования кадра: %v", err)
	}
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	// ?force=1 reprocesses even unchanged frames
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := s.Reload(force); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, s.Status())
}

func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	s.Play()
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	s.Pause()
	writeJSON(w, http.StatusOK, s.Status())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[!] Ошибка кодирования JSON: %v", err)
	}
}
