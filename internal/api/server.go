package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/forensiclab/cluewords/internal/config"
	"github.com/forensiclab/cluewords/internal/db"
	"github.com/forensiclab/cluewords/internal/ffmpeg"
	"github.com/forensiclab/cluewords/internal/repository"
	"github.com/forensiclab/cluewords/internal/workspace"
)

type Server struct {
	config      *config.Config
	db          *db.DB
	sessionRepo *repository.SessionRepository
	workspaces  *workspace.Manager
	filter      ffmpeg.Filter
	wsHub       *WSHub
	router      *http.ServeMux
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(cfg *config.Config, database *db.DB) *Server {
	s := &Server{
		config:      cfg,
		db:          database,
		sessionRepo: repository.NewSessionRepository(database.DB),
		workspaces:  workspace.NewManager(cfg.CasesDir()),
		filter:      ffmpeg.NewBandpassFilter(cfg.FFmpegPath),
		wsHub:       NewWSHub(),
		router:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) Workspaces() *workspace.Manager {
	return s.workspaces
}

func (s *Server) setupRoutes() {
	// Static UI
	if _, err := os.Stat("web"); err == nil {
		s.router.Handle("/", http.FileServer(http.Dir("web")))
	}

	// Standardized previews, served straight out of the case workspaces.
	// No-cache so a re-uploaded recording is always revalidated.
	previewFS := http.StripPrefix("/previews/", http.FileServer(http.Dir(s.config.CasesDir())))
	s.router.Handle("/previews/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		previewFS.ServeHTTP(w, r)
	}))

	// Public
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/v1/status", s.handleStatus)

	// Audio pipeline
	s.router.HandleFunc("POST /api/v1/audio/standardize", s.accessKeyMiddleware(s.handleStandardize))
	s.router.HandleFunc("POST /api/v1/process", s.accessKeyMiddleware(s.handleProcess))

	// Saved sessions
	s.router.HandleFunc("GET /api/v1/sessions", s.accessKeyMiddleware(s.handleListSessions))
	s.router.HandleFunc("POST /api/v1/sessions", s.accessKeyMiddleware(s.handleSaveSession))
	s.router.HandleFunc("GET /api/v1/sessions/{id}", s.accessKeyMiddleware(s.handleGetSession))
	s.router.HandleFunc("DELETE /api/v1/sessions/{id}", s.accessKeyMiddleware(s.handleDeleteSession))

	// Progress events
	s.router.HandleFunc("GET /api/v1/ws", s.handleWebSocket)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
		"ws_clients": s.wsHub.ClientCount(),
	}})
}

// ──────────────────── Middleware ────────────────────

// accessKeyMiddleware gates the API behind a shared access key when one is
// configured. With no configured hash the middleware is a pass-through.
func (s *Server) accessKeyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.config.AuthEnabled() {
			next(w, r)
			return
		}
		key := ""
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			key = strings.TrimPrefix(authHeader, "Bearer ")
		} else if k := r.Header.Get("X-Access-Key"); k != "" {
			key = k
		}
		if key == "" {
			s.respondError(w, http.StatusUnauthorized, "missing access key")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(s.config.AccessKeyHash), []byte(key)) != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid access key")
			return
		}
		next(w, r)
	}
}

// ServeHTTP wraps the router with the global middleware chain:
// security headers → CORS → routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.securityHeadersMiddleware(s.corsMiddleware(s.router)).ServeHTTP(w, r)
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Access-Key, X-Requested-With")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ──────────────────── Helpers ────────────────────

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, Response{Success: false, Error: message})
}
