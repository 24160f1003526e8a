package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"

	"code-scanner/internal/config"
	"code-scanner/internal/database"
	"code-scanner/internal/models"
	"code-scanner/internal/report"
	"code-scanner/internal/scanner"
	"code-scanner/internal/session"
)

// Scanner reviews source code. Errors are provider failures the caller
// downgrades with scanner.FailOpen.
type Scanner interface {
	Scan(ctx context.Context, source string) (report.Report, error)
}

// Server represents the HTTP server
// Server will handle request routing and holds the store, sessions and scanner
type Server struct {
	DB       database.DataStore
	Router   *http.ServeMux
	Address  string
	Sessions *session.Store
	Scanner  Scanner
	Now      func() time.Time
}

func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s := &Server{
		DB:       db,
		Router:   http.NewServeMux(),
		Address:  cfg.Server.Address,
		Sessions: session.NewStore(cfg.Session.TTL, cfg.Session.HistorySize),
		Scanner:  scanner.New(cfg.Scanner.ScannerConfig(), nil),
		Now:      time.Now,
	}
	// register configured route handlers once server is initialized
	s.registerHandlers()
	return s, nil
}

func (s *Server) Start() error {
	if err := s.DB.Init(); err != nil {
		return err
	}
	return http.ListenAndServe(s.Address, s.Handler())
}

// Handler wraps the router with access logging and panic recovery
func (s *Server) Handler() http.Handler {
	logger := log.StandardLogger()
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(logger), handlers.PrintRecoveryStack(true))
	return recovery(handlers.CombinedLoggingHandler(logger.Writer(), s.Router))
}

func (s *Server) registerHandlers() {
	s.Router.HandleFunc("POST /login", s.loginHandler)
	s.Router.HandleFunc("POST /logout", s.logoutHandler)
	s.Router.HandleFunc("GET /login/success", s.requireRole(models.RoleUser, s.loginSuccessHandler))

	s.Router.HandleFunc("GET /code-scan", s.requireRole(models.RoleUser, s.chatListHandler))
	s.Router.HandleFunc("POST /code-scan", s.requireRole(models.RoleUser, s.sessionScanHandler))
	s.Router.HandleFunc("GET /code-scan/history", s.requireRole(models.RoleUser, s.historyHandler))
	s.Router.HandleFunc("POST /code-scan/chat/new", s.requireRole(models.RoleUser, s.newChatHandler))
	s.Router.HandleFunc("GET /code-scan/chat/{id}", s.requireRole(models.RoleUser, s.chatHandler))
	s.Router.HandleFunc("POST /code-scan/chat/{id}/send", s.requireRole(models.RoleUser, s.sendHandler))
	s.Router.HandleFunc("POST /code-scan/chat/{id}/delete", s.requireRole(models.RoleUser, s.deleteChatHandler))

	s.Router.HandleFunc("GET /admin/users", s.requireRole(models.RoleAdmin, s.userListHandler))
	s.Router.HandleFunc("POST /admin/users", s.requireRole(models.RoleAdmin, s.createUserHandler))
	s.Router.HandleFunc("POST /admin/users/{id}/delete", s.requireRole(models.RoleAdmin, s.deleteUserHandler))
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("cannot encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// csrfToken reads the token from the form, or the X-CSRF-Token header
func csrfToken(r *http.Request) string {
	if token := r.FormValue("_token"); token != "" {
		return token
	}
	return r.Header.Get("X-CSRF-Token")
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
