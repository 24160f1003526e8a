package server

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"code-scanner/internal/database"
	"code-scanner/internal/models"
	"code-scanner/internal/session"
)

const (
	adminDashboard = "/admin"
	userDashboard  = "/app_dashboard"
)

// authHandler is a handler running for an authenticated user
type authHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session, user models.User)

// requireRole resolves the session cookie and checks the user holds role
func (s *Server) requireRole(role string, next authHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		sess, ok := s.Sessions.Get(cookie.Value)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		user, err := s.DB.UserByID(sess.UserID)
		if err != nil {
			if errors.Cause(err) != database.ErrNotFound {
				log.WithError(err).Error("cannot load session user")
			}
			s.Sessions.Destroy(sess.ID)
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !user.HasRole(role) {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r, sess, user)
	}
}

func dashboardFor(user models.User) string {
	if user.HasRole(models.RoleAdmin) {
		return adminDashboard
	}
	return userDashboard
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := s.DB.UserByEmail(email)
	if err != nil {
		if errors.Cause(err) != database.ErrNotFound {
			log.WithError(err).Error("cannot load user")
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if !user.Verified {
		writeError(w, http.StatusForbidden, "Your email address is not verified.")
		return
	}

	sess := s.Sessions.Create(user)
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.WithField("user", user.Email).Info("user logged in")

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Success:   true,
		CSRFToken: sess.CSRFToken,
		Redirect:  dashboardFor(user),
	})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		s.Sessions.Destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) loginSuccessHandler(w http.ResponseWriter, r *http.Request, _ *session.Session, user models.User) {
	writeJSON(w, http.StatusOK, map[string]string{"redirect": dashboardFor(user)})
}

// HashPassword returns the bcrypt hash stored for a new account
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "cannot generate hash for given password")
	}
	return hash, nil
}
