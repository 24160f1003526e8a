package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nbutton23/zxcvbn-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"code-scanner/internal/database"
	"code-scanner/internal/models"
	"code-scanner/internal/session"
)

func (s *Server) userListHandler(w http.ResponseWriter, r *http.Request, _ *session.Session, _ models.User) {
	users, err := s.DB.ListUsers()
	if err != nil {
		log.WithError(err).Error("cannot list users")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (s *Server) createUserHandler(w http.ResponseWriter, r *http.Request, sess *session.Session, admin models.User) {
	if err := sess.CheckCSRF(csrfToken(r)); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}
	if err := CheckPassword(password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	isAdmin, _ := strconv.ParseBool(r.FormValue("admin"))

	user, err := NewUser(email, password, isAdmin)
	if err != nil {
		log.WithError(err).Error("cannot prepare user")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if err := s.DB.CreateUser(&user); err != nil {
		if errors.Cause(err) == database.ErrDuplicate {
			writeError(w, http.StatusConflict, "User already exists.")
			return
		}
		log.WithError(err).Error("cannot create user")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	log.WithFields(log.Fields{"user": user.Email, "by": admin.Email}).Info("user created")
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "user": user})
}

func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request, sess *session.Session, admin models.User) {
	if err := sess.CheckCSRF(csrfToken(r)); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if id == admin.ID {
		writeError(w, http.StatusBadRequest, "You cannot delete yourself.")
		return
	}

	if err := s.DB.DeleteUser(id); err != nil {
		if errors.Cause(err) == database.ErrNotFound {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.WithError(err).WithField("user_id", id).Error("cannot delete user")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// minPasswordScore is the lowest accepted zxcvbn score, from 0 to 4
const minPasswordScore = 3

// ErrWeakPassword is returned for passwords rejected by CheckPassword
var ErrWeakPassword = errors.New("Password is not strong enough.")

// CheckPassword rejects passwords that are too long for bcrypt or too easy to guess
func CheckPassword(password string) error {
	if len(password) > 72 {
		return ErrWeakPassword
	}
	if zxcvbn.PasswordStrength(password, nil).Score < minPasswordScore {
		return ErrWeakPassword
	}
	return nil
}

// NewUser builds a verified account with a hashed password
func NewUser(email, password string, admin bool) (models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	role := models.RoleUser
	if admin {
		role = models.RoleAdmin
	}
	return models.User{
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{role},
		Verified:     true,
	}, nil
}
