package server

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"code-scanner/internal/database"
	"code-scanner/internal/models"
	"code-scanner/internal/report"
	"code-scanner/internal/scanner"
	"code-scanner/internal/session"
	"code-scanner/internal/utils"
)

const newChatTitleLayout = "2006-01-02 15:04"

// scan runs the scanner and applies the fail-open policy. A provider failure
// is logged and reported as no findings.
func (s *Server) scan(ctx context.Context, code string, logger *log.Entry) report.Report {
	rep, err := s.Scanner.Scan(ctx, code)
	if err != nil {
		logger.WithError(err).Warn("code scan failed, reporting no vulnerabilities")
	}
	return scanner.FailOpen(rep, err)
}

// submittedCode checks the CSRF token then the submitted code, writing the
// error response when one of them is rejected.
func submittedCode(w http.ResponseWriter, r *http.Request, sess *session.Session) (string, bool) {
	if err := sess.CheckCSRF(csrfToken(r)); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return "", false
	}
	code, err := utils.ValidateSource(r.FormValue("code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return code, true
}

// ownedChat loads the chat named in the path and checks it belongs to user
func (s *Server) ownedChat(w http.ResponseWriter, r *http.Request, user models.User) (models.Chat, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Chat not found")
		return models.Chat{}, false
	}
	chat, err := s.DB.ChatByID(id)
	if err != nil {
		if errors.Cause(err) == database.ErrNotFound {
			writeError(w, http.StatusNotFound, "Chat not found")
		} else {
			log.WithError(err).WithField("chat_id", id).Error("cannot load chat")
			writeError(w, http.StatusInternalServerError, "Internal error")
		}
		return models.Chat{}, false
	}
	if chat.UserID != user.ID {
		writeError(w, http.StatusForbidden, "Access denied")
		return models.Chat{}, false
	}
	return chat, true
}

func (s *Server) chatListHandler(w http.ResponseWriter, r *http.Request, _ *session.Session, user models.User) {
	chats, err := s.DB.ChatsByUser(user.ID)
	if err != nil {
		log.WithError(err).WithField("user", user.Email).Error("cannot list chats")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (s *Server) newChatHandler(w http.ResponseWriter, r *http.Request, sess *session.Session, user models.User) {
	if err := sess.CheckCSRF(csrfToken(r)); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	now := s.now()
	chat := models.Chat{
		UserID:    user.ID,
		Title:     "New Scan - " + now.Format(newChatTitleLayout),
		CreatedAt: now,
	}
	if err := s.DB.CreateChat(&chat); err != nil {
		log.WithError(err).WithField("user", user.Email).Error("cannot create chat")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "chat": chat})
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request, _ *session.Session, user models.User) {
	chat, ok := s.ownedChat(w, r, user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (s *Server) sendHandler(w http.ResponseWriter, r *http.Request, sess *session.Session, user models.User) {
	chat, ok := s.ownedChat(w, r, user)
	if !ok {
		return
	}
	code, ok := submittedCode(w, r, sess)
	if !ok {
		return
	}

	logger := log.WithFields(log.Fields{"user": user.Email, "chat_id": chat.ID})
	result := s.scan(r.Context(), code, logger).String()

	now := s.now()
	question := &models.Message{Role: models.MessageRoleUser, Content: code, CreatedAt: now}
	answer := &models.Message{Role: models.MessageRoleAssistant, Content: result, CreatedAt: now}
	title := utils.GenerateChatTitle(code, now)
	if err := s.DB.AppendExchange(chat.ID, question, answer, title, now); err != nil {
		logger.WithError(err).Error("cannot store scan messages")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, models.ScanResponse{
		Success:          true,
		UserMessage:      models.NewMessageView(*question),
		AssistantMessage: models.NewMessageView(*answer),
	})
}

func (s *Server) deleteChatHandler(w http.ResponseWriter, r *http.Request, sess *session.Session, user models.User) {
	chat, ok := s.ownedChat(w, r, user)
	if !ok {
		return
	}
	if err := sess.CheckCSRF(csrfToken(r)); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if err := s.DB.DeleteChat(chat.ID); err != nil {
		log.WithError(err).WithField("chat_id", chat.ID).Error("cannot delete chat")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// sessionScanHandler scans without a chat, keeping results in the session history
func (s *Server) sessionScanHandler(w http.ResponseWriter, r *http.Request, sess *session.Session, user models.User) {
	code, ok := submittedCode(w, r, sess)
	if !ok {
		return
	}

	rep := s.scan(r.Context(), code, log.WithField("user", user.Email))
	result := rep.String()
	history := sess.Record(models.HistoryEntry{
		Code:      code,
		Result:    result,
		Findings:  rep.Findings,
		CreatedAt: s.now(),
	})

	writeJSON(w, http.StatusOK, models.SessionScanResponse{
		Success: true,
		Result:  result,
		History: history,
	})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request, sess *session.Session, _ models.User) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": sess.History()})
}
