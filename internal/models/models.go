package models

import (
	"slices"
	"time"

	"code-scanner/internal/report"
)

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Message roles inside a code scan chat
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// TimestampLayout is how message times are rendered in responses
const TimestampLayout = "2006-01-02 15:04:05"

// User is an account able to log in
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Roles        []string  `json:"roles"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user holds role. Admins hold ROLE_USER too.
func (u User) HasRole(role string) bool {
	if slices.Contains(u.Roles, role) {
		return true
	}
	return role == RoleUser && slices.Contains(u.Roles, RoleAdmin)
}

// Chat is a code scan conversation owned by one user
type Chat struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages,omitempty"`
}

// Message is one entry of a chat, either submitted code or a scan report
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageView is the message representation returned by the scan endpoints
type MessageView struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func NewMessageView(m Message) MessageView {
	return MessageView{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(TimestampLayout),
	}
}

// ScanResponse is the body returned after a chat scan
type ScanResponse struct {
	Success          bool        `json:"success"`
	UserMessage      MessageView `json:"userMessage"`
	AssistantMessage MessageView `json:"assistantMessage"`
}

// HistoryEntry is one scan kept in the session history
type HistoryEntry struct {
	Code      string           `json:"code"`
	Result    string           `json:"result"`
	Findings  []report.Finding `json:"findings"`
	CreatedAt time.Time        `json:"created_at"`
}

// SessionScanResponse is the body returned by the session based scan
type SessionScanResponse struct {
	Success bool           `json:"success"`
	Result  string         `json:"result"`
	History []HistoryEntry `json:"history"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Success   bool   `json:"success"`
	CSRFToken string `json:"csrfToken"`
	Redirect  string `json:"redirect"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
