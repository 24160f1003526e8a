package session

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"code-scanner/internal/models"
)

// CookieName carries the session id
const CookieName = "session_id"

// DefaultTTL is the idle lifetime of a session
const DefaultTTL = 24 * time.Hour

var ErrCSRFInvalid = errors.New("Invalid CSRF token")

// Session is the server side state of a logged in browser
type Session struct {
	ID        string
	UserID    int64
	CSRFToken string
	CreatedAt time.Time

	mu      sync.Mutex
	history *History
}

// CheckCSRF compares token with the session token in constant time
func (s *Session) CheckCSRF(token string) error {
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.CSRFToken)) != 1 {
		return ErrCSRFInvalid
	}
	return nil
}

// Record appends a scan to the session history and returns the history
func (s *Session) Record(e models.HistoryEntry) []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Push(e)
	return s.history.Entries()
}

func (s *Session) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// Store keeps sessions in memory. Every access extends the session lifetime.
type Store struct {
	cache       *gocache.Cache
	historySize int
}

func NewStore(ttl time.Duration, historySize int) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Store{
		cache:       gocache.New(ttl, 10*time.Minute),
		historySize: historySize,
	}
}

// Create opens a session for the user
func (st *Store) Create(user models.User) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CSRFToken: uuid.NewString(),
		CreatedAt: time.Now(),
		history:   NewHistory(st.historySize),
	}
	st.cache.Set(s.ID, s, gocache.DefaultExpiration)
	return s
}

// Get returns the live session with the given id
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	st.cache.Set(id, s, gocache.DefaultExpiration)
	return s, true
}

func (st *Store) Destroy(id string) {
	st.cache.Delete(id)
}

// Count returns the number of sessions, expired ones not yet collected included
func (st *Store) Count() int {
	return st.cache.ItemCount()
}
