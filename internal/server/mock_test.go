package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"code-scanner/internal/database"
	"code-scanner/internal/models"
	"code-scanner/internal/report"
)

type MockDatabase struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]models.User
	chats    map[int64]models.Chat
	messages []models.Message
}

var _ database.DataStore = (*MockDatabase)(nil)

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{
		users: map[int64]models.User{},
		chats: map[int64]models.Chat{},
	}
}

func (m *MockDatabase) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MockDatabase) Init() error { return nil }

func (m *MockDatabase) CreateUser(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return errors.WithStack(database.ErrDuplicate)
		}
	}
	u.ID = m.id()
	m.users[u.ID] = *u
	return nil
}

func (m *MockDatabase) UserByEmail(email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, errors.WithStack(database.ErrNotFound)
}

func (m *MockDatabase) UserByID(id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, errors.WithStack(database.ErrNotFound)
	}
	return u, nil
}

func (m *MockDatabase) ListUsers() ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.User{}
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MockDatabase) DeleteUser(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return errors.WithStack(database.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

func (m *MockDatabase) CreateChat(c *models.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.UpdatedAt = c.CreatedAt
	m.chats[c.ID] = *c
	return nil
}

func (m *MockDatabase) ChatByID(id int64) (models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return models.Chat{}, errors.WithStack(database.ErrNotFound)
	}
	c.Messages = []models.Message{}
	for _, msg := range m.messages {
		if msg.ChatID == id {
			c.Messages = append(c.Messages, msg)
		}
	}
	return c, nil
}

func (m *MockDatabase) ChatsByUser(userID int64) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chats := []models.Chat{}
	for _, c := range m.chats {
		if c.UserID == userID {
			chats = append(chats, c)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
	return chats, nil
}

func (m *MockDatabase) AppendExchange(chatID int64, question, answer *models.Message, title string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chatID]
	if !ok {
		return errors.WithStack(database.ErrNotFound)
	}
	count := 0
	for _, msg := range []*models.Message{question, answer} {
		msg.ID = m.id()
		msg.ChatID = chatID
		m.messages = append(m.messages, *msg)
	}
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			count++
		}
	}
	if count == 2 && title != "" {
		c.Title = title
	}
	c.UpdatedAt = at
	m.chats[chatID] = c
	return nil
}

func (m *MockDatabase) DeleteChat(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[id]; !ok {
		return errors.WithStack(database.ErrNotFound)
	}
	delete(m.chats, id)
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ChatID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

// Additional mock that always returns an error for chat storage
type ErrorMockDatabase struct {
	*MockDatabase
}

func (e *ErrorMockDatabase) AppendExchange(int64, *models.Message, *models.Message, string, time.Time) error {
	return fmt.Errorf("insert error")
}

func (e *ErrorMockDatabase) ChatsByUser(int64) ([]models.Chat, error) {
	return nil, fmt.Errorf("query error")
}

// fakeScanner returns a fixed report or error and remembers what it scanned
type fakeScanner struct {
	mu      sync.Mutex
	report  report.Report
	err     error
	scanned []string
}

func (f *fakeScanner) Scan(_ context.Context, source string) (report.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanned = append(f.scanned, source)
	return f.report, f.err
}
