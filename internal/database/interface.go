package database

import (
	"time"

	"code-scanner/internal/models"
)

// DataStore defines the operations required for storing users and code scan chats.
type DataStore interface {
	Init() error
	CreateUser(u *models.User) error
	UserByEmail(email string) (models.User, error)
	UserByID(id int64) (models.User, error)
	ListUsers() ([]models.User, error)
	DeleteUser(id int64) error
	CreateChat(c *models.Chat) error
	ChatByID(id int64) (models.Chat, error)
	ChatsByUser(userID int64) ([]models.Chat, error)
	AppendExchange(chatID int64, question, answer *models.Message, title string, at time.Time) error
	DeleteChat(id int64) error
}
