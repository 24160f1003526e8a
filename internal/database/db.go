package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"

	"code-scanner/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type Database struct {
	db *sql.DB
}

var _ DataStore = &Database{}

// NewDatabase opens the sqlite database at path with foreign keys enforced.
func NewDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open database %s", path)
	}
	// sqlite allows a single writer, and each ":memory:" connection is its own database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrapf(err, "cannot reach database %s", path)
	}

	return &Database{db: db}, nil
}

// Init applies the pending schema migrations
func (d *Database) Init() error {
	n, err := migrate.Exec(d.db, "sqlite3", migrations, migrate.Up)
	if err != nil {
		return errors.Wrap(err, "cannot apply migrations")
	}
	log.WithField("applied", n).Debug("database migrations done")
	return nil
}

// CreateUser inserts u and sets its ID.
// The "roles" field is stored as a JSON encoded string
func (d *Database) CreateUser(u *models.User) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return errors.WithStack(err)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := d.db.Exec(`
	INSERT INTO users (email, password_hash, roles, verified, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.Email, u.PasswordHash, string(roles), u.Verified, u.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(ErrDuplicate, "user %s", u.Email)
		}
		return errors.Wrap(err, "cannot insert user")
	}
	u.ID, err = res.LastInsertId()
	return errors.WithStack(err)
}

const userColumns = `id, email, password_hash, roles, verified, created_at`

func (d *Database) UserByEmail(email string) (models.User, error) {
	return scanUser(d.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (d *Database) UserByID(id int64) (models.User, error) {
	return scanUser(d.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (d *Database) ListUsers() ([]models.User, error) {
	rows, err := d.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "cannot list users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, errors.WithStack(rows.Err())
}

// DeleteUser removes the user together with its chats and their messages
func (d *Database) DeleteUser(id int64) error {
	return d.tx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM code_scan_messages WHERE chat_id IN (SELECT id FROM code_scan_chats WHERE user_id = ?)`, id); err != nil {
			return errors.WithStack(err)
		}
		if _, err := tx.Exec(`DELETE FROM code_scan_chats WHERE user_id = ?`, id); err != nil {
			return errors.WithStack(err)
		}
		return deleted(tx.Exec(`DELETE FROM users WHERE id = ?`, id))
	})
}

func (d *Database) CreateChat(c *models.Chat) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	res, err := d.db.Exec(`
	INSERT INTO code_scan_chats (user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
	`, c.UserID, c.Title, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "cannot insert chat")
	}
	c.ID, err = res.LastInsertId()
	return errors.WithStack(err)
}

// ChatByID loads a chat with its messages in creation order
func (d *Database) ChatByID(id int64) (models.Chat, error) {
	var c models.Chat
	err := d.db.QueryRow(`
	SELECT id, user_id, title, created_at, updated_at FROM code_scan_chats WHERE id = ?
	`, id).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, errors.Wrapf(ErrNotFound, "chat %d", id)
	}
	if err != nil {
		return c, errors.Wrapf(err, "cannot load chat %d", id)
	}

	rows, err := d.db.Query(`
	SELECT id, chat_id, role, content, created_at FROM code_scan_messages WHERE chat_id = ? ORDER BY id
	`, id)
	if err != nil {
		return c, errors.Wrapf(err, "cannot load messages of chat %d", id)
	}
	defer rows.Close()

	c.Messages = []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return c, errors.WithStack(err)
		}
		c.Messages = append(c.Messages, m)
	}
	return c, errors.WithStack(rows.Err())
}

// ChatsByUser returns the user's chats, most recently updated first
func (d *Database) ChatsByUser(userID int64) ([]models.Chat, error) {
	rows, err := d.db.Query(`
	SELECT id, user_id, title, created_at, updated_at FROM code_scan_chats
		WHERE user_id = ? ORDER BY updated_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "cannot list chats")
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.WithStack(err)
		}
		chats = append(chats, c)
	}
	return chats, errors.WithStack(rows.Err())
}

// AppendExchange stores a submitted code and its report in one transaction.
// When they are the first two messages of the chat, the chat takes title.
func (d *Database) AppendExchange(chatID int64, question, answer *models.Message, title string, at time.Time) error {
	return d.tx(func(tx *sql.Tx) error {
		for _, m := range []*models.Message{question, answer} {
			m.ChatID = chatID
			if m.CreatedAt.IsZero() {
				m.CreatedAt = at
			}
			res, err := tx.Exec(`
			INSERT INTO code_scan_messages (chat_id, role, content, created_at) VALUES (?, ?, ?, ?)
			`, chatID, m.Role, m.Content, m.CreatedAt.UTC())
			if err != nil {
				return errors.Wrapf(err, "cannot insert %s message", m.Role)
			}
			if m.ID, err = res.LastInsertId(); err != nil {
				return errors.WithStack(err)
			}
		}

		var count int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM code_scan_messages WHERE chat_id = ?`, chatID).Scan(&count); err != nil {
			return errors.WithStack(err)
		}
		if count == 2 && title != "" {
			if _, err := tx.Exec(`UPDATE code_scan_chats SET title = ? WHERE id = ?`, title, chatID); err != nil {
				return errors.WithStack(err)
			}
		}
		return deleted(tx.Exec(`UPDATE code_scan_chats SET updated_at = ? WHERE id = ?`, at.UTC(), chatID))
	})
}

// DeleteChat removes a chat and its messages
func (d *Database) DeleteChat(id int64) error {
	return d.tx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM code_scan_messages WHERE chat_id = ?`, id); err != nil {
			return errors.WithStack(err)
		}
		return deleted(tx.Exec(`DELETE FROM code_scan_chats WHERE id = ?`, id))
	})
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) tx(fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return errors.Wrap(err, "cannot start transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "cannot commit transaction")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var roles string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &roles, &u.Verified, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, errors.WithStack(ErrNotFound)
	}
	if err != nil {
		return u, errors.Wrap(err, "cannot load user")
	}

	// Unmarshal json encoding string roles back to a slice
	if err := json.Unmarshal([]byte(roles), &u.Roles); err != nil {
		u.Roles = []string{}
	}
	return u, nil
}

// deleted turns an UPDATE or DELETE touching no row into ErrNotFound
func deleted(res sql.Result, err error) error {
	if err != nil {
		return errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
