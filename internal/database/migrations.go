package database

import migrate "github.com/rubenv/sql-migrate"

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "20251209_001_users",
			Up: []string{`
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				email TEXT NOT NULL UNIQUE,
				password_hash BLOB NOT NULL,
				roles TEXT NOT NULL,
				verified INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL
			);`},
			Down: []string{`DROP TABLE users;`},
		},
		{
			Id: "20251209_002_code_scan",
			Up: []string{`
			CREATE TABLE IF NOT EXISTS code_scan_chats (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);`, `
			CREATE INDEX IF NOT EXISTS idx_code_scan_chats_user ON code_scan_chats (user_id, updated_at);`, `
			CREATE TABLE IF NOT EXISTS code_scan_messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				chat_id INTEGER NOT NULL REFERENCES code_scan_chats(id) ON DELETE CASCADE,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);`, `
			CREATE INDEX IF NOT EXISTS idx_code_scan_messages_chat ON code_scan_messages (chat_id);`},
			Down: []string{`DROP TABLE code_scan_messages;`, `DROP TABLE code_scan_chats;`},
		},
	},
}
