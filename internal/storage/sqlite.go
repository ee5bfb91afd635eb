package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := newWithDB(db)

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func newWithDB(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		name TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_settings (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		language TEXT NOT NULL DEFAULT 'ar',
		theme TEXT NOT NULL DEFAULT 'dark',
		user_mode TEXT NOT NULL DEFAULT 'beginner',
		secure_mode BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON auth_sessions(expires_at);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		data TEXT NOT NULL DEFAULT 'null',
		thumbnail TEXT NOT NULL DEFAULT '',
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		share_id TEXT UNIQUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id, updated_at DESC);

	CREATE TABLE IF NOT EXISTS shares (
		project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		views INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS media_assets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		content_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_user ON media_assets(user_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Users

// CreateUser inserts the user together with its default settings row.
func (s *SQLiteStorage) CreateUser(u *User) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO users (id, email, password_hash, name, image, provider, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Image, u.Provider, u.CreatedAt); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	d := DefaultSettings(u.ID)
	if _, err := tx.Exec(`
		INSERT INTO user_settings (user_id, language, theme, user_mode, secure_mode)
		VALUES (?, ?, ?, ?, ?)
	`, d.UserID, d.Language, d.Theme, d.UserMode, d.SecureMode); err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}

	return tx.Commit()
}

const userColumns = `id, email, password_hash, name, image, provider, created_at`

func scanUser(row scanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Image, &u.Provider, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStorage) GetUser(id string) (*User, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *SQLiteStorage) GetUserByEmail(email string) (*User, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// Settings

func (s *SQLiteStorage) GetSettings(userID string) (*UserSettings, error) {
	row := s.db.QueryRow(`
		SELECT user_id, language, theme, user_mode, secure_mode
		FROM user_settings WHERE user_id = ?
	`, userID)

	var st UserSettings
	err := row.Scan(&st.UserID, &st.Language, &st.Theme, &st.UserMode, &st.SecureMode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLiteStorage) SaveSettings(st *UserSettings) error {
	_, err := s.db.Exec(`
		INSERT INTO user_settings (user_id, language, theme, user_mode, secure_mode)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			language = excluded.language,
			theme = excluded.theme,
			user_mode = excluded.user_mode,
			secure_mode = excluded.secure_mode
	`, st.UserID, st.Language, st.Theme, st.UserMode, st.SecureMode)
	return err
}

// Auth sessions

func (s *SQLiteStorage) CreateSession(a *AuthSession) error {
	_, err := s.db.Exec(`
		INSERT INTO auth_sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, a.Token, a.UserID, a.ExpiresAt, a.CreatedAt)
	return err
}

func (s *SQLiteStorage) GetSession(token string) (*AuthSession, error) {
	row := s.db.QueryRow(`
		SELECT token, user_id, expires_at, created_at
		FROM auth_sessions WHERE token = ?
	`, token)

	var a AuthSession
	err := row.Scan(&a.Token, &a.UserID, &a.ExpiresAt, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStorage) DeleteSession(token string) error {
	_, err := s.db.Exec("DELETE FROM auth_sessions WHERE token = ?", token)
	return err
}

// DeleteExpiredSessions removes sessions that expired before now and returns
// how many were removed.
func (s *SQLiteStorage) DeleteExpiredSessions(now time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM auth_sessions WHERE expires_at < ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
