// Package session exposes the signed-in user's bearer token and account id
// to the review composer. The store is persisted on the client and written
// only by the login/logout commands.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	keyToken    = "token"
	keyUserID   = "userId"
	keyNickname = "nickname"
)

// Session is the read-only capability handed to the composer.
type Session interface {
	Token() (string, bool)
	UserID() (int64, bool)
}

// Credentials is what a login stores.
type Credentials struct {
	Token    string
	UserID   int64
	Nickname string
}

// Static is an in-memory Session.
type Static struct {
	Credentials
}

func (s Static) Token() (string, bool) {
	return s.Credentials.Token, strings.TrimSpace(s.Credentials.Token) != ""
}

func (s Static) UserID() (int64, bool) {
	return s.Credentials.UserID, s.Credentials.UserID > 0
}

// SQLiteStore is a persisted key-value session store.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the session database at path. Read
// failures other than a missing key are reported through logger.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure session directory: %w", err)
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS session (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(key string) (string, bool) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM session WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.logger.Error("failed to read session",
			slog.String("key", key), slog.String("error", err.Error()))
		return "", false
	}
	return value, true
}

// Token returns the stored bearer token.
func (s *SQLiteStore) Token() (string, bool) {
	v, ok := s.get(keyToken)
	return v, ok && strings.TrimSpace(v) != ""
}

// UserID returns the stored account id.
func (s *SQLiteStore) UserID() (int64, bool) {
	v, ok := s.get(keyUserID)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Nickname returns the stored display name, if any.
func (s *SQLiteStore) Nickname() string {
	v, _ := s.get(keyNickname)
	return v
}

// Save replaces the stored credentials.
func (s *SQLiteStore) Save(ctx context.Context, creds Credentials) error {
	if strings.TrimSpace(creds.Token) == "" {
		return errors.New("session token cannot be empty")
	}
	if creds.UserID <= 0 {
		return fmt.Errorf("invalid user id %d", creds.UserID)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session save: %w", err)
	}
	defer tx.Rollback()

	values := map[string]string{
		keyToken:    creds.Token,
		keyUserID:   strconv.FormatInt(creds.UserID, 10),
		keyNickname: creds.Nickname,
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("save session %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Clear removes all stored credentials.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

var (
	_ Session = (*SQLiteStore)(nil)
	_ Session = Static{}
)
