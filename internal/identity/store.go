package identity

import (
	"database/sql"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var (
	ErrUsernameTaken      = errors.New("username exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Sqlite-backed user store. This is the credential collaborator the
// session core consults indirectly via the HTTP login endpoint; board
// state itself is never persisted.
type Store struct {
	db *sql.DB
}

type User struct {
	Username  string
	CreatedAt time.Time
}

func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log.Printf("User store initialized at %s", dbPath)
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Register creates a user with a bcrypt-hashed password. Fails with
// ErrUsernameTaken if the name is already registered.
func (s *Store) Register(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, string(hash),
	)
	if err != nil {
		var exists bool
		row := s.db.QueryRow("SELECT COUNT(*) > 0 FROM users WHERE username = ?", username)
		if scanErr := row.Scan(&exists); scanErr == nil && exists {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// Authenticate checks a (username, password) pair. Returns
// ErrInvalidCredentials for unknown users and wrong passwords alike.
func (s *Store) Authenticate(username, password string) error {
	var hash string
	row := s.db.QueryRow("SELECT password_hash FROM users WHERE username = ?", username)
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GetUser returns the user record, or nil if absent.
func (s *Store) GetUser(username string) (*User, error) {
	var user User
	row := s.db.QueryRow("SELECT username, created_at FROM users WHERE username = ?", username)
	if err := row.Scan(&user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UserCount returns the number of registered users, for stats.
func (s *Store) UserCount() (int, error) {
	var count int
	row := s.db.QueryRow("SELECT COUNT(*) FROM users")
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
