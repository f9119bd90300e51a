package identity

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "duetboard-identity-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	store, err := New(filepath.Join(tmpDir, "users.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.Register("alice", "s3cret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := store.Authenticate("alice", "s3cret"); err != nil {
		t.Errorf("Authenticate with correct password failed: %v", err)
	}

	if err := store.Authenticate("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	if err := store.Authenticate("nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.Register("alice", "one"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := store.Register("alice", "two"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Expected ErrUsernameTaken, got %v", err)
	}

	// Original password still valid
	if err := store.Authenticate("alice", "one"); err != nil {
		t.Errorf("Original credentials should survive a duplicate register: %v", err)
	}
}

func TestGetUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	user, err := store.GetUser("ghost")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user != nil {
		t.Error("Expected nil for unknown user")
	}

	store.Register("alice", "pw")

	user, err = store.GetUser("alice")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Errorf("Unexpected user: %+v", user)
	}

	count, err := store.UserCount()
	if err != nil {
		t.Fatalf("UserCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}
}
