package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/duetboard/duetboard/internal/identity"
	"github.com/duetboard/duetboard/internal/ws"
)

func setupTestAPI(t *testing.T) (*API, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "duetboard-api-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	users, err := identity.New(filepath.Join(tmpDir, "users.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create user store: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	api := New(hub, users)

	cleanup := func() {
		users.Close()
		os.RemoveAll(tmpDir)
	}

	return api, cleanup
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	api.HealthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", response["status"])
	}
}

func TestStatsHandler(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()

	api.StatsHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if _, ok := response["active_rooms"]; !ok {
		t.Error("Response should contain 'active_rooms'")
	}
	if _, ok := response["active_clients"]; !ok {
		t.Error("Response should contain 'active_clients'")
	}
	if _, ok := response["registered_users"]; !ok {
		t.Error("Response should contain 'registered_users'")
	}
}

func TestListRoomsHandlerEmpty(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/api/rooms", nil)
	w := httptest.NewRecorder()

	api.ListRoomsHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["count"] != float64(0) {
		t.Errorf("Expected 0 rooms, got %v", response["count"])
	}
}

func TestRegisterHandler(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
	}{
		{
			name:           "valid registration",
			body:           map[string]string{"username": "alice", "password": "s3cret"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "duplicate username",
			body:           map[string]string{"username": "alice", "password": "other"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing username",
			body:           map[string]string{"password": "s3cret"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing password",
			body:           map[string]string{"username": "bob"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, api.RegisterHandler, "/api/register", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	if w := postJSON(t, api.RegisterHandler, "/api/register", map[string]string{
		"username": "alice", "password": "s3cret",
	}); w.Code != http.StatusOK {
		t.Fatalf("Setup registration failed with status %d", w.Code)
	}

	w := postJSON(t, api.LoginHandler, "/api/login", map[string]string{
		"username": "alice", "password": "s3cret",
	})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["ok"] != true || response["username"] != "alice" {
		t.Errorf("Unexpected login response: %v", response)
	}

	w = postJSON(t, api.LoginHandler, "/api/login", map[string]string{
		"username": "alice", "password": "wrong",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad password, got %d", w.Code)
	}

	w = postJSON(t, api.LoginHandler, "/api/login", map[string]string{
		"username": "ghost", "password": "s3cret",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown user, got %d", w.Code)
	}
}
