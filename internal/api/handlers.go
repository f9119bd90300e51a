package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/duetboard/duetboard/internal/identity"
	"github.com/duetboard/duetboard/internal/ws"
)

type API struct {
	hub   *ws.Hub
	users *identity.Store
}

func New(hub *ws.Hub, users *identity.Store) *API {
	return &API{
		hub:   hub,
		users: users,
	}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Whiteboard backend is running.\n"))
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"active_rooms":   a.hub.RoomCount(),
		"active_clients": a.hub.ClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	if a.users != nil {
		if count, err := a.users.UserCount(); err == nil {
			stats["registered_users"] = count
		}
	}

	jsonResponse(w, http.StatusOK, stats)
}

// ListRoomsHandler reports the live rooms. Rooms exist only while
// occupied, so this is a snapshot of the hub, not a database listing.
func (a *API) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	summaries := a.hub.RoomSummaries()
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms": summaries,
		"count": len(summaries),
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		errorResponse(w, http.StatusBadRequest, "username and password required")
		return
	}

	if err := a.users.Register(req.Username, req.Password); err != nil {
		if errors.Is(err, identity.ErrUsernameTaken) {
			errorResponse(w, http.StatusBadRequest, "username exists")
			return
		}
		log.Printf("Register failed for %q: %v", req.Username, err)
		errorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		errorResponse(w, http.StatusBadRequest, "username and password required")
		return
	}

	if err := a.users.Authenticate(req.Username, req.Password); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			errorResponse(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		log.Printf("Login failed for %q: %v", req.Username, err)
		errorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"username": req.Username,
	})
}
