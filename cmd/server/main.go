package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/duetboard/duetboard/internal/api"
	"github.com/duetboard/duetboard/internal/identity"
	"github.com/duetboard/duetboard/internal/ws"
)

func main() {
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func serve(cfg *Config) error {
	users, err := identity.New(cfg.dbPath)
	if err != nil {
		return err
	}
	defer users.Close()

	hub := ws.NewHub()
	go hub.Run()

	apiHandler := api.New(hub, users)

	r := mux.NewRouter()

	// WebSocket event channel
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWs(hub, w, req)
	})

	r.HandleFunc("/", apiHandler.RootHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", apiHandler.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", apiHandler.StatsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/rooms", apiHandler.ListRoomsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	handler := corsMiddleware(r)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		users.Close()
		os.Exit(0)
	}()

	log.Printf("Duetboard server starting on %s", cfg.addr())
	if cfg.verbose {
		log.Printf("User database: %s", cfg.dbPath)
		log.Println("Endpoints:")
		log.Println("  - WebSocket: /ws")
		log.Println("  - Health:    GET /health")
		log.Println("  - Stats:     GET /api/stats")
		log.Println("  - Rooms:     GET /api/rooms")
		log.Println("  - Register:  POST /api/register")
		log.Println("  - Login:     POST /api/login")
	}

	return http.ListenAndServe(cfg.addr(), handler)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
