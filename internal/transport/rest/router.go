package rest

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/okso-hub/scrum-poker-sub000/internal/service"
	"github.com/okso-hub/scrum-poker-sub000/internal/store"
	"github.com/okso-hub/scrum-poker-sub000/internal/transport/rest/handler"
	"github.com/okso-hub/scrum-poker-sub000/internal/transport/rest/middleware"
	"github.com/okso-hub/scrum-poker-sub000/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	Store          *store.RoomStore
	GameService    *service.GameService
	ArchiveService *service.ArchiveService
	WSHub          *ws.Hub
	TeardownDelay  time.Duration
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.Store, c.WSHub)
	gameHandler := handler.NewGameHandler(c.Store, c.GameService, c.ArchiveService, c.WSHub, c.TeardownDelay)
	wsHandler := ws.NewHandler(c.WSHub)

	adminMW := middleware.NewAdminMiddleware(c.Store)

	r.Use(corsMiddleware)

	// Public routes
	r.HandleFunc("/create", roomHandler.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/join", roomHandler.Join).Methods("POST", "OPTIONS")
	r.HandleFunc("/is-admin", roomHandler.IsAdmin).Methods("GET", "OPTIONS")
	r.HandleFunc("/room/{roomId}/items", roomHandler.GetItems).Methods("GET", "OPTIONS")
	r.HandleFunc("/room/{roomId}/participants", roomHandler.Participants).Methods("GET", "OPTIONS")
	r.HandleFunc("/room/{roomId}/status", roomHandler.Status).Methods("GET", "OPTIONS")
	r.HandleFunc("/room/{roomId}/vote", gameHandler.Vote).Methods("POST", "OPTIONS")
	r.HandleFunc("/room/{roomId}/vote-status", gameHandler.VoteStatus).Methods("GET", "OPTIONS")
	r.HandleFunc("/summaries/{roomId}", gameHandler.GetSummary).Methods("GET", "OPTIONS")

	// Realtime channel; identity arrives via the in-band handshake.
	r.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Admin routes (caller address must match the room creator's)
	adminRoutes := r.NewRoute().Subrouter()
	adminRoutes.Use(adminMW.RequireAdmin)

	adminRoutes.HandleFunc("/room/{roomId}/items", roomHandler.SetItems).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/room/{roomId}/start", gameHandler.Start).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/room/{roomId}/reveal", gameHandler.Reveal).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/room/{roomId}/repeat", gameHandler.Repeat).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/room/{roomId}/next", gameHandler.Next).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/room/{roomId}/summary", gameHandler.Summary).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/room/{roomId}/ban", gameHandler.Ban).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
