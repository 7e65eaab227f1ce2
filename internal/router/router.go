package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"visionboard-backend/internal/handlers"
	"visionboard-backend/internal/middleware"
	"visionboard-backend/internal/websocket"
)

func New(
	sessionHandler *handlers.SessionHandler,
	chatHandler *handlers.ChatHandler,
	boardHandler *handlers.BoardHandler,
	itemHandler *handlers.ItemHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Gemini-backed routes are the expensive ones (30 req/min per IP)
	aiLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/{id}", sessionHandler.Get)
			r.Delete("/{id}", sessionHandler.Delete)

			// ──── Chat Routes ────
			r.Get("/{id}/messages", sessionHandler.ListMessages)
			r.Group(func(r chi.Router) {
				r.Use(aiLimiter.Middleware)
				r.Post("/{id}/messages", chatHandler.SendMessage)
				r.Post("/{id}/board", boardHandler.Generate)
			})

			// ──── Board & Item Routes ────
			r.Get("/{id}/board", boardHandler.Get)
			r.Put("/{id}/items/{itemID}", itemHandler.Update)
			r.Put("/{id}/items/{itemID}/achieve", itemHandler.ToggleAchieved)
			r.Delete("/{id}/items/{itemID}", itemHandler.Delete)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
