package api

import (
	"net/http"
	"time"

	// Blank import required by swaggo to find the API definitions.
	_ "docuchat/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter configures the chi router with all application routes.
// staticDir is the directory holding the single-page frontend.
func NewRouter(chatHandler *ChatHandler, staticDir string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Plain JSON routes get a request timeout so connections cannot
		// hang indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Post("/sessions", chatHandler.HandleCreateSession)
			r.Get("/sessions/{sessionID}/messages", chatHandler.HandleGetTranscript)
			r.Post("/sessions/{sessionID}/reset", chatHandler.HandleReset)
			r.Delete("/sessions/{sessionID}", chatHandler.HandleDeleteSession)
		})

		// The ask endpoint streams; it must NOT have a timeout middleware,
		// the turn pipeline bounds its own upstream calls instead.
		r.Group(func(r chi.Router) {
			r.Post("/sessions/{sessionID}/messages", chatHandler.HandleAsk)
		})
	})

	// The single-page chat UI.
	fileServer := http.FileServer(http.Dir(staticDir))
	r.Handle("/*", http.StripPrefix("/", fileServer))

	return r
}
