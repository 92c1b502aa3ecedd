package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bannergen/internal/http/handlers"
	"bannergen/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(nil),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", app.Health)
		r.Get("/status/{task_id}", app.Status)
		r.Get("/tasks/{task_id}/archive", app.Archive)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
			r.Post("/generate", app.Generate)
			r.Post("/generate_title", app.GenerateTitle)
		})
	})

	r.Get("/ws/{task_id}", app.WatchTask)
	r.Get("/media/{filename}", app.Media)

	return r
}
