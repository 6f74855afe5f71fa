package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zaviye/zaviye/internal/handler/completion"
	"github.com/zaviye/zaviye/internal/handler/persona"
	middlewarePkg "github.com/zaviye/zaviye/internal/middleware"
	personaModel "github.com/zaviye/zaviye/internal/model/persona"
	"github.com/zaviye/zaviye/internal/service/ai"
	"github.com/zaviye/zaviye/internal/service/ratelimit"
	"github.com/zaviye/zaviye/pkg/utils"
)

// NewRouter wires HTTP routes to core services. A nil generator keeps the
// completion route mounted but answering with a configuration error.
func NewRouter(personas personaModel.Store, generator ai.Generator, limiter *ratelimit.Limiter, now func() time.Time) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	personaHandler := persona.New(personas)
	completionHandler := completion.New(generator)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)

		// rate limiting runs before the credential check
		completionHandler.RegisterRoutes(api, middlewarePkg.RateLimit(limiter, now))
	})

	return r
}
