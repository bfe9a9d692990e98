package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"autobuilder/internal/http/handlers"
	"autobuilder/internal/infra"
	"autobuilder/internal/middleware"
)

// Options configures the router. Static is mounted under /static when set.
type Options struct {
	RateLimitPerMin int
	AllowedOrigins  []string
	Static          http.Handler
	Logger          *infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	logger := infra.OrDiscard(opts.Logger)
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/", app.Home)
	r.Get("/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/aipipe", app.AIPipe)
		if app.Tasks != nil {
			r.Post("/api-endpoint", app.SubmitTask)
		}
	})

	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", opts.Static))
	}

	return r
}
