package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "sokofresh/docs" // registra o documento Swagger
	"sokofresh/internal/api/user"
	"sokofresh/internal/domain"
	"sokofresh/internal/pkg/cache"
	"sokofresh/internal/pkg/logger"
	"sokofresh/internal/pkg/metrics"
	"sokofresh/internal/pkg/middleware"
)

// Deps reúne o que o roteador precisa, já inicializado no main.
type Deps struct {
	UserHandler *user.Handler
	Tokens      middleware.TokenService
	Logger      logger.Logger

	// Cookie do contexto de navegação; cada cliente tem a sua sessão.
	Cookie middleware.CookieOptions

	// RateLimitClient nulo desliga o rate limiter (sem Redis).
	RateLimitClient cache.Client
	RateLimit       int
	RateWindow      time.Duration

	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// --- 1. Middlewares globais ---
	r.Use(chimiddleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	// --- 2. Health Check, métricas e documentação ---
	r.Get("/ping", PingHandler)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 3. Rotas de sessão (v1) ---
	h := deps.UserHandler
	r.Route("/v1", func(r chi.Router) {
		if deps.RateLimitClient != nil {
			r.Use(middleware.RateLimiter(deps.RateLimitClient, deps.RateLimit, deps.RateWindow, deps.Logger))
		}
		r.Use(middleware.ClientSession(deps.Cookie))

		r.Post("/register", h.RegisterHandler)
		r.Post("/login", h.LoginHandler)
		r.Post("/login/external", h.ExternalLoginHandler)
		r.Post("/login/guest", h.GuestLoginHandler)
		r.Post("/logout", h.LogoutHandler)
		r.Get("/session", h.CurrentSessionHandler)
		r.Get("/session/events", h.SessionEventsHandler)

		// --- 4. Rotas protegidas por JWT ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.Tokens))

			// Convidado também edita o próprio perfil (fica só na sessão).
			r.With(middleware.PermissionMiddleware(domain.RoleMember, domain.RoleGuest)).Put("/profile", h.UpdateProfileHandler)
			r.With(middleware.PermissionMiddleware(domain.RoleMember)).Post("/ratings", h.RateUserHandler)
		})
	})

	return r
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
