package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/interviewfriend/relay/backend/internal/config"
	"github.com/interviewfriend/relay/backend/internal/handler/chat"
	"github.com/interviewfriend/relay/backend/internal/handler/health"
	middlewarePkg "github.com/interviewfriend/relay/backend/internal/middleware"
	"github.com/interviewfriend/relay/backend/internal/observability"
	aiService "github.com/interviewfriend/relay/backend/internal/service/ai"
)

// NewRouter wires HTTP routes to core services. aiSvc may be nil when the
// inference client could not be constructed.
func NewRouter(serverCfg config.ServerConfig, aiSvc *aiService.Service, metrics *observability.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.StandardLogger(), NoColor: true}))
	r.Use(middleware.Recoverer)

	// Avoid a typed nil inside the interface.
	var streamer chat.Streamer
	if aiSvc != nil {
		streamer = aiSvc
	}

	health.New(aiSvc != nil).RegisterRoutes(r)

	r.Group(func(api chi.Router) {
		api.Use(middlewarePkg.CORS(serverCfg.AllowedOrigin))
		if serverCfg.RateLimit > 0 {
			limiter := middlewarePkg.NewRateLimiter(serverCfg.RateLimit, serverCfg.RateBurst)
			api.Use(limiter.Middleware(metrics))
		}
		// chi only routes OPTIONS to a handler registered for it.
		api.Options("/chat", func(http.ResponseWriter, *http.Request) {})
		chat.New(streamer, metrics).RegisterRoutes(api)
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
