package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/handler/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/handler/export"
	"github.com/zhouzirui/z-advisor/backend/internal/handler/profile"
	"github.com/zhouzirui/z-advisor/backend/internal/handler/recommend"
	"github.com/zhouzirui/z-advisor/backend/internal/handler/stream"
	"github.com/zhouzirui/z-advisor/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/z-advisor/backend/internal/middleware"
	profileModel "github.com/zhouzirui/z-advisor/backend/internal/model/profile"
	chatService "github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	recommendService "github.com/zhouzirui/z-advisor/backend/internal/service/recommend"
	"github.com/zhouzirui/z-advisor/backend/pkg/utils"
)

// Deps collects the services the HTTP layer is wired to.
type Deps struct {
	Profiles       profileModel.Store
	Chat           *chatService.Service
	Catalog        *recommendService.Catalog
	Limiter        *middlewarePkg.RateLimiter
	AllowedOrigins []string
	PublicBaseURL  string
	Heartbeat      time.Duration
	Logger         logrus.FieldLogger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		profile.New(deps.Profiles).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Limiter).RegisterRoutes(api)
		stream.New(deps.Chat, deps.Heartbeat, logger).RegisterRoutes(api)
		ws.New(deps.Chat, deps.AllowedOrigins, logger).RegisterRoutes(api)
		export.New(deps.Chat, deps.PublicBaseURL, logger).RegisterRoutes(api)

		if deps.Catalog != nil {
			recommend.New(deps.Catalog).RegisterRoutes(api)
		}
	})

	return r
}
