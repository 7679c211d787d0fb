package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/app"
	iauth "github.com/onswift/backend/internal/auth"
	"github.com/onswift/backend/internal/handlers"
	"github.com/onswift/backend/internal/middleware"
)

const defaultMetricsEndpoint = "/metrics"

// NewRouter builds the Gin engine, wires middleware and registers every route.
// A nil rateStore falls back to an in-memory store.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, svc *Services, rateStore middleware.RateStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svc == nil {
		return nil, fmt.Errorf("services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins...))
	if limit := cfg.Server.RateLimit; limit.Enabled {
		if rateStore == nil {
			rateStore = middleware.NewMemoryRateStore()
		}
		r.Use(middleware.RateLimitWithStore(rateStore, limit.Requests, limit.Window))
	}

	r.GET("/health", handlers.Health(db))

	if prom := cfg.Monitoring.Prometheus; prom.Enabled {
		endpoint := strings.TrimSpace(prom.Endpoint)
		if endpoint == "" {
			endpoint = defaultMetricsEndpoint
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	registerAuthRoutes(r, api, authRouteDeps{
		AuthHandler:   handlers.NewAuthHandler(svc.Users, jwt),
		TalentHandler: handlers.NewTalentHandler(svc.Users),
		InviteHandler: handlers.NewInviteHandler(svc.Invites, svc.Users),
	})
	registerHireRoutes(api, handlers.NewHireHandler(svc.Hires, svc.Users))
	registerNotificationRoutes(api, handlers.NewNotificationHandler(svc.Notifications))
	registerProjectRoutes(api,
		handlers.NewProjectHandler(svc.Projects, svc.Users),
		handlers.NewTaskHandler(svc.Tasks, svc.Users),
	)
	registerDeliverableRoutes(api, handlers.NewDeliverableHandler(svc.Deliverables, svc.Users))
	registerMessagingRoutes(api,
		handlers.NewConversationHandler(svc.Conversations),
		handlers.NewGroupHandler(svc.Groups, svc.Users),
	)
	registerCalendarRoutes(api, handlers.NewCalendarHandler(svc.Calendar, svc.Users))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
