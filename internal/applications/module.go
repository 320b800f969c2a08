// Package applications provides the loan applications domain module: public
// evaluation plus protected review endpoints over stored decisions.
package applications

import (
	"loan_portal_backend/internal/applications/cache"
	"loan_portal_backend/internal/applications/handler"
	"loan_portal_backend/internal/applications/repository"
	"loan_portal_backend/internal/applications/service"
	"loan_portal_backend/internal/events"
	apphttp "loan_portal_backend/internal/http"
	"loan_portal_backend/internal/inference"
	"loan_portal_backend/platform/logger"
	"loan_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the applications domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new applications module with all dependencies wired.
// pipeline may be nil when artifacts failed to load; decisionCache may be
// nil when no cache is configured.
func NewModule(pool *pgxpool.Pool, pipeline *inference.Pipeline, decisionCache *cache.DecisionCache, eventBus events.Bus, val *validator.Validator, log *logger.Logger, reviewThreshold float64) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pipeline, decisionCache, eventBus, log, reviewThreshold)
	h := handler.New(svc, val, log)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "applications"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public route — rate-limited at the router, no auth.
	ctx.Public.POST("/applications/evaluate", m.handler.Evaluate)

	apps := ctx.Protected.Group("/applications")
	apps.GET("", m.handler.List)
	apps.GET("/stats", m.handler.Stats)
	apps.GET("/:id", m.handler.Get)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
