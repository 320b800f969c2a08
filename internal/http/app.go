// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"loan_portal_backend/internal/events"
	"loan_portal_backend/platform/config"
	"loan_portal_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// PipelineStatus reports whether the inference pipeline is loaded and usable.
// The health endpoint surfaces this so operators can tell "process up, model
// missing" apart from a healthy deployment.
type PipelineStatus interface {
	Available() bool
	ModelVersion() string
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (e.g., DB ping).
	Health HealthChecker
	// Pipeline reports inference availability for the health endpoint.
	Pipeline PipelineStatus
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// PublicRateLimit is requests per second allowed per IP on public routes.
	PublicRateLimit float64
	// PublicRateBurst is the burst size for the public rate limiter.
	PublicRateBurst int
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
