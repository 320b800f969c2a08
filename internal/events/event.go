// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"loan_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Applications Domain Events
// =============================================================================

// ApplicationEvaluated is published after an application has been run through
// the inference pipeline and the decision stored.
type ApplicationEvaluated struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"applicationId"`
	Status        string    `json:"status"`
	Confidence    float64   `json:"confidence"`
	ModelVersion  string    `json:"modelVersion"`
	FromCache     bool      `json:"fromCache"`
}

func (e ApplicationEvaluated) EventName() string { return "applications.evaluated" }

// DecisionDigestDue is published by the scheduler when the periodic decision
// digest should be computed and sent.
type DecisionDigestDue struct {
	BaseEvent
	WindowHours int `json:"windowHours"`
}

func (e DecisionDigestDue) EventName() string { return "applications.digest.due" }
