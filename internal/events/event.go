// Package events provides domain event definitions for decoupled
// communication between pipeline stages.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/KevinSGarrett/RichPanel-sub000/platform/events"
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
// Ingestion Events
// =============================================================================

// EnvelopeReceived is published when a webhook event passes validation
// and deduplication and is queued for processing.
type EnvelopeReceived struct {
	BaseEvent
	EventID        string `json:"eventId"`
	ConversationID string `json:"conversationId"`
	Source         string `json:"source"`
}

func (e EnvelopeReceived) EventName() string { return "pipeline.envelope.received" }

// =============================================================================
// Planning Events
// =============================================================================

// PlanBuilt is published after the action plan for an envelope is
// computed. Carries only redacted identifiers, never bodies.
type PlanBuilt struct {
	BaseEvent
	EventID        string `json:"eventId"`
	ConversationID string `json:"conversationId"`
	Mode           string `json:"mode"`
	HasDraft       bool   `json:"hasDraft"`
	RoutingIntent  string `json:"routingIntent"`
}

func (e PlanBuilt) EventName() string { return "pipeline.plan.built" }

// =============================================================================
// Execution Events
// =============================================================================

// ExecutionFinished is published after an execution attempt reaches a
// terminal state.
type ExecutionFinished struct {
	BaseEvent
	EventID        string `json:"eventId"`
	ConversationID string `json:"conversationId"`
	Sent           bool   `json:"sent"`
	Reason         string `json:"reason"`
}

func (e ExecutionFinished) EventName() string { return "pipeline.execution.finished" }

// UpdateCandidatesExhausted is published when every update payload
// shape was attempted without a confirmed close. Operators are alerted
// because the conversation may carry a posted reply without its
// loop-prevention tags.
type UpdateCandidatesExhausted struct {
	BaseEvent
	ConversationID string `json:"conversationId"`
	Attempts       int    `json:"attempts"`
	CommentPosted  bool   `json:"commentPosted"`
}

func (e UpdateCandidatesExhausted) EventName() string { return "pipeline.execution.candidates_exhausted" }
