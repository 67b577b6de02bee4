// Package webhook provides the ingestion bounded context module.
// This file defines the module that encapsulates all webhook setup and route registration.
package webhook

import (
	"github.com/KevinSGarrett/RichPanel-sub000/internal/dedupe"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/events"
	apphttp "github.com/KevinSGarrett/RichPanel-sub000/internal/http"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/scheduler"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/validator"
)

// Module is the ingestion bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(guard *dedupe.Guard, recorder EventRecorder, enqueuer scheduler.TicketEnqueuer, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(guard, recorder, enqueuer, eventBus, log)
	handler := NewHandler(service, val)

	return &Module{handler: handler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// API-key authenticated, rate limited (set up by the router)
	ctx.Webhooks.POST("/richpanel", m.handler.HandleRichpanelEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
