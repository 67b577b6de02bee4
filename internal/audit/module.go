// Package audit exposes read-only views of the pipeline's audit trail
// for operators. Responses carry identifiers and outcomes only, never
// reply bodies or customer data.
package audit

import (
	apphttp "github.com/KevinSGarrett/RichPanel-sub000/internal/http"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/httpkit"
)

// Module is the audit bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the audit module.
func NewModule(reader ExecutionReader) *Module {
	return &Module{handler: NewHandler(reader)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "audit"
}

// RegisterRoutes mounts audit routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Operator endpoints share the webhook API key.
	group := ctx.V1.Group("/audit", httpkit.APIKeyRequired(ctx.Config))
	group.GET("/conversations/:conversationId/execution", m.handler.HandleLatestExecution)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
