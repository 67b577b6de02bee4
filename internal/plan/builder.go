package plan

import (
	"context"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/orders"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/reply"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/routing"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// OrderResolver is the slice of the order resolver the builder needs.
type OrderResolver interface {
	Resolve(ctx context.Context, env envelope.Envelope) orders.Summary
}

// RoutingComputer is the slice of the routing reconciler the builder needs.
type RoutingComputer interface {
	ComputeDualRouting(ctx context.Context, env envelope.Envelope, forcePrimary bool) (routing.Decision, routing.Artifact)
}

// Builder turns an envelope into an action plan.
type Builder struct {
	router   RoutingComputer
	resolver OrderResolver
	drafter  *reply.Drafter
	auto     config.AutomationConfig
	log      *logger.Logger
}

// NewBuilder creates a plan builder.
func NewBuilder(router RoutingComputer, resolver OrderResolver, drafter *reply.Drafter, auto config.AutomationConfig, log *logger.Logger) *Builder {
	return &Builder{router: router, resolver: resolver, drafter: drafter, auto: auto, log: log}
}

// PlanActions builds the plan for one envelope. It never panics; an
// unexpected panic degrades to a route-only plan with reason "exception".
func (b *Builder) PlanActions(ctx context.Context, env envelope.Envelope) (p Plan) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithEventID(env.EventID).PipelineSkip(env.EventID, "exception")
			p = Plan{
				EventID:           env.EventID,
				ConversationID:    env.ConversationID,
				Mode:              ModeRouteOnly,
				SafeMode:          b.auto.GetSafeMode(),
				AutomationEnabled: b.auto.GetAutomationEnabled(),
				Actions:           []Action{{Type: ActionRouteOnly}},
				Reasons:           []string{"exception"},
			}
		}
	}()

	p = Plan{
		EventID:           env.EventID,
		ConversationID:    env.ConversationID,
		SafeMode:          b.auto.GetSafeMode(),
		AutomationEnabled: b.auto.GetAutomationEnabled(),
	}

	decision, artifact := b.router.ComputeDualRouting(ctx, env, false)
	p.Routing = decision
	p.RoutingArtifact = artifact

	// Safe mode and disabled automation hard short-circuit the plan:
	// routing only, no resolver or drafter calls.
	if b.auto.GetSafeMode() || !b.auto.GetAutomationEnabled() {
		p.Mode = ModeRouteOnly
		if b.auto.GetSafeMode() {
			p.AddReason("safe_mode")
		}
		if !b.auto.GetAutomationEnabled() {
			p.AddReason("automation_disabled")
		}
		p.Actions = []Action{{Type: ActionRouteOnly}}
		return p
	}

	p.Mode = ModeAutomationCandidate
	p.AddReason("intent:" + decision.Intent)

	if decision.Intent != routing.IntentOrderStatus {
		p.Actions = []Action{{Type: ActionAnalyze}}
		return p
	}

	summary := b.resolver.Resolve(ctx, env)

	ticketCreatedAt, ok := env.TicketCreatedAt()
	if !ok {
		ticketCreatedAt = env.ReceivedAt
	}

	draft, missingField := b.drafter.Draft(summary, env.ConversationID, ticketCreatedAt)
	if missingField != "" {
		// The suppressed draft is a terminal, auditable plan state.
		p.Routing.AddTags(
			routing.OrderLookupMissingTag(missingField),
			routing.TagOrderStatusSuppressed,
			routing.TagEmailSupportTeam,
		)
		if summary.LookupFailed {
			p.Routing.AddTags(routing.TagOrderLookupFailed)
			p.AddReason("order_lookup_failed")
		}
		p.AddReason("missing_order_context:" + missingField)
		p.Actions = []Action{{
			Type:       ActionAnalyze,
			Parameters: &ActionParameters{OrderSummary: &summary},
		}}
		return p
	}

	params := &ActionParameters{
		OrderSummary:      &summary,
		PromptFingerprint: Fingerprint(draft.Body),
		DeliveryEstimate:  draft.Estimate,
		DraftReply:        draft.Body,
	}
	p.Actions = []Action{
		{Type: ActionAnalyze, Parameters: &ActionParameters{OrderSummary: &summary}},
		{Type: ActionOrderStatusDraft, Enabled: false, DryRun: true, Parameters: params},
	}
	return p
}
