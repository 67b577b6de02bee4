package plan

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/orders"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/reply"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/routing"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

type gates struct {
	safeMode   bool
	automation bool
	network    bool
	outbound   bool
}

func (g gates) GetSafeMode() bool          { return g.safeMode }
func (g gates) GetAutomationEnabled() bool { return g.automation }
func (g gates) GetAllowNetwork() bool      { return g.network }
func (g gates) GetOutboundEnabled() bool   { return g.outbound }

type fakeRouter struct {
	decision routing.Decision
	calls    int
}

func (f *fakeRouter) ComputeDualRouting(_ context.Context, _ envelope.Envelope, _ bool) (routing.Decision, routing.Artifact) {
	f.calls++
	return f.decision, routing.Artifact{Deterministic: f.decision, PrimarySource: routing.SourceDeterministic}
}

type fakeResolver struct {
	summary orders.Summary
	calls   int
}

func (f *fakeResolver) Resolve(_ context.Context, _ envelope.Envelope) orders.Summary {
	f.calls++
	return f.summary
}

func orderStatusDecision() routing.Decision {
	return routing.Decision{
		Category:   "orders",
		Intent:     routing.IntentOrderStatus,
		Department: "support",
		Tags:       []string{routing.TagRoutingApplied},
		Reason:     "keyword:order status",
	}
}

func resolvedSummary() orders.Summary {
	return orders.Summary{
		OrderID:        "1057300",
		Status:         "fulfilled",
		TrackingNumber: "TN123456",
		Carrier:        "UPS",
		ShippingMethod: "Ground",
		CreatedAt:      "2026-08-20T10:00:00Z",
		ItemsCount:     1,
	}
}

func testEnv() envelope.Envelope {
	return envelope.Envelope{
		EventID:        "evt-1",
		ConversationID: "conv-1",
		ReceivedAt:     time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
		Payload:        map[string]any{"subject": "order status"},
	}
}

func newBuilder(g gates, router *fakeRouter, resolver *fakeResolver) *Builder {
	return NewBuilder(router, resolver, reply.NewDrafter("Support"), g, logger.New("test"))
}

func TestSafeModeForcesRouteOnly(t *testing.T) {
	router := &fakeRouter{decision: orderStatusDecision()}
	resolver := &fakeResolver{summary: resolvedSummary()}
	b := newBuilder(gates{safeMode: true, automation: true}, router, resolver)

	p := b.PlanActions(context.Background(), testEnv())

	if p.Mode != ModeRouteOnly {
		t.Fatalf("expected route_only mode, got %s", p.Mode)
	}
	if resolver.calls != 0 {
		t.Fatalf("safe mode must not invoke the resolver")
	}
	if p.DraftAction() != nil {
		t.Fatalf("safe mode plan must not contain a draft action")
	}
	if len(p.Actions) != 1 || p.Actions[0].Type != ActionRouteOnly {
		t.Fatalf("expected a single route_only action, got %+v", p.Actions)
	}
}

func TestAutomationDisabledForcesRouteOnly(t *testing.T) {
	router := &fakeRouter{decision: orderStatusDecision()}
	resolver := &fakeResolver{summary: resolvedSummary()}
	b := newBuilder(gates{}, router, resolver)

	p := b.PlanActions(context.Background(), testEnv())

	if p.Mode != ModeRouteOnly {
		t.Fatalf("expected route_only mode, got %s", p.Mode)
	}
	if resolver.calls != 0 {
		t.Fatalf("disabled automation must not invoke the resolver")
	}
}

func TestOrderStatusPlanCarriesSingleDraft(t *testing.T) {
	router := &fakeRouter{decision: orderStatusDecision()}
	resolver := &fakeResolver{summary: resolvedSummary()}
	b := newBuilder(gates{automation: true, network: true, outbound: true}, router, resolver)

	p := b.PlanActions(context.Background(), testEnv())

	if p.Mode != ModeAutomationCandidate {
		t.Fatalf("expected automation_candidate mode, got %s", p.Mode)
	}
	draft := p.DraftAction()
	if draft == nil {
		t.Fatalf("expected a draft action, got %+v", p.Actions)
	}
	if draft.Enabled || !draft.DryRun {
		t.Fatalf("draft actions must be created disabled and dry-run, got %+v", draft)
	}
	if draft.Parameters == nil || draft.Parameters.DraftReply == "" {
		t.Fatalf("draft action missing reply body")
	}
	if draft.Parameters.PromptFingerprint != Fingerprint(draft.Parameters.DraftReply) {
		t.Fatalf("fingerprint does not match draft body")
	}
	if !strings.Contains(draft.Parameters.DraftReply, "TN123456") {
		t.Fatalf("draft body missing tracking number:\n%s", draft.Parameters.DraftReply)
	}

	drafts := 0
	for _, a := range p.Actions {
		if a.Type == ActionOrderStatusDraft {
			drafts++
		}
	}
	if drafts != 1 {
		t.Fatalf("plan must carry at most one draft action, got %d", drafts)
	}
}

func TestNonOrderStatusIntentGetsAnalyzeOnly(t *testing.T) {
	decision := orderStatusDecision()
	decision.Intent = routing.IntentGeneral
	router := &fakeRouter{decision: decision}
	resolver := &fakeResolver{summary: resolvedSummary()}
	b := newBuilder(gates{automation: true, network: true, outbound: true}, router, resolver)

	p := b.PlanActions(context.Background(), testEnv())

	if resolver.calls != 0 {
		t.Fatalf("non order-status intent must not invoke the resolver")
	}
	if len(p.Actions) != 1 || p.Actions[0].Type != ActionAnalyze {
		t.Fatalf("expected a single analyze action, got %+v", p.Actions)
	}
}

func TestMissingOrderContextSuppressesDraft(t *testing.T) {
	router := &fakeRouter{decision: orderStatusDecision()}
	resolver := &fakeResolver{summary: orders.Summary{OrderID: orders.OrderIDUnknown}}
	b := newBuilder(gates{automation: true, network: true, outbound: true}, router, resolver)

	p := b.PlanActions(context.Background(), testEnv())

	if p.DraftAction() != nil {
		t.Fatalf("missing order context must suppress the draft")
	}
	if len(p.Actions) != 1 || p.Actions[0].Type != ActionAnalyze {
		t.Fatalf("expected analyze-only plan, got %+v", p.Actions)
	}

	wantTag := routing.OrderLookupMissingTag("order_id")
	found := false
	for _, tag := range p.Routing.Tags {
		if tag == wantTag {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s tag, got %v", wantTag, p.Routing.Tags)
	}
}

func TestLookupFailureTagsPlan(t *testing.T) {
	router := &fakeRouter{decision: orderStatusDecision()}
	resolver := &fakeResolver{summary: orders.Summary{
		OrderID:      orders.OrderIDUnknown,
		LookupFailed: true,
	}}
	b := newBuilder(gates{automation: true, network: true, outbound: true}, router, resolver)

	p := b.PlanActions(context.Background(), testEnv())

	if p.DraftAction() != nil {
		t.Fatalf("failed lookup must suppress the draft")
	}
	found := false
	for _, tag := range p.Routing.Tags {
		if tag == routing.TagOrderLookupFailed {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s tag, got %v", routing.TagOrderLookupFailed, p.Routing.Tags)
	}
	hasReason := false
	for _, reason := range p.Reasons {
		if reason == "order_lookup_failed" {
			hasReason = true
		}
	}
	if !hasReason {
		t.Fatalf("expected order_lookup_failed reason, got %v", p.Reasons)
	}
}

func TestRedactOmitsBodies(t *testing.T) {
	router := &fakeRouter{decision: orderStatusDecision()}
	resolver := &fakeResolver{summary: resolvedSummary()}
	b := newBuilder(gates{automation: true, network: true, outbound: true}, router, resolver)

	p := b.PlanActions(context.Background(), testEnv())
	r := p.Redact()

	if !r.HasDraft || r.DraftFingerprint == "" {
		t.Fatalf("redacted plan must carry draft presence and fingerprint, got %+v", r)
	}
	body := p.DraftAction().Parameters.DraftReply
	if strings.Contains(r.DraftFingerprint, body) || r.DraftFingerprint == body {
		t.Fatalf("fingerprint must not contain the body")
	}
	if r.RoutingIntent != routing.IntentOrderStatus {
		t.Fatalf("expected routing intent in redacted view, got %q", r.RoutingIntent)
	}
}
