package execution

import (
	"context"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/events"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/plan"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/reply"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/richpanel"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/routing"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// Terminal execution reasons, evaluated in strict order.
const (
	ReasonOutboundDisabled    = "outbound_disabled"
	ReasonSafeMode            = "safe_mode"
	ReasonAutomationDisabled  = "automation_disabled"
	ReasonNetworkDisabled     = "network_disabled"
	ReasonMissingAction       = "missing_order_status_action"
	ReasonStatusReadFailed    = "status_read_failed"
	ReasonFollowup            = "followup_after_auto_reply"
	ReasonAlreadyResolved     = "already_resolved"
	ReasonMissingDraft        = "missing_draft_reply"
	ReasonSent                = "sent"
	ReasonCandidatesExhausted = "update_candidates_exhausted"
	ReasonRoutingApplied      = "routing_applied"
	ReasonTagAddFailed        = "tag_add_failed"
	ReasonException           = "exception"
)

// Per-candidate outcomes recorded in Result.Responses.
const (
	OutcomeUpdateFailed = "update_failed"
	OutcomeNotConfirmed = "not_confirmed"
	OutcomeConfirmed    = "confirmed"
)

// CandidateOutcome is the redacted record of one update attempt. The
// payload and any response body stay out; only the candidate name and
// how the attempt concluded are kept.
type CandidateOutcome struct {
	Candidate string `json:"candidate"`
	Outcome   string `json:"outcome"`
}

// Result is the redacted outcome of one execution attempt. Bodies never
// appear here; the reply is represented by its fingerprint.
type Result struct {
	Sent             bool               `json:"sent"`
	Reason           string             `json:"reason"`
	Candidate        string             `json:"candidate,omitempty"`
	Attempts         int                `json:"attempts,omitempty"`
	Responses        []CandidateOutcome `json:"responses,omitempty"`
	TagsApplied      []string           `json:"tags_applied,omitempty"`
	RewriteApplied   bool               `json:"rewrite_applied,omitempty"`
	RewriteReason    string             `json:"rewrite_reason,omitempty"`
	ReplyFingerprint string             `json:"reply_fingerprint,omitempty"`
}

// TicketAPI is the slice of the ticket client the engine needs.
type TicketAPI interface {
	GetTicket(ctx context.Context, conversationID string) (*richpanel.Ticket, error)
	UpdateTicket(ctx context.Context, conversationID string, payload map[string]any) error
	AddTags(ctx context.Context, conversationID string, tags []string) error
}

// ReplyRewriter is the slice of the rewrite validator the engine needs.
type ReplyRewriter interface {
	Rewrite(ctx context.Context, body string) reply.Result
}

// Engine executes plans against the ticket API. One ticket per
// invocation, all calls sequential; the mandatory read-before-write
// sequence is the defense against double-replying.
type Engine struct {
	tickets  TicketAPI
	rewriter ReplyRewriter
	auto     config.AutomationConfig
	run      config.RunConfig
	bus      events.Bus
	log      *logger.Logger
}

// NewEngine creates an execution engine. bus may be nil.
func NewEngine(tickets TicketAPI, rewriter ReplyRewriter, auto config.AutomationConfig, run config.RunConfig, bus events.Bus, log *logger.Logger) *Engine {
	return &Engine{tickets: tickets, rewriter: rewriter, auto: auto, run: run, bus: bus, log: log}
}

// ExecutePlan runs the appropriate entry point for a plan: the reply
// path when a draft action exists, the tag-only path otherwise. Never
// panics; unexpected panics become a reason "exception" result.
func (e *Engine) ExecutePlan(ctx context.Context, p *plan.Plan) (result Result) {
	defer e.recoverToResult(p, &result)

	if p.DraftAction() != nil {
		return e.ExecuteOrderStatusReply(ctx, p)
	}
	return e.ExecuteRoutingTags(ctx, p)
}

// ExecuteOrderStatusReply runs the reply state machine. States are
// evaluated in strict order; the first match is terminal.
func (e *Engine) ExecuteOrderStatusReply(ctx context.Context, p *plan.Plan) (result Result) {
	defer e.recoverToResult(p, &result)

	if reason := e.gateReason(); reason != "" {
		return Result{Sent: false, Reason: reason}
	}

	draft := p.DraftAction()
	if draft == nil {
		return Result{Sent: false, Reason: ReasonMissingAction}
	}

	log := e.log.WithEventID(p.EventID).WithConversationID(p.ConversationID)

	ticket, err := e.tickets.GetTicket(ctx, p.ConversationID)
	if err != nil {
		log.PipelineSkip(p.EventID, ReasonStatusReadFailed)
		tags := e.applyTags(ctx, p.ConversationID,
			routing.AppendTags(p.Routing.Tags, routing.TagEmailSupportTeam, routing.TagSkipStatusReadFailed))
		return Result{Sent: false, Reason: ReasonStatusReadFailed, TagsApplied: tags}
	}

	if ticket.HasTag(routing.TagAutoReplied) {
		// Route to support without escalating; the original
		// loop-prevention tag stays in place.
		tags := e.applyTags(ctx, p.ConversationID,
			[]string{routing.TagEmailSupportTeam, routing.TagSkipFollowupAfterAutoReply})
		return Result{Sent: false, Reason: ReasonFollowup, TagsApplied: tags}
	}

	if ticket.IsResolved() {
		tags := e.applyTags(ctx, p.ConversationID,
			[]string{routing.TagEmailSupportTeam, routing.TagSkipOrderStatusClosed})
		return Result{Sent: false, Reason: ReasonAlreadyResolved, TagsApplied: tags}
	}

	if draft.Parameters == nil || draft.Parameters.DraftReply == "" {
		return Result{Sent: false, Reason: ReasonMissingDraft}
	}

	body := draft.Parameters.DraftReply
	rewriteApplied := false
	rewriteReason := ""
	if e.rewriter != nil {
		rewrite := e.rewriter.Rewrite(ctx, body)
		body = rewrite.Body
		rewriteApplied = rewrite.Rewritten
		rewriteReason = rewrite.Reason
	}

	return e.runCandidates(ctx, p, body, rewriteApplied, rewriteReason)
}

func (e *Engine) runCandidates(ctx context.Context, p *plan.Plan, body string, rewriteApplied bool, rewriteReason string) Result {
	candidates := UpdateCandidates()
	commentPosted := false
	attempts := 0
	responses := make([]CandidateOutcome, 0, len(candidates))

	for _, candidate := range candidates {
		attempts++

		comment := body
		if commentPosted {
			comment = ""
		}

		if err := e.tickets.UpdateTicket(ctx, p.ConversationID, candidate.Payload(comment)); err != nil {
			responses = append(responses, CandidateOutcome{Candidate: candidate.Name, Outcome: OutcomeUpdateFailed})
			continue
		}
		if comment != "" {
			commentPosted = true
		}

		// A successful HTTP status alone is not trusted; the refetch
		// must report the conversation closed.
		refetched, err := e.tickets.GetTicket(ctx, p.ConversationID)
		if err != nil || !refetched.IsResolved() {
			responses = append(responses, CandidateOutcome{Candidate: candidate.Name, Outcome: OutcomeNotConfirmed})
			continue
		}
		responses = append(responses, CandidateOutcome{Candidate: candidate.Name, Outcome: OutcomeConfirmed})

		closeTags := []string{
			routing.TagAutoReplied,
			routing.TagOrderStatusAnswered,
			routing.TagReplySent,
		}
		if runTag := e.run.GetRunTag(); runTag != "" {
			closeTags = append(closeTags, runTag)
		}
		applied := e.applyTags(ctx, p.ConversationID, closeTags)

		return Result{
			Sent:             true,
			Reason:           ReasonSent,
			Candidate:        candidate.Name,
			Attempts:         attempts,
			Responses:        responses,
			TagsApplied:      applied,
			RewriteApplied:   rewriteApplied,
			RewriteReason:    rewriteReason,
			ReplyFingerprint: plan.Fingerprint(body),
		}
	}

	e.publish(ctx, events.UpdateCandidatesExhausted{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: p.ConversationID,
		Attempts:       attempts,
		CommentPosted:  commentPosted,
	})

	return Result{
		Sent:             commentPosted,
		Reason:           ReasonCandidatesExhausted,
		Attempts:         attempts,
		Responses:        responses,
		RewriteApplied:   rewriteApplied,
		RewriteReason:    rewriteReason,
		ReplyFingerprint: plan.Fingerprint(body),
	}
}

// ExecuteRoutingTags applies the plan's routing tags without sending a
// reply. Used for route-only plans and suppressed drafts.
func (e *Engine) ExecuteRoutingTags(ctx context.Context, p *plan.Plan) (result Result) {
	defer e.recoverToResult(p, &result)

	if reason := e.gateReason(); reason != "" {
		return Result{Sent: false, Reason: reason}
	}
	if len(p.Routing.Tags) == 0 {
		return Result{Sent: false, Reason: ReasonRoutingApplied}
	}

	if err := e.tickets.AddTags(ctx, p.ConversationID, p.Routing.Tags); err != nil {
		e.log.WithConversationID(p.ConversationID).OutboundCall("richpanel", "add_tags", 0, err)
		return Result{Sent: false, Reason: ReasonTagAddFailed}
	}
	return Result{Sent: false, Reason: ReasonRoutingApplied, TagsApplied: p.Routing.Tags}
}

// gateReason checks the static flags in their fixed order.
func (e *Engine) gateReason() string {
	if !e.auto.GetOutboundEnabled() {
		return ReasonOutboundDisabled
	}
	if e.auto.GetSafeMode() {
		return ReasonSafeMode
	}
	if !e.auto.GetAutomationEnabled() {
		return ReasonAutomationDisabled
	}
	if !e.auto.GetAllowNetwork() {
		return ReasonNetworkDisabled
	}
	return ""
}

// applyTags adds tags best effort, returning what was requested when
// the call succeeds and nil when it fails.
func (e *Engine) applyTags(ctx context.Context, conversationID string, tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	if err := e.tickets.AddTags(ctx, conversationID, tags); err != nil {
		e.log.WithConversationID(conversationID).OutboundCall("richpanel", "add_tags", 0, err)
		return nil
	}
	return tags
}

func (e *Engine) publish(ctx context.Context, event events.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(ctx, event)
}

func (e *Engine) recoverToResult(p *plan.Plan, result *Result) {
	if r := recover(); r != nil {
		e.log.WithEventID(p.EventID).PipelineSkip(p.EventID, ReasonException)
		*result = Result{Sent: false, Reason: ReasonException}
	}
}
