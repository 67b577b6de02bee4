// Package plan builds the per-ticket action plan. A plan is created once
// per envelope and is read-only downstream except for tag augmentation.
package plan

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/orders"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/reply"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/routing"
)

// Plan modes.
const (
	ModeRouteOnly           = "route_only"
	ModeAutomationCandidate = "automation_candidate"
)

// Action types.
const (
	ActionRouteOnly        = "route_only"
	ActionAnalyze          = "analyze"
	ActionOrderStatusDraft = "order_status_draft_reply"
)

// ActionParameters carries the data an action needs at execution time.
type ActionParameters struct {
	OrderSummary      *orders.Summary `json:"order_summary,omitempty"`
	PromptFingerprint string          `json:"prompt_fingerprint,omitempty"`
	DeliveryEstimate  *reply.Estimate `json:"delivery_estimate,omitempty"`
	DraftReply        string          `json:"draft_reply,omitempty"`
}

// Action is one typed step in a plan. Draft actions are always created
// disabled and dry-run; only the execution engine may act on them, and
// only after its own gates pass.
type Action struct {
	Type       string            `json:"type"`
	Enabled    bool              `json:"enabled"`
	DryRun     bool              `json:"dry_run"`
	Parameters *ActionParameters `json:"parameters,omitempty"`
}

// Plan is the full planning outcome for one envelope.
type Plan struct {
	EventID           string           `json:"event_id"`
	ConversationID    string           `json:"conversation_id"`
	Mode              string           `json:"mode"`
	SafeMode          bool             `json:"safe_mode"`
	AutomationEnabled bool             `json:"automation_enabled"`
	Actions           []Action         `json:"actions"`
	Reasons           []string         `json:"reasons"`
	Routing           routing.Decision `json:"routing"`
	RoutingArtifact   routing.Artifact `json:"routing_artifact"`
}

// DraftAction returns the plan's draft-reply action, if any. A plan
// carries at most one.
func (p *Plan) DraftAction() *Action {
	for i := range p.Actions {
		if p.Actions[i].Type == ActionOrderStatusDraft {
			return &p.Actions[i]
		}
	}
	return nil
}

// AddReason appends a reason to the plan's audit trail.
func (p *Plan) AddReason(reason string) {
	p.Reasons = append(p.Reasons, reason)
}

// Fingerprint returns the hex SHA-256 of a text. Fingerprints stand in
// for bodies everywhere a record crosses the persistence boundary.
func Fingerprint(text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
