package plan

// Redacted is the persistence-safe view of a plan. Bodies and order
// summaries never cross the storage boundary; only fingerprints,
// booleans, and presence flags do.
type Redacted struct {
	EventID           string   `json:"event_id"`
	ConversationID    string   `json:"conversation_id"`
	Mode              string   `json:"mode"`
	SafeMode          bool     `json:"safe_mode"`
	AutomationEnabled bool     `json:"automation_enabled"`
	ActionTypes       []string `json:"action_types"`
	HasDraft          bool     `json:"has_draft"`
	DraftFingerprint  string   `json:"draft_fingerprint,omitempty"`
	HasOrderSummary   bool     `json:"has_order_summary"`
	RoutingIntent     string   `json:"routing_intent"`
	RoutingDepartment string   `json:"routing_department"`
	PrimarySource     string   `json:"primary_source"`
	Tags              []string `json:"tags"`
	Reasons           []string `json:"reasons"`
}

// Redact strips the plan down to its audit record.
func (p *Plan) Redact() Redacted {
	r := Redacted{
		EventID:           p.EventID,
		ConversationID:    p.ConversationID,
		Mode:              p.Mode,
		SafeMode:          p.SafeMode,
		AutomationEnabled: p.AutomationEnabled,
		RoutingIntent:     p.Routing.Intent,
		RoutingDepartment: p.Routing.Department,
		PrimarySource:     p.RoutingArtifact.PrimarySource,
		Tags:              append([]string(nil), p.Routing.Tags...),
		Reasons:           append([]string(nil), p.Reasons...),
	}
	for _, action := range p.Actions {
		r.ActionTypes = append(r.ActionTypes, action.Type)
		if action.Parameters != nil && action.Parameters.OrderSummary != nil {
			r.HasOrderSummary = true
		}
	}
	if draft := p.DraftAction(); draft != nil {
		r.HasDraft = true
		if draft.Parameters != nil {
			r.DraftFingerprint = draft.Parameters.PromptFingerprint
		}
	}
	return r
}
