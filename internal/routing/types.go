// Package routing computes the category/intent/department assignment for a
// ticket. A deterministic keyword classifier always produces the baseline;
// an advisory LLM suggestion may be reconciled in as primary when explicitly
// enabled and sufficiently confident.
package routing

// Known intents. The pipeline only automates order-status tickets; everything
// else routes to a human team.
const (
	IntentOrderStatus  = "order_status"
	IntentReturn       = "return_request"
	IntentCancellation = "cancellation"
	IntentGeneral      = "general_support"
)

// Primary source labels recorded in the routing artifact.
const (
	SourceDeterministic = "deterministic"
	SourceLLM           = "llm"
)

// Decision is the routing assignment for a ticket. Tags carry ordered,
// deduplicated set semantics; the decision is only ever mutated to append
// tags when order context turns out to be missing.
type Decision struct {
	Category   string   `json:"category"`
	Intent     string   `json:"intent"`
	Department string   `json:"department"`
	Tags       []string `json:"tags"`
	Reason     string   `json:"reason"`
}

// AddTags appends tags to the decision, preserving order and set semantics.
func (d *Decision) AddTags(tags ...string) {
	d.Tags = AppendTags(d.Tags, tags...)
}

// Suggestion is the advisory LLM routing output. GatedReason is set when a
// gate blocked the call; a gated suggestion is never used as primary.
type Suggestion struct {
	Category    string  `json:"category"`
	Intent      string  `json:"intent"`
	Department  string  `json:"department"`
	Confidence  float64 `json:"confidence"`
	Model       string  `json:"model,omitempty"`
	ResponseID  string  `json:"response_id,omitempty"`
	GatedReason string  `json:"gated_reason,omitempty"`
}

// Artifact is the audit record of one dual-routing computation. Both raw
// outputs are retained regardless of which became primary, to support
// offline evaluation. Never mutated after creation.
type Artifact struct {
	Deterministic Decision    `json:"deterministic"`
	LLMSuggestion *Suggestion `json:"llm_suggestion,omitempty"`
	PrimarySource string      `json:"primary_source"`
}
