package routing

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/ai/openai"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
)

// Gated reasons recorded on a suggestion that was never requested or could
// not be used. A suggestion carrying a gated reason is never primary.
const (
	GatedDisabled           = "disabled"
	GatedSafeMode           = "safe_mode"
	GatedAutomationDisabled = "automation_disabled"
	GatedNetworkDisabled    = "network_disabled"
	GatedOutboundDisabled   = "outbound_disabled"
	GatedRequestFailed      = "request_failed"
	GatedInvalidResponse    = "invalid_response"
)

// ChatCompleter is the slice of the chat client the suggester needs.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []openai.Message) (openai.CompletionResult, error)
	Model() string
}

// LLMSuggester requests an advisory routing classification from the LLM,
// subject to the safety gates. It never errors; failures become gated
// suggestions so the artifact still records what happened.
type LLMSuggester struct {
	chat   ChatCompleter
	auto   config.AutomationConfig
	llmCfg config.RoutingLLMConfig
}

// NewLLMSuggester creates a suggester. chat may be nil, in which case every
// suggestion is gated as disabled.
func NewLLMSuggester(chat ChatCompleter, auto config.AutomationConfig, llmCfg config.RoutingLLMConfig) *LLMSuggester {
	return &LLMSuggester{chat: chat, auto: auto, llmCfg: llmCfg}
}

const routingSystemPrompt = `You classify customer support tickets.
Respond with strict JSON only, no prose:
{"category": string, "intent": one of ["order_status","return_request","cancellation","general_support"], "department": string, "confidence": number between 0 and 1}`

// Suggest returns the advisory suggestion for an envelope. Gates are checked
// in order; the first failing gate is recorded and no network call is made.
func (s *LLMSuggester) Suggest(ctx context.Context, env envelope.Envelope) *Suggestion {
	if gated := s.gatedReason(); gated != "" {
		return &Suggestion{GatedReason: gated}
	}

	prompt := strings.TrimSpace("Subject: " + env.Subject() + "\n\n" + env.Body())
	result, err := s.chat.Complete(ctx, []openai.Message{
		{Role: "system", Content: routingSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return &Suggestion{GatedReason: GatedRequestFailed, Model: s.chat.Model()}
	}

	var parsed struct {
		Category   string  `json:"category"`
		Intent     string  `json:"intent"`
		Department string  `json:"department"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Text)), &parsed); err != nil ||
		parsed.Intent == "" || parsed.Confidence < 0 || parsed.Confidence > 1 {
		return &Suggestion{
			GatedReason: GatedInvalidResponse,
			Model:       result.Model,
			ResponseID:  result.ResponseID,
		}
	}

	return &Suggestion{
		Category:   parsed.Category,
		Intent:     parsed.Intent,
		Department: parsed.Department,
		Confidence: parsed.Confidence,
		Model:      result.Model,
		ResponseID: result.ResponseID,
	}
}

// gatedReason evaluates the LLM-call gates in their fixed order.
// The shadow flag permits the advisory call even when outbound sending is
// disabled, so suggestions can be gathered without ever sending.
func (s *LLMSuggester) gatedReason() string {
	if s.chat == nil || !s.llmCfg.GetLLMRoutingEnabled() {
		return GatedDisabled
	}
	if s.auto.GetSafeMode() {
		return GatedSafeMode
	}
	if !s.auto.GetAutomationEnabled() {
		return GatedAutomationDisabled
	}
	if !s.auto.GetAllowNetwork() {
		return GatedNetworkDisabled
	}
	if !s.auto.GetOutboundEnabled() && !s.llmCfg.GetLLMRoutingShadow() {
		return GatedOutboundDisabled
	}
	return ""
}
