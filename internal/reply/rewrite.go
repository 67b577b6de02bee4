package reply

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/KevinSGarrett/RichPanel-sub000/platform/ai/openai"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// Rewrite outcome reasons. Any reason other than "rewritten" means the
// original body was returned.
const (
	ReasonRewritten          = "rewritten"
	ReasonDisabled           = "disabled"
	ReasonSafeMode           = "safe_mode"
	ReasonAutomationDisabled = "automation_disabled"
	ReasonNetworkDisabled    = "network_disabled"
	ReasonOutboundDisabled   = "outbound_disabled"
	ReasonEmptyBody          = "empty_body"
	ReasonRequestFailed      = "request_failed"
	ReasonInvalidResponse    = "invalid_response"
	ReasonLowConfidence      = "low_confidence"
	ReasonSuspiciousContent  = "suspicious_content"
	ReasonMissingURL         = "missing_required_url"
	ReasonMissingTracking    = "missing_required_tracking"
	ReasonMissingETA         = "missing_required_eta"
	ReasonMissingMixed       = "missing_required_mixed"
)

// RiskFlagSuspicious is the model-reported flag that always rejects.
const RiskFlagSuspicious = "suspicious_content"

// Result is the outcome of one rewrite attempt.
type Result struct {
	Body       string   `json:"body"`
	Rewritten  bool     `json:"rewritten"`
	Reason     string   `json:"reason"`
	Confidence float64  `json:"confidence,omitempty"`
	LLMCalled  bool     `json:"llm_called"`
	ResponseID string   `json:"response_id,omitempty"`
	RiskFlags  []string `json:"risk_flags,omitempty"`
	Truncated  bool     `json:"truncated,omitempty"`
}

// ChatCompleter is the slice of the chat client the rewriter needs.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []openai.Message) (openai.CompletionResult, error)
	Model() string
}

// Rewriter optionally rewrites a draft through the LLM while requiring
// that every URL, tracking token, and ETA window of the original body
// survive verbatim. Any violation returns the original body.
type Rewriter struct {
	chat ChatCompleter
	auto config.AutomationConfig
	cfg  config.RewriteConfig
	log  *logger.Logger
}

// NewRewriter creates a rewriter. chat may be nil, which gates every
// rewrite as disabled.
func NewRewriter(chat ChatCompleter, auto config.AutomationConfig, cfg config.RewriteConfig, log *logger.Logger) *Rewriter {
	return &Rewriter{chat: chat, auto: auto, cfg: cfg, log: log}
}

const rewriteSystemPrompt = `You polish customer support replies for tone and clarity.
Preserve every URL, tracking number, and delivery time window exactly as written.
Respond with strict JSON only, no prose:
{"body": string, "confidence": number between 0 and 1, "risk_flags": [string]}`

// Rewrite runs the gated rewrite. The original body is always the
// fallback; rewriting can improve the reply but never change its facts.
func (r *Rewriter) Rewrite(ctx context.Context, body string) Result {
	if reason := r.gatedReason(body); reason != "" {
		return r.fallback(body, reason, false, "")
	}

	completion, err := r.chat.Complete(ctx, []openai.Message{
		{Role: "system", Content: rewriteSystemPrompt},
		{Role: "user", Content: body},
	})
	if err != nil {
		return r.fallback(body, ReasonRequestFailed, true, "")
	}

	parsed, ok := parseRewriteResponse(completion.Text)
	if !ok || parsed.Body == "" {
		return r.fallback(body, ReasonInvalidResponse, true, completion.ResponseID)
	}

	if reason := missingTokenReason(body, parsed.Body); reason != "" {
		result := r.fallback(body, reason, true, completion.ResponseID)
		result.Confidence = parsed.Confidence
		result.RiskFlags = parsed.RiskFlags
		return result
	}

	if parsed.Confidence < r.cfg.GetRewriteConfidenceMin() {
		result := r.fallback(body, ReasonLowConfidence, true, completion.ResponseID)
		result.Confidence = parsed.Confidence
		result.RiskFlags = parsed.RiskFlags
		return result
	}
	for _, flag := range parsed.RiskFlags {
		if flag == RiskFlagSuspicious {
			result := r.fallback(body, ReasonSuspiciousContent, true, completion.ResponseID)
			result.Confidence = parsed.Confidence
			result.RiskFlags = parsed.RiskFlags
			return result
		}
	}

	result := Result{
		Body:       parsed.Body,
		Rewritten:  true,
		Reason:     ReasonRewritten,
		Confidence: parsed.Confidence,
		LLMCalled:  true,
		ResponseID: completion.ResponseID,
		RiskFlags:  parsed.RiskFlags,
	}
	r.truncate(&result)
	return result
}

func (r *Rewriter) gatedReason(body string) string {
	if r.chat == nil || !r.cfg.GetRewriteEnabled() {
		return ReasonDisabled
	}
	if r.auto.GetSafeMode() {
		return ReasonSafeMode
	}
	if !r.auto.GetAutomationEnabled() {
		return ReasonAutomationDisabled
	}
	if !r.auto.GetAllowNetwork() {
		return ReasonNetworkDisabled
	}
	if !r.auto.GetOutboundEnabled() {
		return ReasonOutboundDisabled
	}
	if strings.TrimSpace(body) == "" {
		return ReasonEmptyBody
	}
	return ""
}

func (r *Rewriter) fallback(body, reason string, llmCalled bool, responseID string) Result {
	// Fallbacks return the original body verbatim; only an accepted
	// rewrite is subject to the max-length cap.
	return Result{
		Body:       body,
		Rewritten:  false,
		Reason:     reason,
		LLMCalled:  llmCalled,
		ResponseID: responseID,
	}
}

func (r *Rewriter) truncate(result *Result) {
	max := r.cfg.GetRewriteMaxBodyLen()
	if max > 0 && len(result.Body) > max {
		result.Body = result.Body[:max]
		result.Truncated = true
	}
}

// missingTokenReason verifies every original token survives in the
// rewritten body and names what went missing.
func missingTokenReason(original, rewritten string) string {
	missing := 0
	reason := ""

	mark := func(r string, tokens []string) {
		for _, token := range tokens {
			if !strings.Contains(rewritten, token) {
				missing++
				if reason == "" {
					reason = r
				} else if reason != r {
					reason = ReasonMissingMixed
				}
				return
			}
		}
	}

	mark(ReasonMissingURL, ExtractURLs(original))
	mark(ReasonMissingTracking, ExtractTrackingTokens(original))
	mark(ReasonMissingETA, ExtractETAWindows(original))

	if missing == 0 {
		return ""
	}
	return reason
}

type rewriteResponse struct {
	Body       string   `json:"body"`
	Confidence float64  `json:"confidence"`
	RiskFlags  []string `json:"risk_flags"`
}

// parseRewriteResponse tolerates markdown code fences and prose around
// the JSON object, falling back to the first balanced brace span.
func parseRewriteResponse(text string) (rewriteResponse, bool) {
	var parsed rewriteResponse

	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return parsed, parsed.Confidence >= 0 && parsed.Confidence <= 1
	}

	span, ok := firstBalancedObject(cleaned)
	if !ok {
		return rewriteResponse{}, false
	}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return rewriteResponse{}, false
	}
	return parsed, parsed.Confidence >= 0 && parsed.Confidence <= 1
}

// firstBalancedObject scans for the first brace-balanced JSON object,
// ignoring braces inside string literals.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
