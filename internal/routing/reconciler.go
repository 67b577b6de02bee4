package routing

import (
	"context"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
)

// Reconciler computes the deterministic baseline and the advisory LLM
// suggestion, then decides which one is authoritative.
type Reconciler struct {
	classifier Classifier
	suggester  *LLMSuggester
	llmCfg     config.RoutingLLMConfig
}

// NewReconciler creates a Reconciler.
func NewReconciler(classifier Classifier, suggester *LLMSuggester, llmCfg config.RoutingLLMConfig) *Reconciler {
	return &Reconciler{classifier: classifier, suggester: suggester, llmCfg: llmCfg}
}

// ComputeDualRouting returns the final routing decision plus the audit
// artifact holding both raw outputs. The LLM becomes primary only when the
// primary flag (or forcePrimary) is set AND the ungated suggestion clears
// the confidence threshold; in every other case the deterministic baseline
// is authoritative.
func (r *Reconciler) ComputeDualRouting(ctx context.Context, env envelope.Envelope, forcePrimary bool) (Decision, Artifact) {
	deterministic := r.classifier.Classify(env)

	var suggestion *Suggestion
	if r.suggester != nil {
		suggestion = r.suggester.Suggest(ctx, env)
	}

	artifact := Artifact{
		Deterministic: deterministic,
		LLMSuggestion: suggestion,
		PrimarySource: SourceDeterministic,
	}

	if !r.llmPrimary(suggestion, forcePrimary) {
		return deterministic, artifact
	}

	artifact.PrimarySource = SourceLLM
	final := Decision{
		Category:   suggestion.Category,
		Intent:     suggestion.Intent,
		Department: suggestion.Department,
		Tags:       AppendTags(deterministic.Tags, TagLLMRouted),
		Reason:     "llm_primary",
	}
	return final, artifact
}

func (r *Reconciler) llmPrimary(suggestion *Suggestion, forcePrimary bool) bool {
	if suggestion == nil || suggestion.GatedReason != "" {
		return false
	}
	if !r.llmCfg.GetLLMRoutingPrimary() && !forcePrimary {
		return false
	}
	return suggestion.Confidence >= r.llmCfg.GetRoutingConfidenceMin()
}
