package config

import "testing"

func TestRoutingConfidenceMinPrefersNewerKey(t *testing.T) {
	t.Setenv("MW_LLM_ROUTING_CONFIDENCE_MIN", "0.9")
	t.Setenv("MW_ROUTING_CONFIDENCE_MIN", "0.5")

	if got := routingConfidenceMin(); got != 0.9 {
		t.Fatalf("expected newer key to win with 0.9, got %v", got)
	}
}

func TestRoutingConfidenceMinFallsThroughOnInvalidValue(t *testing.T) {
	t.Setenv("MW_LLM_ROUTING_CONFIDENCE_MIN", "not-a-number")
	t.Setenv("MW_ROUTING_CONFIDENCE_MIN", "0.5")

	if got := routingConfidenceMin(); got != 0.5 {
		t.Fatalf("expected fallback to legacy key 0.5, got %v", got)
	}
}

func TestRoutingConfidenceMinDefault(t *testing.T) {
	t.Setenv("MW_LLM_ROUTING_CONFIDENCE_MIN", "1.5")
	t.Setenv("MW_ROUTING_CONFIDENCE_MIN", "-0.1")

	if got := routingConfidenceMin(); got != DefaultRoutingConfidenceMin {
		t.Fatalf("expected default %v for out-of-range values, got %v", DefaultRoutingConfidenceMin, got)
	}
}

func TestParseUnitFloat(t *testing.T) {
	if _, ok := parseUnitFloat(""); ok {
		t.Fatal("empty string should not parse")
	}
	if v, ok := parseUnitFloat(" 0.75 "); !ok || v != 0.75 {
		t.Fatalf("expected 0.75, got %v ok=%v", v, ok)
	}
	if _, ok := parseUnitFloat("1.01"); ok {
		t.Fatal("out-of-range value should not parse")
	}
}
