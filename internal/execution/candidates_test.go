package execution

import "testing"

func TestUpdateCandidateCoverage(t *testing.T) {
	candidates := UpdateCandidates()
	if len(candidates) != 16 {
		t.Fatalf("expected 16 candidate shapes, got %d", len(candidates))
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.Name]; dup {
			t.Fatalf("duplicate candidate name %s", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
}

func TestCandidatePayloadShapes(t *testing.T) {
	top := Candidate{Name: "status_closed_top", Field: "status", Value: "closed"}
	payload := top.Payload("hello")
	if payload["status"] != "closed" {
		t.Fatalf("expected top-level status field, got %v", payload)
	}
	comment, ok := payload["comment"].(map[string]any)
	if !ok || comment["body"] != "hello" {
		t.Fatalf("expected comment body, got %v", payload)
	}

	nested := Candidate{Name: "state_RESOLVED_ticket", Field: "state", Value: "RESOLVED", Nested: true}
	payload = nested.Payload("")
	ticket, ok := payload["ticket"].(map[string]any)
	if !ok {
		t.Fatalf("expected ticket nesting, got %v", payload)
	}
	if ticket["state"] != "RESOLVED" {
		t.Fatalf("expected nested state field, got %v", ticket)
	}
	if _, hasComment := ticket["comment"]; hasComment {
		t.Fatalf("empty comment must be omitted")
	}
}
