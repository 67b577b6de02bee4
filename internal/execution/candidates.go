// Package execution sends gated order-status replies against the ticket
// API and applies routing tags, one ticket per invocation.
package execution

import "fmt"

// The ticket-update endpoint does not document which payload shape it
// accepts: the field may be "status" or "state", the value casing
// varies, and some deployments expect the fields nested under "ticket".
// Each combination is tried in fixed order until a refetch confirms the
// conversation closed.

// Candidate is one update payload shape.
type Candidate struct {
	Name   string
	Field  string
	Value  string
	Nested bool
}

var updateFields = []string{"status", "state"}
var updateValues = []string{"closed", "CLOSED", "resolved", "RESOLVED"}

// UpdateCandidates returns the ordered candidate list. Top-level shapes
// come before "ticket"-nested ones for each field/value pair.
func UpdateCandidates() []Candidate {
	candidates := make([]Candidate, 0, len(updateFields)*len(updateValues)*2)
	for _, field := range updateFields {
		for _, value := range updateValues {
			for _, nested := range []bool{false, true} {
				name := fmt.Sprintf("%s_%s_top", field, value)
				if nested {
					name = fmt.Sprintf("%s_%s_ticket", field, value)
				}
				candidates = append(candidates, Candidate{
					Name:   name,
					Field:  field,
					Value:  value,
					Nested: nested,
				})
			}
		}
	}
	return candidates
}

// Payload builds the candidate's update body. A non-empty comment is
// attached so the reply and the close travel in one call; callers strip
// the comment once any commented attempt has been accepted upstream.
func (c Candidate) Payload(comment string) map[string]any {
	fields := map[string]any{c.Field: c.Value}
	if comment != "" {
		fields["comment"] = map[string]any{
			"body":   comment,
			"public": true,
		}
	}
	if !c.Nested {
		return fields
	}
	return map[string]any{"ticket": fields}
}
