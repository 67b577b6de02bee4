// Package store persists the pipeline's audit trail. Rows carry only
// identifiers, booleans, reasons, tags, and fingerprints; reply bodies,
// order summaries, and customer data never reach the database.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/execution"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/plan"
)

// ErrEventExists is returned when an event id was already recorded.
var ErrEventExists = errors.New("event already recorded")

// Repository provides data access for the audit tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordEvent inserts the processed-event row for an envelope. Only ids
// and timestamps are stored, never the payload.
func (r *Repository) RecordEvent(ctx context.Context, env envelope.Envelope) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO mw_processed_events (event_id, conversation_id, source, received_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`, env.EventID, env.ConversationID, env.Source, env.ReceivedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventExists
	}
	return nil
}

// SavePlan persists the redacted plan record.
func (r *Repository) SavePlan(ctx context.Context, p plan.Redacted) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mw_action_plans (
			event_id, conversation_id, mode, safe_mode, automation_enabled,
			routing_intent, routing_department, primary_source,
			action_types, has_draft, draft_fingerprint, tags, reasons
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (event_id) DO UPDATE SET
			mode = EXCLUDED.mode,
			routing_intent = EXCLUDED.routing_intent,
			routing_department = EXCLUDED.routing_department,
			primary_source = EXCLUDED.primary_source,
			action_types = EXCLUDED.action_types,
			has_draft = EXCLUDED.has_draft,
			draft_fingerprint = EXCLUDED.draft_fingerprint,
			tags = EXCLUDED.tags,
			reasons = EXCLUDED.reasons
	`, p.EventID, p.ConversationID, p.Mode, p.SafeMode, p.AutomationEnabled,
		p.RoutingIntent, p.RoutingDepartment, p.PrimarySource,
		p.ActionTypes, p.HasDraft, p.DraftFingerprint, p.Tags, p.Reasons)
	return err
}

// SaveExecution persists one execution attempt.
func (r *Repository) SaveExecution(ctx context.Context, eventID, conversationID string, result execution.Result) error {
	responses := []byte("[]")
	if len(result.Responses) > 0 {
		encoded, err := json.Marshal(result.Responses)
		if err != nil {
			return err
		}
		responses = encoded
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mw_execution_results (
			event_id, conversation_id, sent, reason, candidate, attempts,
			responses, tags_applied, rewrite_applied, rewrite_reason, reply_fingerprint
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, eventID, conversationID, result.Sent, result.Reason, result.Candidate,
		result.Attempts, responses, result.TagsApplied, result.RewriteApplied,
		result.RewriteReason, result.ReplyFingerprint)
	return err
}

// ExecutionRow is the persisted view of an execution attempt.
type ExecutionRow struct {
	EventID        string
	ConversationID string
	Sent           bool
	Reason         string
	Candidate      string
	Attempts       int
	CreatedAt      time.Time
}

// LatestExecution returns the most recent execution for a conversation.
func (r *Repository) LatestExecution(ctx context.Context, conversationID string) (ExecutionRow, error) {
	var row ExecutionRow
	err := r.pool.QueryRow(ctx, `
		SELECT event_id, conversation_id, sent, reason, candidate, attempts, created_at
		FROM mw_execution_results
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, conversationID).Scan(
		&row.EventID, &row.ConversationID, &row.Sent, &row.Reason,
		&row.Candidate, &row.Attempts, &row.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ExecutionRow{}, pgx.ErrNoRows
	}
	return row, err
}

// DeleteAuditBefore removes processed events, plans, and execution rows
// older than the cutoff. Used by the retention job.
func (r *Repository) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, query := range []string{
		`DELETE FROM mw_execution_results WHERE created_at < $1`,
		`DELETE FROM mw_action_plans WHERE created_at < $1`,
		`DELETE FROM mw_processed_events WHERE received_at < $1`,
	} {
		tag, err := r.pool.Exec(ctx, query, cutoff)
		if err != nil {
			return total, err
		}
		total += tag.RowsAffected()
	}
	return total, nil
}
