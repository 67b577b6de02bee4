package webhook

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/dedupe"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/events"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/scheduler"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/store"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// EventRecorder persists inbound events for auditing. Satisfied by
// store.Repository.
type EventRecorder interface {
	RecordEvent(ctx context.Context, env envelope.Envelope) error
}

// IngestResult describes the outcome of receiving one webhook event.
type IngestResult struct {
	EventID        string `json:"eventId"`
	ConversationID string `json:"conversationId"`
	Duplicate      bool   `json:"duplicate"`
}

// Service accepts normalized envelopes, deduplicates them, and queues
// them for processing.
type Service struct {
	guard    *dedupe.Guard
	recorder EventRecorder
	enqueuer scheduler.TicketEnqueuer
	bus      events.Bus
	log      *logger.Logger
}

func NewService(guard *dedupe.Guard, recorder EventRecorder, enqueuer scheduler.TicketEnqueuer, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		guard:    guard,
		recorder: recorder,
		enqueuer: enqueuer,
		bus:      bus,
		log:      log,
	}
}

// ProcessEvent runs the ingestion sequence for one envelope. A duplicate
// is acknowledged without queueing; the dedupe guard and the queue's
// task ID uniqueness decide what is a duplicate, never the audit table.
// Audit persistence failures are logged but never drop the event; only
// a failed enqueue is an error, and it releases the dedupe claim so a
// redelivery can succeed.
func (s *Service) ProcessEvent(ctx context.Context, env envelope.Envelope) (IngestResult, error) {
	result := IngestResult{EventID: env.EventID, ConversationID: env.ConversationID}

	if s.guard != nil && !s.guard.FirstSeen(ctx, env.EventID) {
		s.log.PipelineSkip(env.EventID, "duplicate_event")
		result.Duplicate = true
		return result, nil
	}

	if s.recorder != nil {
		if err := s.recorder.RecordEvent(ctx, env); err != nil {
			if errors.Is(err, store.ErrEventExists) {
				// The audit row can outlive a failed enqueue that
				// released the dedupe claim. Queue again; the task ID
				// conflict below still catches a true duplicate.
				s.log.Info("event already recorded, queueing again", "eventId", env.EventID)
			} else {
				s.log.DatabaseError("record_event", err)
			}
		}
	}

	if err := s.enqueuer.EnqueueTicketProcess(ctx, env); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			s.log.PipelineSkip(env.EventID, "task_already_queued")
			result.Duplicate = true
			return result, nil
		}
		if s.guard != nil {
			s.guard.Forget(ctx, env.EventID)
		}
		s.log.Error("failed to enqueue ticket event", "error", err, "eventId", env.EventID)
		return IngestResult{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.EnvelopeReceived{
			BaseEvent:      events.NewBaseEvent(),
			EventID:        env.EventID,
			ConversationID: env.ConversationID,
			Source:         env.Source,
		})
	}

	return result, nil
}
