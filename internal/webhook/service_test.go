package webhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/dedupe"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/store"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

type fakeRecorder struct {
	recorded []string
	err      error
}

func (f *fakeRecorder) RecordEvent(ctx context.Context, env envelope.Envelope) error {
	if f.err != nil {
		return f.err
	}
	for _, id := range f.recorded {
		if id == env.EventID {
			return store.ErrEventExists
		}
	}
	f.recorded = append(f.recorded, env.EventID)
	return nil
}

type fakeEnqueuer struct {
	enqueued []string
	err      error
}

func (f *fakeEnqueuer) EnqueueTicketProcess(ctx context.Context, env envelope.Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, env.EventID)
	return nil
}

func newTestService(t *testing.T, recorder *fakeRecorder, enqueuer *fakeEnqueuer) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := dedupe.NewGuardFromClient(client, time.Hour, logger.New("test"))
	return NewService(guard, recorder, enqueuer, nil, logger.New("test")), mr
}

func testEnvelope(eventID string) envelope.Envelope {
	return NormalizeEnvelope(map[string]any{
		"event_id":        eventID,
		"conversation_id": "conv-1",
	}, time.Now())
}

func TestProcessEventQueuesFirstDelivery(t *testing.T) {
	recorder := &fakeRecorder{}
	enqueuer := &fakeEnqueuer{}
	svc, _ := newTestService(t, recorder, enqueuer)

	result, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1"))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if result.Duplicate {
		t.Fatalf("first delivery must not be a duplicate")
	}
	if len(enqueuer.enqueued) != 1 || enqueuer.enqueued[0] != "evt-1" {
		t.Fatalf("enqueued = %v", enqueuer.enqueued)
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("recorded = %v", recorder.recorded)
	}
}

func TestProcessEventDuplicateIsNotQueued(t *testing.T) {
	recorder := &fakeRecorder{}
	enqueuer := &fakeEnqueuer{}
	svc, _ := newTestService(t, recorder, enqueuer)

	if _, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1")); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	result, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1"))
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !result.Duplicate {
		t.Fatalf("second delivery must report duplicate")
	}
	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("duplicate must not be queued again, got %v", enqueuer.enqueued)
	}
}

func TestProcessEventExistingAuditRowStillQueues(t *testing.T) {
	recorder := &fakeRecorder{err: store.ErrEventExists}
	enqueuer := &fakeEnqueuer{}
	svc, _ := newTestService(t, recorder, enqueuer)

	result, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1"))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if result.Duplicate {
		t.Fatalf("an audit row alone must not make the event a duplicate")
	}
	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("event with an existing audit row must still be queued, got %v", enqueuer.enqueued)
	}
}

func TestProcessEventRecorderFailureStillQueues(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("db down")}
	enqueuer := &fakeEnqueuer{}
	svc, _ := newTestService(t, recorder, enqueuer)

	result, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1"))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if result.Duplicate {
		t.Fatalf("audit failure must not be reported as duplicate")
	}
	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("audit failure must not drop the event")
	}
}

func TestProcessEventEnqueueFailureReleasesClaim(t *testing.T) {
	recorder := &fakeRecorder{}
	enqueuer := &fakeEnqueuer{err: errors.New("redis down")}
	svc, _ := newTestService(t, recorder, enqueuer)

	if _, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1")); err == nil {
		t.Fatalf("enqueue failure must surface as an error")
	}

	// The claim was released, so a redelivery succeeds.
	enqueuer.err = nil
	result, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1"))
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if result.Duplicate {
		t.Fatalf("redelivery after a failed enqueue must not be a duplicate")
	}
	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("redelivery must be queued")
	}
}

func TestProcessEventRedeliveryAfterRecordedEnqueueFailure(t *testing.T) {
	recorder := &fakeRecorder{}
	enqueuer := &fakeEnqueuer{err: errors.New("redis down")}
	svc, _ := newTestService(t, recorder, enqueuer)

	// First delivery writes the audit row, then fails to enqueue and
	// releases the dedupe claim.
	if _, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1")); err == nil {
		t.Fatalf("enqueue failure must surface as an error")
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("first delivery must record the event, got %v", recorder.recorded)
	}

	// The redelivery now hits the existing audit row. It must still be
	// queued rather than swallowed as a duplicate.
	enqueuer.err = nil
	result, err := svc.ProcessEvent(context.Background(), testEnvelope("evt-1"))
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if result.Duplicate {
		t.Fatalf("redelivery must not be reported as duplicate")
	}
	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("redelivery must be queued, got %v", enqueuer.enqueued)
	}
}

func TestNormalizeEnvelopeGeneratesEventID(t *testing.T) {
	env := NormalizeEnvelope(map[string]any{
		"ticket": map[string]any{"id": "conv-9"},
	}, time.Now())

	if env.EventID == "" {
		t.Fatalf("event id must be generated when the payload has none")
	}
	if env.ConversationID != "conv-9" {
		t.Fatalf("ConversationID = %q, want conv-9", env.ConversationID)
	}
	if env.Source != sourceRichpanel {
		t.Fatalf("Source = %q", env.Source)
	}
}
