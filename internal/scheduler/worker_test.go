package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/events"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/execution"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/plan"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

type fakeBuilder struct {
	plans int
	plan  plan.Plan
}

func (f *fakeBuilder) PlanActions(ctx context.Context, env envelope.Envelope) plan.Plan {
	f.plans++
	p := f.plan
	p.EventID = env.EventID
	p.ConversationID = env.ConversationID
	return p
}

type fakeExecutor struct {
	executed int
	result   execution.Result
}

func (f *fakeExecutor) ExecutePlan(ctx context.Context, p *plan.Plan) execution.Result {
	f.executed++
	return f.result
}

type fakeAudit struct {
	plans      []plan.Redacted
	executions []string
	planErr    error
}

func (f *fakeAudit) SavePlan(ctx context.Context, p plan.Redacted) error {
	if f.planErr != nil {
		return f.planErr
	}
	f.plans = append(f.plans, p)
	return nil
}

func (f *fakeAudit) SaveExecution(ctx context.Context, eventID, conversationID string, result execution.Result) error {
	f.executions = append(f.executions, eventID)
	return nil
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(eventName string, handler events.Handler) {}

func newTestWorker(builder *fakeBuilder, executor *fakeExecutor, audit *fakeAudit, bus *captureBus) *Worker {
	return &Worker{
		builder:  builder,
		executor: executor,
		audit:    audit,
		bus:      bus,
		log:      logger.New("test"),
	}
}

func ticketTask(t *testing.T, eventID string) *asynq.Task {
	t.Helper()
	task, err := NewTicketProcessTask(TicketProcessPayload{Envelope: envelope.Envelope{
		EventID:        eventID,
		ConversationID: "conv-1",
		Payload:        map[string]any{"subject": "where is my order"},
	}})
	if err != nil {
		t.Fatalf("NewTicketProcessTask: %v", err)
	}
	return task
}

func TestHandleTicketProcessRunsPipeline(t *testing.T) {
	builder := &fakeBuilder{plan: plan.Plan{Mode: plan.ModeRouteOnly}}
	executor := &fakeExecutor{result: execution.Result{Sent: false, Reason: execution.ReasonSafeMode}}
	audit := &fakeAudit{}
	bus := &captureBus{}
	w := newTestWorker(builder, executor, audit, bus)

	if err := w.handleTicketProcess(context.Background(), ticketTask(t, "evt-1")); err != nil {
		t.Fatalf("handleTicketProcess: %v", err)
	}

	if builder.plans != 1 || executor.executed != 1 {
		t.Fatalf("plans = %d, executions = %d", builder.plans, executor.executed)
	}
	if len(audit.plans) != 1 || audit.plans[0].EventID != "evt-1" {
		t.Fatalf("persisted plans = %+v", audit.plans)
	}
	if len(audit.executions) != 1 {
		t.Fatalf("persisted executions = %v", audit.executions)
	}
	if len(bus.published) != 2 {
		t.Fatalf("published %d events, want PlanBuilt and ExecutionFinished", len(bus.published))
	}
	if _, ok := bus.published[0].(events.PlanBuilt); !ok {
		t.Fatalf("first event = %T", bus.published[0])
	}
	finished, ok := bus.published[1].(events.ExecutionFinished)
	if !ok {
		t.Fatalf("second event = %T", bus.published[1])
	}
	if finished.Reason != execution.ReasonSafeMode {
		t.Fatalf("finished reason = %q", finished.Reason)
	}
}

func TestHandleTicketProcessAuditFailureDoesNotBlock(t *testing.T) {
	builder := &fakeBuilder{plan: plan.Plan{Mode: plan.ModeAutomationCandidate}}
	executor := &fakeExecutor{result: execution.Result{Sent: true, Reason: execution.ReasonSent}}
	audit := &fakeAudit{planErr: errors.New("db down")}
	w := newTestWorker(builder, executor, audit, &captureBus{})

	if err := w.handleTicketProcess(context.Background(), ticketTask(t, "evt-2")); err != nil {
		t.Fatalf("audit failure must not fail the task: %v", err)
	}
	if executor.executed != 1 {
		t.Fatalf("execution must still run after a failed plan save")
	}
}

func TestHandleTicketProcessRejectsMalformedPayload(t *testing.T) {
	w := newTestWorker(&fakeBuilder{}, &fakeExecutor{}, &fakeAudit{}, &captureBus{})

	task := asynq.NewTask(TaskTicketProcess, []byte("{not json"))
	if err := w.handleTicketProcess(context.Background(), task); err == nil {
		t.Fatalf("malformed payload must error so asynq retries or dead-letters it")
	}
}
