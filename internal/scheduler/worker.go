package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/envelope"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/events"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/execution"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/plan"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// PlanBuilder is the slice of the plan builder the worker needs.
type PlanBuilder interface {
	PlanActions(ctx context.Context, env envelope.Envelope) plan.Plan
}

// PlanExecutor is the slice of the execution engine the worker needs.
type PlanExecutor interface {
	ExecutePlan(ctx context.Context, p *plan.Plan) execution.Result
}

// AuditStore persists redacted plan and execution records.
type AuditStore interface {
	SavePlan(ctx context.Context, p plan.Redacted) error
	SaveExecution(ctx context.Context, eventID, conversationID string, result execution.Result) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	builder  PlanBuilder
	executor PlanExecutor
	audit    AuditStore
	bus      events.Bus
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, builder PlanBuilder, executor PlanExecutor, audit AuditStore, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		builder:  builder,
		executor: executor,
		audit:    audit,
		bus:      bus,
		log:      log,
	}

	mux.HandleFunc(TaskTicketProcess, w.handleTicketProcess)

	return w, nil
}

// handleTicketProcess runs the full pipeline for one envelope:
// plan, persist the redacted plan, execute, persist the result.
// Persistence failures are logged but never block execution.
func (w *Worker) handleTicketProcess(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTicketProcessPayload(task)
	if err != nil {
		return err
	}

	env := payload.Envelope
	log := w.log.WithEventID(env.EventID).WithConversationID(env.ConversationID)

	p := w.builder.PlanActions(ctx, env)

	if w.audit != nil {
		if err := w.audit.SavePlan(ctx, p.Redact()); err != nil {
			log.DatabaseError("save_plan", err)
		}
	}
	w.publish(ctx, events.PlanBuilt{
		BaseEvent:      events.NewBaseEvent(),
		EventID:        p.EventID,
		ConversationID: p.ConversationID,
		Mode:           p.Mode,
		HasDraft:       p.DraftAction() != nil,
		RoutingIntent:  p.Routing.Intent,
	})

	result := w.executor.ExecutePlan(ctx, &p)

	if w.audit != nil {
		if err := w.audit.SaveExecution(ctx, p.EventID, p.ConversationID, result); err != nil {
			log.DatabaseError("save_execution", err)
		}
	}
	w.publish(ctx, events.ExecutionFinished{
		BaseEvent:      events.NewBaseEvent(),
		EventID:        p.EventID,
		ConversationID: p.ConversationID,
		Sent:           result.Sent,
		Reason:         result.Reason,
	})

	log.Info("ticket_processed",
		"mode", p.Mode,
		"sent", result.Sent,
		"reason", result.Reason,
	)
	return nil
}

func (w *Worker) publish(ctx context.Context, event events.Event) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(ctx, event)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
