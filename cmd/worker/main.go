package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/alert"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/events"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/execution"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/orders"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/plan"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/reply"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/richpanel"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/routing"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/scheduler"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/shipstation"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/shopify"
	"github.com/KevinSGarrett/RichPanel-sub000/internal/store"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/ai/openai"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/db"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env,
		"safeMode", cfg.SafeMode,
		"automation", cfg.AutomationEnabled,
		"outbound", cfg.OutboundEnabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Operator alerting subscribes to pipeline events (not HTTP-facing).
	alert.NewNotifier(cfg, log).Register(eventBus)

	// ========================================================================
	// Pipeline Wiring (Composition Root)
	// ========================================================================

	classifier, err := loadClassifier(cfg)
	if err != nil {
		log.Error("failed to load classifier rules", "error", err)
		panic("failed to load classifier rules: " + err.Error())
	}

	// A nil chat interface keeps every LLM path on its deterministic
	// fallback; never wrap a nil client in a non-nil interface.
	var routingChat routing.ChatCompleter
	var rewriteChat reply.ChatCompleter
	if cfg.OpenAIAPIKey != "" {
		chat := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		routingChat = chat
		rewriteChat = chat
	}

	suggester := routing.NewLLMSuggester(routingChat, cfg, cfg)
	reconciler := routing.NewReconciler(classifier, suggester, cfg)

	var shopifyAPI orders.ShopifyAPI
	if c := shopify.NewClient(cfg, log); c != nil {
		shopifyAPI = c
	}
	var shipstationAPI orders.ShipStationAPI
	if c := shipstation.NewClient(cfg, log); c != nil {
		shipstationAPI = c
	}
	resolver := orders.NewResolver(shopifyAPI, shipstationAPI, cfg, log)

	drafter := reply.NewDrafter(cfg.GetReplySignature())
	rewriter := reply.NewRewriter(rewriteChat, cfg, cfg, log)

	builder := plan.NewBuilder(reconciler, resolver, drafter, cfg, log)

	var tickets execution.TicketAPI
	if c := richpanel.NewClient(cfg, log); c != nil {
		tickets = c
	}
	engine := execution.NewEngine(tickets, rewriter, cfg, cfg, eventBus, log)

	repo := store.NewRepository(pool)

	retentionInterval := getDurationEnv("MW_AUDIT_CLEANUP_INTERVAL", time.Hour)
	retentionDays := getPositiveIntEnv("MW_AUDIT_RETENTION_DAYS", 90)
	retention := scheduler.NewAuditRetention(pool, log, retentionInterval, time.Duration(retentionDays)*24*time.Hour)
	go retention.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, builder, engine, repo, eventBus, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
}

func loadClassifier(cfg *config.Config) (*routing.KeywordClassifier, error) {
	if path := cfg.GetClassifierPath(); path != "" {
		return routing.NewKeywordClassifierFromFile(path)
	}
	return routing.NewKeywordClassifier(), nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
