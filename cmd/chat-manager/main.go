// cmd/chat-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"workflow-chat/internal/analyzer"
	"workflow-chat/internal/catalog"
	"workflow-chat/internal/chat"
	"workflow-chat/internal/common/aws"
	"workflow-chat/internal/common/config"
	"workflow-chat/internal/common/database"
	commonerrors "workflow-chat/internal/common/errors"
	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/common/observability"
	"workflow-chat/internal/models"
	"workflow-chat/internal/notify"
	"workflow-chat/internal/parser"
	"workflow-chat/internal/search"
	"workflow-chat/internal/trigger"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting chat manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level/format now that config
	// is available.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("chat-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis (conversation memory + response cache) ---
	var store chat.ConversationStore = chat.NewInMemoryStore()
	var cache chat.ResponseCache = chat.NewInMemoryResponseCache(
		time.Duration(cfg.Chat.CacheTTLMinutes) * time.Minute,
	)

	if cfg.Database.Redis.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		memoryMaxAge := time.Duration(cfg.Chat.MemoryMaxAgeMinutes) * time.Minute
		store = chat.NewRedisStore(redis.Client, memoryMaxAge, log)
		cache = chat.NewRedisResponseCache(redis.Client,
			time.Duration(cfg.Chat.CacheTTLMinutes)*time.Minute, log)
	} else {
		zapLog.Info("Redis disabled, using in-memory conversation store and cache")
	}

	// --- Init PostgreSQL (workflow catalog) ---
	var catalogStore *catalog.Store
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		catalogStore = catalog.NewStore(pg.DB, log)
	}

	// --- Init Elasticsearch (workflow search) ---
	var searcher chat.WorkflowSearcher
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		searcher = search.NewService(search.Config{
			Index: cfg.Database.Elasticsearch.Index,
		}, esClient.Client, log)
	} else if catalogStore != nil {
		// Degraded mode: ILIKE search against the catalog tables.
		zapLog.Info("Elasticsearch disabled, searching the catalog directly")
		searcher = &catalogSearcher{store: catalogStore}
	} else {
		zapLog.Warn("no search backend configured, every command will report no matches")
	}

	// --- Init Trigger Backend ---
	var trig trigger.Trigger
	if cfg.Triggers.Zeebe.Enabled {
		trig, err = trigger.NewZeebeTrigger(trigger.ZeebeConfigFromApp(cfg.Triggers), log)
		if err != nil {
			zapLog.Fatal("zeebe trigger failed", zap.Error(err))
		}
		zapLog.Info("Zeebe trigger connected successfully")
	} else if cfg.Triggers.Webhook.BaseURL != "" {
		trig = trigger.NewWebhookTrigger(trigger.WebhookConfigFromApp(cfg.Triggers), log)
		zapLog.Info("Webhook trigger initialized")
	}

	// --- Init Notification Channels ---
	var notifiers notify.Composite
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		notifiers = append(notifiers, notify.NewEmailNotifier(sesClient,
			cfg.Notifications.Email.FromEmail, cfg.Notifications.Email.ToEmail, log))
	}
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		notifiers = append(notifiers, notify.NewTopicNotifier(snsClient,
			cfg.Notifications.SMS.TopicARN, log))
	}
	var notifier notify.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
		zapLog.Info("Notification channels initialized", zap.Int("channels", len(notifiers)))
	}

	// --- Init External Intent Analyzer ---
	var intentAnalyzer chat.IntentAnalyzer
	switch {
	case cfg.Parser.EnableAdvancedNLP && cfg.Analyzer.BaseURL != "":
		intentAnalyzer = analyzer.NewClient(analyzer.FromConfig(cfg.Analyzer), log)
		zapLog.Info("Intent analyzer client initialized", zap.String("baseURL", cfg.Analyzer.BaseURL))
	case cfg.Analyzer.BaseURL != "":
		zapLog.Info("Intent analyzer configured but advanced NLP is disabled, using the local classifier only")
	}

	// --- Wire the Chat Handler ---
	cmdParser := parser.New(parser.FromConfig(cfg.Parser), log)

	handler := chat.NewHandler(chat.OptionsFromConfig(cfg.Chat), chat.Dependencies{
		Parser:    cmdParser,
		Searcher:  searcher,
		Analyzer:  intentAnalyzer,
		Store:     store,
		Cache:     cache,
		Trigger:   trig,
		Notifier:  notifier,
		Telemetry: obs,
		Logger:    log,
	})
	zapLog.Info("Chat handler wired successfully")

	// --- Conversation Memory Cleanup ---
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go func() {
		interval := time.Duration(cfg.Chat.CleanupIntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		maxAge := time.Duration(cfg.Chat.MemoryMaxAgeMinutes) * time.Minute
		if maxAge <= 0 {
			maxAge = time.Hour
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				removed, err := store.CleanupExpired(cleanupCtx, maxAge)
				if err != nil {
					zapLog.Error("conversation cleanup failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					zapLog.Info("expired conversations removed", zap.Int("count", removed))
				}
			}
		}
	}()

	// --- Chat, Health & Metrics Server ---
	port := cfg.Metrics.Port
	if port == 0 {
		port = 8080
	}
	go func() {
		http.HandleFunc("/chat", chatEndpoint(handler, chat.OptionsFromConfig(cfg.Chat).ResponseTimeout, zapLog))
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Chat server listening", zap.Int("port", port))
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil); err != nil {
			zapLog.Error("Chat server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping chat manager...")
	stopCleanup()

	if zt, ok := trig.(*trigger.ZeebeTrigger); ok && zt != nil {
		if err := zt.Close(); err != nil {
			zapLog.Error("Error closing Zeebe trigger", zap.Error(err))
		}
	}

	zapLog.Info("Chat manager stopped gracefully")
}

// chatEndpoint exposes the handler over HTTP for the web frontend.
func chatEndpoint(handler *chat.Handler, responseTimeout time.Duration, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req chat.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid request body"})
			return
		}

		resp, err := handler.HandleMessage(r.Context(), req)
		if err != nil {
			log.Error("chat request failed", zap.Error(err))
			status := http.StatusInternalServerError
			var stdErr *commonerrors.StandardError
			switch {
			case errors.Is(err, chat.ErrInvalidChatContext):
				status = http.StatusBadRequest
				stdErr = commonerrors.NewInvalidChatContextError(err.Error())
			case errors.Is(err, chat.ErrConversationTimeout):
				status = http.StatusGatewayTimeout
				stdErr = commonerrors.NewConversationTimeoutError(responseTimeout)
			default:
				stdErr = commonerrors.NewWorkflowChatError("orchestration", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(stdErr)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}

// catalogSearcher answers workflow searches from PostgreSQL when the search
// index is unavailable.
type catalogSearcher struct {
	store *catalog.Store
}

func (c *catalogSearcher) SearchWorkflows(ctx context.Context, criteria search.Criteria) ([]models.WorkflowSummary, error) {
	fragment := criteria.Text
	if len(criteria.Names) > 0 {
		fragment = criteria.Names[0]
	}
	if criteria.Category != "" && fragment == "" {
		return c.store.ListByCategory(ctx, criteria.Category, criteria.MaxResults)
	}
	return c.store.SearchByName(ctx, fragment, criteria.MaxResults)
}
