// cmd/chatbot-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lubebot/internal/catalog"
	"lubebot/internal/clients/genai"
	"lubebot/internal/common/aws"
	"lubebot/internal/common/config"
	"lubebot/internal/common/crm"
	"lubebot/internal/common/database"
	"lubebot/internal/common/logger"
	"lubebot/internal/common/observability"
	"lubebot/internal/history"
	"lubebot/internal/knowledge"
	"lubebot/internal/notify"
	"lubebot/internal/pipeline"
	"lubebot/internal/server"
)

const historyRetention = 30 * 24 * time.Hour

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
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chatbot server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry (optional, history only) ---
	var historyStore *history.Store
	if cfg.Database.Postgres.Host != "" {
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
			zapLog.Warn("postgres unavailable, conversation history disabled", zap.Error(err))
		} else {
			defer pg.Close()
			historyStore = history.NewStore(pg.DB, log)
			if err := historyStore.EnsureSchema(ctx); err != nil {
				zapLog.Warn("history schema setup failed, history disabled", zap.Error(err))
				historyStore = nil
			} else {
				zapLog.Info("PostgreSQL connected successfully")
			}
		}
	}

	// --- Init Redis with retry (optional, catalog L2 cache only) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, catalog cache runs in-memory only", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init catalog source ---
	var source catalog.Source
	if cfg.Catalog.Source == "elasticsearch" {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elastic)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
		source = catalog.NewESSource(esClient.Client, cfg.Catalog.Index, log)
	} else {
		source = catalog.NewStoreClient(cfg.Catalog, log)
	}

	var rdb *redis.Client
	if redisClient != nil {
		rdb = redisClient.Client
	}
	catalogCache := catalog.NewCache(
		source,
		config.GetDuration(cfg.Catalog.CacheTTL*1000),
		rdb,
		log,
	)

	knowledgeStore := knowledge.NewStore(
		cfg.Knowledge.Dir,
		config.GetDuration(cfg.Knowledge.CacheTTL*1000),
		log,
	)

	genaiClient := genai.NewClient(&genai.Config{
		BaseURL:         cfg.APIs.GenAI.BaseURL,
		APIKey:          cfg.APIs.GenAI.APIKey,
		ClassifyTimeout: config.GetDuration(cfg.APIs.GenAI.ClassifyTimeout),
		GenerateTimeout: config.GetDuration(cfg.APIs.GenAI.GenerateTimeout),
		MaxRetries:      cfg.APIs.GenAI.MaxRetries,
	})
	if !genaiClient.Configured() {
		zapLog.Warn("no generation credential, running rule-only with template replies")
	}

	// --- Init notification clients (all optional) ---
	var emailSender notify.EmailSender
	var topicPublisher notify.TopicPublisher
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Warn("ses client init failed, lead emails disabled", zap.Error(err))
		} else {
			emailSender = sesClient
		}
	}
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Warn("sns client init failed, alerts disabled", zap.Error(err))
		} else {
			topicPublisher = snsClient
		}
	}
	var leadCreator notify.LeadCreator
	if cfg.Integrations.CRM.BaseURL != "" && cfg.Integrations.CRM.OAuthToken != "" {
		leadCreator = crm.NewClient(cfg.Integrations.CRM.BaseURL, cfg.Integrations.CRM.OAuthToken)
	}
	notifier := notify.New(emailSender, topicPublisher, leadCreator, cfg.Integrations, log)

	pipe := pipeline.New(pipeline.Options{
		Classifier: genaiClient,
		Generator:  genaiClient,
		Catalog:    catalogCache,
		Knowledge:  knowledgeStore,
		Logger:     log,
	})

	srv := server.New(server.Options{
		Pipeline:       pipe,
		History:        historyStore,
		Notifier:       notifier,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		HistoryTurns:   cfg.Server.HistoryTurns,
		Logger:         log,
	})

	// --- Warm the catalog so the first request does not pay the fetch ---
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := catalogCache.Snapshot(warmCtx); err != nil {
			zapLog.Warn("catalog warm-up failed, will retry on first request", zap.Error(err))
		}
	}()

	// --- History retention pruning ---
	if historyStore != nil {
		go func() {
			ticker := time.NewTicker(6 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				pruneCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
				historyStore.Prune(pruneCtx, historyRetention)
				cancel()
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Chatbot server stopped")
}
