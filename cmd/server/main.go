package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/engage/internal/analysis/intent"
	"github.com/ignite/engage/internal/analysis/sentiment"
	"github.com/ignite/engage/internal/analysis/topics"
	"github.com/ignite/engage/internal/api"
	"github.com/ignite/engage/internal/brand"
	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/decision"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/ingest"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/logger"
	"github.com/ignite/engage/internal/publishing"
	"github.com/ignite/engage/internal/repository/postgres"
	"github.com/ignite/engage/internal/response"
	"github.com/ignite/engage/internal/scheduling"
)

// engineSink feeds ingested events into the decision pipeline.
type engineSink struct {
	engine *decision.Engine
	brands *brand.Service
}

func (s *engineSink) Ingest(ctx context.Context, event *domain.SocialEvent, brandID string) error {
	brandCtx, err := s.brands.Get(ctx, brandID)
	if err != nil {
		return fmt.Errorf("resolve brand %s: %w", brandID, err)
	}
	_, err = s.engine.Process(ctx, event, brandCtx)
	return err
}

func main() {
	log.Println("Starting engage server...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to ping redis: %v", err)
		}
		log.Println("Connected to redis")
	}

	clk := clock.Real{}

	scheduleRepo := postgres.NewScheduleRepo(db)
	auditRepo := postgres.NewAuditRepo(db)
	brandRepo := postgres.NewBrandRepo(db)

	brandSvc := brand.NewService(brandRepo)
	scheduler := scheduling.NewService(cfg.Scheduling, cfg.Publishing, scheduleRepo, brandSvc, clk)

	queue := publishing.NewNotificationQueue(publishing.LogNotifier{}, clk)
	scheduler.SetNotificationScheduler(queue)

	manager := publishing.NewManager(cfg.Publishing, scheduleRepo, queue, clk)
	for platform, endpoint := range cfg.Platforms.Publish {
		manager.RegisterPublisher(publishing.NewWebhookPublisher(platform, endpoint.URL, endpoint.Token, nil))
	}
	if redisClient != nil {
		manager.SetRedisClient(redisClient)
	}

	models := []sentiment.Model{sentiment.LexicalModel{}}
	if cfg.Bedrock.Enabled {
		bedrockModel, err := sentiment.NewBedrockModel(context.Background(), cfg.Bedrock.ModelID, cfg.Bedrock.Region)
		if err != nil {
			log.Fatalf("Failed to initialize bedrock model: %v", err)
		}
		models = append(models, bedrockModel)
		log.Printf("Bedrock sentiment model enabled: %s", cfg.Bedrock.ModelID)
	}

	analyzer := sentiment.NewAnalyzer(cfg.Sentiment, clk, models...)
	classifier := intent.NewClassifier(cfg.Intent)
	topicEngine := topics.NewEngine(cfg.Topics, clk)
	scorer := decision.NewPriorityScorer(cfg.Priority, clk)
	router := decision.NewRouter(cfg.Routing, clk)

	responder := publishing.NewWebhookResponder(cfg.Platforms.Response.URL, cfg.Platforms.Response.Token, nil)
	executor := decision.NewExecutor(response.NewRenderer(), responder, publishing.OperatorNotifier{}, clk)

	engine := decision.NewEngine(cfg.Engine, cfg.Quality,
		analyzer, classifier, topicEngine, scorer, router, executor, clk)
	if cfg.Quality.EnableAuditLogging {
		engine.SetAuditRepository(auditRepo)
	}

	poller := ingest.NewRSSPoller(cfg.Ingest, &engineSink{engine: engine, brands: brandSvc}, clk)

	if err := manager.Start(); err != nil {
		log.Fatalf("Failed to start publishing manager: %v", err)
	}
	poller.Start()

	handlers := api.NewHandlers(engine, brandSvc, scheduler, scheduleRepo, clk)
	handlers.AddStatsSource("decisions", engine.Metrics().Snapshot)
	handlers.AddStatsSource("publishing", manager.Snapshot)
	handlers.AddStatsSource("ingest", func() map[string]interface{} {
		stats := poller.Stats()
		out := make(map[string]interface{}, len(stats))
		for k, v := range stats {
			out[k] = v
		}
		return out
	})

	server := api.NewServer(cfg.Server, handlers)
	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server exited: %v", err)
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	poller.Stop()
	manager.Stop()
	log.Println("Shutdown complete")
}
