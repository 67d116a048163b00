package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/publishing"
	"github.com/ignite/engage/internal/repository/postgres"
)

// The worker runs the publishing dispatcher on its own, for deployments
// that keep the API tier separate. The redis dispatch lock keeps multiple
// dispatchers from double-claiming.
func main() {
	log.Println("Starting engage publish worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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

	clk := clock.Real{}
	scheduleRepo := postgres.NewScheduleRepo(db)

	queue := publishing.NewNotificationQueue(publishing.LogNotifier{}, clk)
	manager := publishing.NewManager(cfg.Publishing, scheduleRepo, queue, clk)
	for platform, endpoint := range cfg.Platforms.Publish {
		manager.RegisterPublisher(publishing.NewWebhookPublisher(platform, endpoint.URL, endpoint.Token, nil))
	}

	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to ping redis: %v", err)
		}
		manager.SetRedisClient(redisClient)
		log.Println("Connected to redis")
	}

	if err := manager.Start(); err != nil {
		log.Fatalf("Failed to start publishing manager: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received %s, shutting down", sig)

	manager.Stop()
	log.Println("Shutdown complete")
}
