package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calmspace/minigames/internal/common/clock"
	"github.com/calmspace/minigames/internal/common/uuid"
	"github.com/calmspace/minigames/internal/handlers/httpapi"
	queueRepo "github.com/calmspace/minigames/internal/repositories/queue"
	sessionRepo "github.com/calmspace/minigames/internal/repositories/session"
	"github.com/calmspace/minigames/internal/services/matchmaker"
	"github.com/calmspace/minigames/internal/services/play"
	"github.com/calmspace/minigames/internal/workers"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	// Transient store failures retry here with backoff; anything that
	// survives the retries surfaces to the client as StoreUnavailable
	redisClient := redis.NewClient(&redis.Options{
		Addr:            getEnv("REDIS_ADDR", "localhost:6379"),
		Password:        getEnv("REDIS_PASSWORD", ""),
		DB:              0,
		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	queueRepository, err := queueRepo.NewRedis(&queueRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create queue repository: %v", err)
	}

	sessionRepository, err := sessionRepo.NewRedis(&sessionRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create session repository: %v", err)
	}

	systemClock := &clock.DefaultClock{}
	idGenerator := uuid.New()

	waitingTTL := getEnvDuration("WAITING_TTL", 60*time.Second)
	sessionTTL := getEnvDuration("SESSION_TTL", time.Hour)
	finishedTTL := getEnvDuration("FINISHED_TTL", 5*time.Minute)

	matchmakerSvc, err := matchmaker.New(&matchmaker.Config{
		QueueRepo:   queueRepository,
		SessionRepo: sessionRepository,
		Clock:       systemClock,
		UUID:        idGenerator,
		WaitingTTL:  waitingTTL,
		SessionTTL:  sessionTTL,
	})
	if err != nil {
		log.Fatalf("Failed to create matchmaker service: %v", err)
	}

	playSvc, err := play.New(&play.Config{
		SessionRepo: sessionRepository,
		Clock:       systemClock,
		SessionTTL:  sessionTTL,
		FinishedTTL: finishedTTL,
		TurnTimeout: getEnvDuration("TURN_TIMEOUT", 2*time.Minute),
	})
	if err != nil {
		log.Fatalf("Failed to create play service: %v", err)
	}

	reaper, err := workers.NewReaper(&workers.Config{
		QueueRepo:   queueRepository,
		SessionRepo: sessionRepository,
		PlayService: playSvc,
		Clock:       systemClock,
		WaitingTTL:  waitingTTL,
		Interval:    getEnvDuration("REAPER_INTERVAL", 15*time.Second),
	})
	if err != nil {
		log.Fatalf("Failed to create reaper: %v", err)
	}

	if err := reaper.Start(); err != nil {
		log.Fatalf("Failed to start reaper: %v", err)
	}

	apiHandler, err := httpapi.New(&httpapi.Config{
		Matchmaker:  matchmakerSvc,
		Play:        playSvc,
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create API handler: %v", err)
	}

	app := fiber.New()
	httpapi.SetupRoutes(app, apiHandler)

	addr := getEnv("HTTP_ADDR", ":8080")
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	log.Printf("Listening on %s", addr)

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	if err := reaper.Stop(); err != nil {
		log.Printf("Error stopping reaper: %v", err)
	}

	if err := app.Shutdown(); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
	}

	log.Println("Server has been shut down")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration parses a duration environment variable like "90s" or "1h"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s value %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
