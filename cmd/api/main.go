package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tallyform/tallyform/internal/api"
	"github.com/tallyform/tallyform/internal/blob"
	"github.com/tallyform/tallyform/internal/cache"
	"github.com/tallyform/tallyform/internal/db"
	"github.com/tallyform/tallyform/internal/mailer"
	"github.com/tallyform/tallyform/internal/notify"
	"github.com/tallyform/tallyform/internal/results"
	"github.com/tallyform/tallyform/internal/telemetry"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	telemetry.RegisterMetrics()

	dbConfig, err := db.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close(database)

	log.Println("Connected to database successfully")

	queries := db.NewQueries(database)

	// Cache and notifier share one Redis pool; without REDIS_ADDR the
	// service falls back to an in-process cache and a no-op notifier.
	var (
		cacheStore cache.Store
		notifier   notify.Notifier = notify.Noop{}
	)
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisCache := cache.NewRedis(addr, os.Getenv("REDIS_PASSWORD"))
		if err := redisCache.Ping(ctx); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisCache.Close()
		cacheStore = redisCache
		notifier = notify.NewRedis(redisCache.Client())
		log.Println("Connected to redis successfully")
	} else {
		cacheStore = cache.NewMemory()
		log.Println("REDIS_ADDR not set, using in-process cache")
	}

	var blobs blob.Storage
	if url := os.Getenv("STORAGE_URL"); url != "" {
		blobs = blob.NewSupabase(url, os.Getenv("STORAGE_SERVICE_KEY"), getEnvOrDefault("STORAGE_BUCKET", "exports"))
	}

	var mail mailer.Mailer = mailer.Noop{}
	if addr := os.Getenv("SMTP_ADDR"); addr != "" {
		mail = mailer.NewSMTP(addr, getEnvOrDefault("SMTP_FROM", "noreply@tallyform.dev"), os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD"))
	}

	engine := results.NewService(queries, cacheStore, blobs, notifier, mail)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	handlers := api.NewHandlers(queries, engine)
	healthHandlers := api.NewHealthHandlers(database)

	api.SetupRoutes(e, handlers, healthHandlers)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		addr := fmt.Sprintf(":%s", port)
		log.Printf("Starting server on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}

	log.Println("Server shutdown complete")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
