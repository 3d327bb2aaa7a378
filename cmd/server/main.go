package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ecosan/sanitrack/internal/api"
	"github.com/ecosan/sanitrack/internal/auth"
	"github.com/ecosan/sanitrack/internal/config"
	"github.com/ecosan/sanitrack/internal/consent"
	"github.com/ecosan/sanitrack/internal/repository/postgres"
	"github.com/ecosan/sanitrack/internal/service/client"
	"github.com/ecosan/sanitrack/internal/service/settings"
	"github.com/ecosan/sanitrack/internal/service/user"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database url is required (config database.url or DATABASE_URL)")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Redis not reachable (%v) — rate limiting and caching disabled", err)
			redisClient = nil
		}
		cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Client snapshot store, fed by LISTEN/NOTIFY plus a periodic refresh.
	clientRepo := postgres.NewClientRepo(db)
	feed := postgres.NewClientChangeFeed(cfg.Database.URL)
	store := client.NewStoreWithOptions(clientRepo, feed, client.StoreOptions{
		RefreshInterval: cfg.Refresh.Interval(),
	})

	loadCtx, loadCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := store.Load(loadCtx); err != nil {
		log.Printf("Initial client load failed (will retry in background): %v", err)
	} else {
		log.Printf("Loaded %d client records", len(store.Snapshot()))
	}
	loadCancel()

	go store.Run(ctx)

	userService := user.NewService(postgres.NewUserRepo(db))
	settingsService := settings.NewService(postgres.NewSettingsRepo(db))

	handlers := api.NewHandlers(store)
	handlers.SetUserService(userService)
	handlers.SetSettingsService(settingsService)
	handlers.SetActiveCounter(clientRepo)
	if redisClient != nil {
		handlers.SetRedisClient(redisClient)
	}

	// Consent capture needs a bucket; without one the endpoint stays off.
	var s3Client *s3.Client
	if cfg.Storage.S3Bucket != "" {
		uploader, err := consent.NewS3Uploader(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize consent uploader: %v", err)
		}
		handlers.SetConsentService(consent.NewService(uploader, cfg.Storage.S3Prefix))

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.AWSRegion))
		if err == nil {
			s3Client = s3.NewFromConfig(awsCfg)
		}
		log.Printf("Consent uploads enabled (bucket %s)", cfg.Storage.S3Bucket)
	} else {
		log.Println("Consent uploads disabled (no bucket configured)")
	}

	var authManager *auth.Manager
	if cfg.Auth.Enabled {
		authManager = auth.NewManager(cfg.Auth, userService, redisClient)
		log.Println("Authentication enabled")
	} else {
		log.Println("Authentication DISABLED — API is open")
	}

	healthChecker := api.NewHealthChecker(db, redisClient, s3Client, cfg.Storage.S3Bucket, store)
	server := api.NewServer(cfg.Server, handlers, healthChecker, authManager)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
