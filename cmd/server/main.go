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

	"github.com/eventflow-app/eventflow/internal/api"
	"github.com/eventflow-app/eventflow/internal/auth"
	"github.com/eventflow-app/eventflow/internal/collection"
	"github.com/eventflow-app/eventflow/internal/config"
	"github.com/eventflow-app/eventflow/internal/database"
	"github.com/eventflow-app/eventflow/internal/gateway"
	"github.com/eventflow-app/eventflow/internal/models"
	"github.com/eventflow-app/eventflow/internal/store"
	"github.com/eventflow-app/eventflow/internal/store/redisstore"
	"github.com/eventflow-app/eventflow/pkg/logger"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting eventflow server...")

	// Backing services
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL, l)
	if err != nil {
		l.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Core components
	db := redisstore.New(redisClient)
	backend := auth.NewPostgresBackend(postgresPool)
	sessions := auth.NewRedisSessionRepository(redisClient)
	identity := auth.NewIdentity()

	authSvc := auth.NewService(backend, db, sessions, identity, cfg.JWTSecret, cfg.JWTExpiry, l)
	gw := gateway.New(db, identity, backend, sessions, l)

	events := collection.New[models.Event](db, identity, store.NamespaceEvents, l)
	wishlist := collection.New[models.Event](db, identity, store.NamespaceWishlists, l)
	bookings := collection.New[models.Booking](db, identity, store.NamespaceBookings, l)
	profile := collection.NewNode[models.User](db, identity, store.UserPath, l)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: api.NewServer(authSvc, gw, events, wishlist, bookings, profile, l).Handler(),
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		l.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	l.Infof("Starting server on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		l.Fatalf("Server error: %v", err)
	}

	l.Info("Server stopped gracefully")
}
