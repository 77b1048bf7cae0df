package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	httpapi "github.com/trade-hub/trade-hub/internal/api/http"
	"github.com/trade-hub/trade-hub/internal/application/completion"
	"github.com/trade-hub/trade-hub/internal/application/message"
	"github.com/trade-hub/trade-hub/internal/application/negotiation"
	"github.com/trade-hub/trade-hub/internal/application/push"
	"github.com/trade-hub/trade-hub/internal/config"
	"github.com/trade-hub/trade-hub/internal/infrastructure/postgres"
	"github.com/trade-hub/trade-hub/internal/infrastructure/sse"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
		MaxConns:        cfg.DatabaseMaxConns,
		MaxConnLifetime: time.Hour,
	})
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	listingRepo := postgres.NewListingRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	tradeRepo := postgres.NewTradeRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// infrastructure
	hub := sse.NewHub()

	// services
	pushSvc := push.NewService(hub, logger)
	completionSvc := completion.NewService(tradeRepo, pushSvc, logger)
	coordinator := negotiation.NewCoordinator(listingRepo, logger)
	negotiationSvc := negotiation.NewService(chatRepo, listingRepo, userRepo, coordinator, completionSvc, pushSvc, logger)
	messageSvc := message.NewService(chatRepo, messageRepo, pushSvc, logger)

	// API server
	apiServer := httpapi.NewServer(negotiationSvc, messageSvc, completionSvc, hub, []byte(cfg.JWTSecret), logger)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	hub.Stop()
}
