package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veldtgames/warcouncil/internal/config"
	"github.com/veldtgames/warcouncil/internal/handler"
	"github.com/veldtgames/warcouncil/internal/logger"
	"github.com/veldtgames/warcouncil/internal/middleware"
	"github.com/veldtgames/warcouncil/internal/repository/postgres"
	redisrepo "github.com/veldtgames/warcouncil/internal/repository/redis"
	"github.com/veldtgames/warcouncil/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()
	store := postgres.NewStore(db)

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	lockTTL := time.Duration(cfg.TurnLockTTLSeconds) * time.Second
	turnSvc := service.NewTurnService(store, redisClient, wsHub, lockTTL)
	orderSvc := service.NewOrderService(store)
	eventSvc := service.NewEventService(store, redisClient)

	// Handlers
	orderHandler := handler.NewOrderHandler(orderSvc)
	turnHandler := handler.NewTurnHandler(turnSvc, eventSvc)
	wsHandler := handler.NewWSHandler(wsHub)

	// Router
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("POST /api/v1/guilds/{guildId}/orders", orderHandler.SubmitOrder)
	mux.HandleFunc("DELETE /api/v1/guilds/{guildId}/orders/{orderId}", orderHandler.CancelOrder)
	mux.HandleFunc("POST /api/v1/guilds/{guildId}/turn/advance", turnHandler.AdvanceTurn)
	mux.HandleFunc("GET /api/v1/guilds/{guildId}/events", turnHandler.Events)

	// WebSocket (identity via query params, not headers)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware. Recover sits innermost so a panic still
	// gets a completion log entry with its request ID.
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON, middleware.Recover)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
