package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/forgehex/hexwar/api/internal/auth"
	"github.com/forgehex/hexwar/api/internal/config"
	"github.com/forgehex/hexwar/api/internal/handler"
	"github.com/forgehex/hexwar/api/internal/logger"
	"github.com/forgehex/hexwar/api/internal/middleware"
	"github.com/forgehex/hexwar/api/internal/repository/postgres"
	redisrepo "github.com/forgehex/hexwar/api/internal/repository/redis"
	"github.com/forgehex/hexwar/api/internal/service"
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

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Enable Redis keyspace notifications for turn-timer expiry events.
	if err := redisClient.Underlying().ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (turn timers may not work)")
	}

	// Repos
	userRepo := postgres.NewUserRepo(db)
	battleRepo := postgres.NewBattleRepo(db)
	cmdRepo := postgres.NewCommandLogRepo(db)
	messageRepo := postgres.NewMessageRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	battleSvc := service.NewBattleService(battleRepo, cmdRepo, redisClient, wsHub)

	// Turn timer listener (auto-skip on expiry)
	timerListener := service.NewTurnTimerListener(redisClient.Underlying(), battleSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtMgr, userRepo)
	userHandler := handler.NewUserHandler(userRepo)
	battleHandler := handler.NewBattleHandler(battleSvc)
	messageHandler := handler.NewMessageHandler(messageRepo, wsHub)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("POST /battles", battleHandler.CreateBattle)
	api.HandleFunc("GET /battles/active", battleHandler.ListActive)
	api.HandleFunc("GET /battles/finished", battleHandler.ListFinished)
	api.HandleFunc("GET /battles/{id}", battleHandler.GetBattle)
	api.HandleFunc("POST /battles/{id}/start", battleHandler.StartBattle)
	api.HandleFunc("POST /battles/{id}/commands", battleHandler.SubmitCommand)
	api.HandleFunc("GET /battles/{id}/commands", battleHandler.ListCommands)
	api.HandleFunc("GET /battles/{id}/messages", messageHandler.ListMessages)
	api.HandleFunc("POST /battles/{id}/messages", messageHandler.SendMessage)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start turn timer listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timerListener.Start(ctx)

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

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
