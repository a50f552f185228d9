package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/betpulse/betpulse-api/internal/config"
	"github.com/betpulse/betpulse-api/internal/domain/auth"
	"github.com/betpulse/betpulse-api/internal/domain/bet"
	"github.com/betpulse/betpulse-api/internal/domain/ledger"
	"github.com/betpulse/betpulse-api/internal/domain/market"
	"github.com/betpulse/betpulse-api/internal/domain/user"
	"github.com/betpulse/betpulse-api/internal/domain/wallet"
	"github.com/betpulse/betpulse-api/internal/middleware"
	"github.com/betpulse/betpulse-api/internal/pkg/database"
	"github.com/betpulse/betpulse-api/internal/pkg/jwt"
	"github.com/betpulse/betpulse-api/internal/pkg/metrics"
	pkgresponse "github.com/betpulse/betpulse-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting BetPulse API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db, cfg.Currency, cfg.LockTimeout)
	betRepo := bet.NewRepository(db)
	marketRepo := market.NewRepository(db)

	// ---------- Market gateway ----------
	// Without Redis the feed gateway is absent: markets read as closed
	// and cashout is unavailable, but settled history still serves.
	var oddsGateway *market.RedisGateway
	var gateway bet.MarketGateway = market.NewMemoryGateway()
	if redisClient != nil {
		oddsGateway = market.NewRedisGateway(redisClient, 30*time.Second)
		gateway = oddsGateway
	}
	catalog := market.NewCatalog(marketRepo)

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService, ledgerRepo, cfg.Currency)
	walletService := wallet.NewService(ledgerRepo)
	betService := bet.NewService(db, betRepo, walletService, gateway, catalog, cfg.MaxStakeMinor)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	walletHandler := wallet.NewHandler(walletService)
	betHandler := bet.NewHandler(betService)
	marketHandler := market.NewHandler(marketRepo, oddsGateway)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Odds stream ----------
	streamCtx, stopStream := context.WithCancel(context.Background())
	defer stopStream()

	var oddsHub *market.Hub
	if redisClient != nil {
		oddsHub = market.NewHub(func(r *http.Request) bool { return true })
		market.StartSubscriber(streamCtx, redisClient, oddsHub)
	}

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	if oddsHub != nil {
		r.Get("/ws/odds", oddsHub.HandleWS)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/bets", betHandler.Routes(authMiddleware))
		r.Mount("/events", marketHandler.Routes(authMiddleware, middleware.RequireAdmin()))
	})

	metricsServer := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stopStream()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	_ = metricsServer.Shutdown(ctx)

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
