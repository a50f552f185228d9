package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/betpulse/betpulse-api/internal/config"
	"github.com/betpulse/betpulse-api/internal/domain/bet"
	"github.com/betpulse/betpulse-api/internal/domain/ledger"
	"github.com/betpulse/betpulse-api/internal/domain/market"
	"github.com/betpulse/betpulse-api/internal/domain/wallet"
	"github.com/betpulse/betpulse-api/internal/pkg/database"
	"github.com/betpulse/betpulse-api/internal/pkg/kafkautil"
	"github.com/betpulse/betpulse-api/internal/pkg/metrics"
)

// settlementMessage is the event-result payload published by the feed.
// One message settles one bet; the key is the bet id so retries of the
// same bet stay ordered within a partition.
type settlementMessage struct {
	BetID    string                 `json:"bet_id"`
	Outcomes []bet.SelectionOutcome `json:"outcomes"`
}

const lockRetries = 5

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("topic", cfg.SettlementTopic).
		Str("group", cfg.SettlementGroupID).
		Msg("Starting settlement worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	ledgerRepo := ledger.NewRepository(db, cfg.Currency, cfg.LockTimeout)
	walletService := wallet.NewService(ledgerRepo)
	betRepo := bet.NewRepository(db)
	// Settlement never consults the market gateway or the catalog, so the
	// worker runs with inert in-memory stand-ins.
	betService := bet.NewService(db, betRepo, walletService, market.NewMemoryGateway(), market.NewMemoryCatalog(), cfg.MaxStakeMinor)

	reader := kafkautil.NewReader(cfg.KafkaBrokers, cfg.SettlementTopic, cfg.SettlementGroupID)
	defer reader.Close()

	var dlqWriter *kafka.Writer
	if cfg.SettlementDLQTopic != "" {
		dlqWriter = kafkautil.NewWriter(cfg.KafkaBrokers, cfg.SettlementDLQTopic)
		defer dlqWriter.Close()
	}

	metricsServer := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})

	ctx, stop := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down settlement worker...")
		stop()
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn().Err(err).Msg("kafka read failed")
			time.Sleep(time.Second)
			continue
		}

		if err := processOne(ctx, betService, msg.Value); err != nil {
			log.Error().Err(err).Str("key", string(msg.Key)).Msg("settlement failed, sending to DLQ")
			if dlqWriter != nil {
				if werr := kafkautil.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value); werr != nil {
					log.Error().Err(werr).Msg("DLQ write failed")
				}
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Info().Msg("Settlement worker exited")
}

// processOne settles one bet. Lock timeouts are transient and retried
// with backoff; every other error is permanent and goes to the DLQ.
// A bet already in a terminal state settles as a no-op.
func processOne(ctx context.Context, svc *bet.Service, payload []byte) error {
	var msg settlementMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	betID, err := uuid.Parse(msg.BetID)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		b, err := svc.Settle(ctx, betID, msg.Outcomes)
		if errors.Is(err, ledger.ErrLockTimeout) && attempt < lockRetries {
			time.Sleep(time.Duration(200*(attempt+1)) * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		log.Info().
			Str("bet_id", betID.String()).
			Str("status", string(b.Status)).
			Msg("bet settled")
		return nil
	}
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
