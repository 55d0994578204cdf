// cmd/notifier/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"notification-pipeline/internal/api/fileshare"
	"notification-pipeline/internal/api/notifications"
	"notification-pipeline/internal/common/config"
	"notification-pipeline/internal/common/database"
	"notification-pipeline/internal/common/logger"
	"notification-pipeline/internal/common/observability"
	"notification-pipeline/internal/notify/card"
	"notification-pipeline/internal/notify/display"
	"notification-pipeline/internal/notify/ingest"
	"notification-pipeline/internal/notify/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification pipeline...",
		zap.String("user", cfg.Realtime.UserID),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	obs := observability.New("notifier")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Backend REST collaborators ---
	timeout := config.GetDuration(cfg.Backend.Timeout)
	notificationsAPI := notifications.NewClient(cfg.Backend.NotificationsURL(), cfg.Backend.Token, timeout)
	fileshareAPI := fileshare.NewClient(cfg.Backend.FileSharesURL(), cfg.Backend.Token, timeout)

	// --- Store: rehydrate persisted state, then reconcile against server ---
	persister := store.NewRedisPersister(rdb, cfg.Realtime.UserID)
	notificationStore := store.New(persister, log)
	notificationStore.Rehydrate(ctx)

	if serverList, err := notificationsAPI.List(ctx); err != nil {
		// Startup reconciliation is best effort: persisted state stands
		// until the next successful refetch.
		zapLog.Warn("startup reconciliation skipped", zap.Error(err))
	} else {
		notificationStore.Reconcile(ctx, serverList)
	}

	reader, ingestWriter, displayWriter := notificationStore.Handles()

	// --- Card renderer ---
	renderer := card.NewRenderer(fileshareAPI, notificationsAPI, card.NoopAlerter{}, log)
	presenter := card.NewPresenter(renderer, log)

	// --- Ingestion channel ---
	credentials := func(context.Context) (ingest.Credential, error) {
		return ingest.Credential{UserID: cfg.Realtime.UserID, Token: cfg.Backend.Token}, nil
	}
	channel := ingest.NewChannel(
		&ingest.Config{
			ChannelPrefix:     cfg.Realtime.ChannelPrefix,
			ReconnectSchedule: cfg.Realtime.ReconnectSchedule(),
		},
		rdb, credentials, ingestWriter, log,
	)
	if err := channel.StartConnection(ctx); err != nil {
		// Silent degradation: the pipeline still serves persisted state.
		zapLog.Warn("push channel unavailable at startup", zap.Error(err))
	}
	defer channel.StopConnection()

	// --- Display controller ---
	controller := display.NewController(
		&display.Config{
			DwellTime:    config.GetDuration(cfg.Display.DwellMs),
			ExitDuration: config.GetDuration(cfg.Display.ExitMs),
		},
		reader, displayWriter,
		presenter,
		notificationsAPI,
		log, obs,
	)

	displayDone := make(chan struct{})
	go func() {
		defer close(displayDone)
		controller.Run(ctx)
	}()

	// --- Metrics endpoint ---
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zapLog.Warn("metrics endpoint failed", zap.Error(err))
			}
		}()
		zapLog.Info("Metrics endpoint listening", zap.String("address", cfg.Metrics.Address))
	}

	zapLog.Info("Notification pipeline running")

	<-ctx.Done()
	zapLog.Info("Shutting down...")

	channel.StopConnection()
	<-displayDone

	zapLog.Info("Notification pipeline stopped")
}
