package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"staypilot/internal/api"
	"staypilot/internal/cache"
	"staypilot/internal/config"
	"staypilot/internal/database"
	"staypilot/internal/events"
	"staypilot/internal/importer"
	"staypilot/internal/metrics"
	"staypilot/internal/models"
	"staypilot/internal/service"
	"staypilot/internal/sheets"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("STAYPILOT_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	var viewCache cache.ViewCache
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		viewCache = cache.NewFailoverCache(
			cache.NewRedisCache(rdb, cfg.CacheTTL()),
			cache.NewMemoryCache(cfg.CacheTTL()),
			&logger,
		)
	}

	bus := events.NewEventBus()
	svc := service.NewBookingService(db, bus, &logger)
	imp := importer.New(db, bus, cfg.Import.MaxRows, &logger)

	if viewCache != nil {
		cache.InvalidateOnBookingEvents(bus, viewCache, &logger)
	}

	if cfg.Sheets.Enabled {
		mirror, err := sheets.NewSheetsService(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create sheets mirror")
		}
		wireSheetsMirror(ctx, bus, mirror, db, cfg.Server.MaxRangeDays, &logger)
	}

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, cfg.BackupInterval(), &logger)
		go backup.Start(ctx)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	rps, burst := cfg.RateLimit()
	server := api.NewHTTPServer(cfg.Server.Port, svc, imp, viewCache, rps, burst, cfg.Server.MaxRangeDays, &logger)
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	logger.Info().Msg("availability service started")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("http server error")
	}
}

// wireSheetsMirror keeps the spreadsheet in step with booking changes.
// Creates update a single row; cancels blank the cached row; only bulk
// imports (and recovery from a lost row position) pay for a full
// rewrite. The mirror is best-effort and must never block a booking
// write, so each handler runs on its own goroutine off the synchronous
// bus.
func wireSheetsMirror(ctx context.Context, bus *events.EventBus, mirror *sheets.SheetsService, db *database.DB, scheduleDays int, logger *zerolog.Logger) {
	refreshSchedule := func() {
		snapshot, err := db.Snapshot(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("load snapshot for schedule grid")
			return
		}
		start := models.Day(time.Now())
		if err := mirror.WriteSchedule(ctx, snapshot, start, start.AddDate(0, 0, scheduleDays)); err != nil {
			logger.Error().Err(err).Msg("write schedule grid")
		}
	}

	resync := func() {
		snapshot, err := db.Snapshot(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("load snapshot for sheets mirror")
			return
		}
		if err := mirror.FullResync(ctx, snapshot); err != nil {
			logger.Error().Err(err).Msg("sheets resync failed")
			// The sheet's state is unknown now; stale row positions would
			// make later in-place updates write over the wrong rows.
			mirror.ClearCache()
			return
		}
		refreshSchedule()
	}

	bus.Subscribe(events.TypeBookingCreated, func(event events.Event) error {
		go func() {
			var b models.Booking
			if err := json.Unmarshal(event.Payload, &b); err != nil {
				logger.Error().Err(err).Msg("decode booking.created payload")
				return
			}
			property, err := db.GetProperty(ctx, b.PropertyID)
			if err != nil {
				logger.Error().Err(err).Str("property_id", b.PropertyID).Msg("resolve property for mirror")
				return
			}
			if err := mirror.SyncBooking(ctx, &b, property.Name); err != nil {
				logger.Error().Err(err).Str("booking_id", b.ID).Msg("sync booking row")
				resync()
				return
			}
			refreshSchedule()
		}()
		return nil
	})

	bus.Subscribe(events.TypeBookingCancelled, func(event events.Event) error {
		go func() {
			var b models.Booking
			if err := json.Unmarshal(event.Payload, &b); err != nil {
				logger.Error().Err(err).Msg("decode booking.cancelled payload")
				return
			}
			if err := mirror.RemoveBooking(ctx, b.ID); err != nil {
				resync()
				return
			}
			refreshSchedule()
		}()
		return nil
	})

	bus.Subscribe(events.TypeImportCompleted, func(events.Event) error {
		go resync()
		return nil
	})
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
