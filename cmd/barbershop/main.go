package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barbershop/internal/admin"
	"barbershop/internal/bookings"
	"barbershop/internal/catalog"
	"barbershop/internal/config"
	"barbershop/internal/events"
	"barbershop/internal/format"
	"barbershop/internal/httpapi"
	"barbershop/internal/metrics"
	"barbershop/internal/models"
	"barbershop/internal/payment"
	"barbershop/internal/schedule"
	"barbershop/internal/storage"
	"barbershop/internal/wizard"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", os.Getenv("BARBERSHOP_CONFIG"), "path to config.yaml")
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash for admin.password_hash and exit")
	flag.Parse()

	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if *hashPassword != "" {
		hash, err := admin.HashPassword(*hashPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("hash password")
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, sqliteStore, rdb, err := openStorage(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open storage error")
	}
	defer kv.Close()

	bus := events.NewBus(&logger)
	bus.Subscribe(events.BookingCreated, func(e events.Event) error {
		var b models.Booking
		if err := e.Decode(&b); err != nil {
			return err
		}
		logger.Info().
			Str("booking_id", b.ID).
			Str("customer", b.CustomerName).
			Str("phone", format.Phone(b.CustomerPhone)).
			Str("when", format.LongDate(b.Date)+" "+b.Time).
			Str("price", format.Price(b.Service.Price)).
			Msg("new booking")
		return nil
	})
	bus.Subscribe(events.BookingStatusChanged, func(e events.Event) error {
		var change bookings.StatusChange
		if err := e.Decode(&change); err != nil {
			return err
		}
		logger.Info().Str("booking_id", change.ID).Str("from", change.From).Str("to", change.To).Msg("booking status changed")
		return nil
	})

	services := catalog.New(kv, &logger)
	sched := schedule.NewStore(kv, &logger)
	bookingStore := bookings.NewStore(kv, bus, &logger)

	if _, err := os.Stat(cfg.SchedulePath); err == nil {
		err = config.WatchSchedule(ctx, cfg.SchedulePath, 30*time.Second, func(sc *models.ScheduleConfig) {
			if err := sched.Save(ctx, *sc); err != nil {
				logger.Error().Err(err).Str("path", cfg.SchedulePath).Msg("schedule file rejected")
				return
			}
			logger.Info().Str("path", cfg.SchedulePath).Msg("schedule reloaded from file")
		})
		if err != nil {
			logger.Error().Err(err).Msg("watch schedule file")
		}
	}

	processor := payment.NewProcessor(payment.Options{
		Delay:       cfg.PaymentDelay(),
		FailureRate: cfg.Payment.FailureRate,
	}, &logger)

	sessions := wizard.NewSessions(wizard.Deps{
		Catalog:  services,
		Slots:    sched,
		Bookings: bookingStore,
		Payments: processor,
		Logger:   &logger,
	}, cfg.WizardSessionTimeout())
	sessions.Start(ctx, time.Minute)

	tokens, err := admin.NewTokens(cfg.Admin.TokenSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("init admin tokens")
	}
	if cfg.Admin.TokenSecret == "" {
		logger.Warn().Msg("admin.token_secret is empty, admin tokens will not survive a restart")
	}

	if sqliteStore != nil && cfg.Backup.Enabled {
		backups := storage.NewBackupService(sqliteStore, cfg.Backup, &logger)
		go backups.Start(ctx)
	}

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, kv, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	handler := httpapi.New(httpapi.Config{
		Catalog:   services,
		Schedule:  sched,
		Bookings:  bookingStore,
		Sessions:  sessions,
		Gate:      admin.NewGate(cfg.Admin.Password, cfg.Admin.PasswordHash, cfg.AdminSessionTTL()),
		Tokens:    tokens,
		LoginRate: cfg.LoginRatePerMinute(),
		Logger:    &logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.HTTP.Port).Str("storage", cfg.Storage.Driver).Msg("barbershop API started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("api server error")
	}
}

// openStorage returns the configured store. The SQLite store is returned
// separately for backups, the Redis client for readiness checks.
func openStorage(cfg *config.Config, logger *zerolog.Logger) (storage.KV, *storage.SQLiteStore, *redis.Client, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		s, err := storage.NewSQLiteStore(cfg.Storage.Path, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, nil, nil
	case "redis":
		r := cfg.Storage.Redis
		rdb := redis.NewClient(&redis.Options{Addr: r.Address, Password: r.Password, DB: r.DB})
		return storage.NewRedisStore(rdb, r.Prefix), nil, rdb, nil
	case "memory":
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
		return storage.NewMemoryStore(), nil, nil, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func startHealthServer(ctx context.Context, port int, kv storage.KV, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := kv.Ping(ctxPing); err != nil {
			msg := "storage not ready"
			if rdb != nil {
				msg = "redis not ready"
			}
			http.Error(w, msg, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
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

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
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
