package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dgrant/outlook-calendar-availability-checker/internal/bookings"
	"github.com/dgrant/outlook-calendar-availability-checker/internal/config"
	"github.com/dgrant/outlook-calendar-availability-checker/internal/metrics"
	"github.com/dgrant/outlook-calendar-availability-checker/internal/notify/twilio"
	"github.com/dgrant/outlook-calendar-availability-checker/internal/watcher"
)

const defaultPollingInterval = 60

func main() {
	pollingInterval := flag.Int("polling-interval", defaultPollingInterval, "polling interval in seconds")
	sendTest := flag.Bool("send-notification", false, "send a test notification instead of querying live availability")
	flag.Parse()

	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// .env is optional; config values may reference its variables.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("WATCHER_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.LogLevel != "" {
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
		}
		logger = logger.Level(level)
	}

	loc, err := cfg.DisplayLocation()
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid display timezone")
	}

	client := bookings.NewClient(bookings.DefaultBaseURL, cfg.Outlook.Email, cfg.Outlook.PageToken)

	sender, err := twilio.NewSender(twilio.Config{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.PhoneNumber,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create twilio sender error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	w := watcher.New(client, sender, watcher.Settings{
		ServiceID:  cfg.Outlook.ServiceID,
		StaffIDs:   cfg.Outlook.StaffIDs,
		Recipients: cfg.Recipients,
		Location:   loc,
		Interval:   time.Duration(*pollingInterval) * time.Second,
		TestMode:   *sendTest,
	}, &logger)

	logger.Info().Str("booking_page", client.BookingPageURL()).Msg("slot watcher started")
	w.Run(ctx)
}

func startHealthServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
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
