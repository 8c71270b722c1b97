// Command signup-server serves the signup API over HTTP.
//
// Settings come from the environment (optionally seeded from .env) and an
// optional YAML file passed with -config. See internal/config for the keys.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/MrEthical07/goSignup/credential"
	"github.com/MrEthical07/goSignup/httpapi"
	"github.com/MrEthical07/goSignup/internal/config"
	"github.com/MrEthical07/goSignup/internal/logging"
	promexport "github.com/MrEthical07/goSignup/metrics/export/prometheus"
	"github.com/MrEthical07/goSignup/notify"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file; environment variables override it")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "signup-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if _, err := config.LoadDotenv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	startupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := rdb.Ping(startupCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	store, err := credential.Open(startupCtx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if cfg.Database.Migrate {
		if err := store.Migrate(startupCtx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	engineCfg := cfg.Engine()
	for _, w := range engineCfg.Lint() {
		logger.Warn("config warning", "code", w.Code, "message", w.Message)
	}

	engine, err := goSignup.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		WithNotifier(notifier).
		WithLogger(logger).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	opts := httpapi.Options{CORSOrigins: cfg.HTTP.CORSOrigins}
	if cfg.Metrics.Enabled {
		metrics, err := promexport.Handler(promexport.NewCollector(engine))
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		opts.Metrics = metrics
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(engine, logger, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (goSignup.Notifier, error) {
	if cfg.SMTP.Host == "" {
		logger.Warn("SMTP_HOST not set, verification codes go to the log only", "reveal_code", cfg.SMTP.RevealCode)
		return &notify.LogNotifier{Logger: logger, RevealCode: cfg.SMTP.RevealCode}, nil
	}
	return notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}
