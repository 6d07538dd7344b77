package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/config"
	api "github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/http"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/log"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/metrics"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/queue"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/repo"
)

func main() {
	cfg := config.Load()

	warnings, err := cfg.Validate()
	if err != nil {
		stdlog.Fatalf("configuration invalid: %v", err)
	}

	logger, err := log.Init(cfg.IsProduction())
	if err != nil {
		stdlog.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()
	for _, w := range warnings {
		logger.Warn(w)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())
	if err := store.EnsureUserIndexes(ctx); err != nil {
		logger.Fatal("mongo indexes", zap.Error(err))
	}

	var rds *repo.Redis
	if cfg.RedisAddr != "" {
		rds = repo.NewRedis(cfg.RedisAddr)
		if err := rds.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, rate limiting falls back to local counters", zap.Error(err))
			rds = nil
		} else {
			defer rds.Close()
		}
	}

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		rp, err := queue.NewRabbit(cfg.RabbitURL, cfg.Exchange)
		if err != nil {
			logger.Warn("rabbit unreachable, notification events will be dropped", zap.Error(err))
		} else {
			pub = rp
		}
	}
	defer pub.Close()

	metrics.MustRegister()

	h := api.NewHandler(store, cfg, logger, pub)
	gl := api.NewGuestLimiter(rds, cfg.GuestRateLimit,
		time.Duration(cfg.GuestRateWindowMin)*time.Minute, logger)
	r := api.NewRouter(h, gl)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	logger.Info("auth service listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
