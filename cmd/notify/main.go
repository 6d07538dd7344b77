package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/config"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/log"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/mail"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/queue"
)

func main() {
	cfg := config.Load()
	if cfg.RabbitURL == "" {
		stdlog.Fatal("RABBIT_URL is required for the notify worker")
	}

	logger, err := log.Init(cfg.IsProduction())
	if err != nil {
		stdlog.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.Exchange, cfg.Queue, cfg.BindKey)
	if err != nil {
		logger.Fatal("rabbit consumer init failed", zap.Error(err))
	}
	defer cons.Close()

	sender := mail.NewSender(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("notify worker up",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue),
		zap.String("bind_key", cfg.BindKey),
		zap.Int("workers", cfg.Concurrency))

	if err := cons.Consume(ctx, cfg.Concurrency, func(key string, body []byte) error {
		return handle(logger, sender, key, body)
	}); err != nil {
		logger.Fatal("consumer stopped", zap.Error(err))
	}
}

func handle(logger *zap.Logger, sender *mail.Sender, key string, body []byte) error {
	switch key {
	case queue.KeyUserRegistered, queue.KeyVerificationResent, queue.KeyGuestUpgraded:
		var ev queue.UserRegistered
		if err := json.Unmarshal(body, &ev); err != nil {
			logger.Error("bad event payload, dropping", zap.String("key", key), zap.Error(err))
			return nil // malformed messages must not requeue forever
		}
		return sender.SendVerification(ev.Email, ev.Name, ev.VerificationToken)

	case queue.KeyUserVerified:
		var ev queue.UserVerified
		if err := json.Unmarshal(body, &ev); err != nil {
			logger.Error("bad event payload, dropping", zap.String("key", key), zap.Error(err))
			return nil
		}
		return sender.SendWelcome(ev.Email, ev.Name)

	case queue.KeyGuestCreated:
		// guest addresses are synthetic, nothing to deliver; log for analytics
		var ev queue.GuestCreated
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil
		}
		logger.Info("guest account created",
			zap.String("guest_id", ev.UserID.Hex()), zap.String("role", ev.Role))
		return nil

	default:
		// drop instead of nack: an unknown key would requeue forever
		logger.Warn("unknown routing key, dropping", zap.String("key", key))
		return nil
	}
}
