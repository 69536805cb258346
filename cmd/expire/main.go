package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"wellness/internal/config"
	"wellness/internal/database"
	"wellness/internal/modules/booking"
	"wellness/internal/notification"
	"wellness/internal/pkg/lock"
	"wellness/internal/pkg/logger"
	"wellness/internal/repository"
)

// expire runs one CancelExpired pass and exits; schedule it from cron.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}

	dispatcher := notification.NewDispatcher(zlog.Named("events"))
	defer func() { _ = dispatcher.Close() }()

	locker := lock.New(cfg.RedisAddr)
	if r, ok := locker.(*lock.Redis); ok {
		defer func() { _ = r.Close() }()
	}

	svc := booking.NewService(repository.NewStore(db), dispatcher, zlog.Named("booking"), booking.Config{
		Location:              cfg.Location(),
		ExpiryGrace:           cfg.ExpiryGrace,
		RescheduleWindow:      cfg.RescheduleWindow,
		TherapistSharePercent: cfg.TherapistSharePercent,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := booking.NewScheduler(svc, locker, 0, zlog.Named("expiry")).RunOnce(ctx, time.Time{})
	if err != nil {
		zlog.Fatal("expiry run failed", zap.Error(err))
	}
	zlog.Info("expiry completed",
		zap.Int("cancelled", len(res.Cancelled)),
		zap.Int("failures", len(res.Failures)))
}
