package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wellness/internal/config"
	"wellness/internal/database"
	"wellness/internal/middleware"
	"wellness/internal/modules/booking"
	"wellness/internal/modules/catalog"
	"wellness/internal/modules/earnings"
	"wellness/internal/modules/payment"
	"wellness/internal/notification"
	"wellness/internal/pkg/gateway"
	jwtsvc "wellness/internal/pkg/jwt"
	"wellness/internal/pkg/lock"
	"wellness/internal/pkg/logger"
	"wellness/internal/repository"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("migrate failed", zap.Error(err))
	}
	store := repository.NewStore(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := notification.NewHub(zlog.Named("ws"))
	dispatcher := notification.NewDispatcher(zlog.Named("events"))
	if err := dispatcher.Start(ctx, hub); err != nil {
		zlog.Fatal("event dispatcher failed to start", zap.Error(err))
	}
	defer func() { _ = dispatcher.Close() }()

	if !cfg.GatewayConfig.Configured() {
		zlog.Warn("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET not set, gateway payments will fail with CONFIG_ERROR")
	}
	gw := gateway.NewRazorpay(gateway.Config{
		KeyID:           cfg.GatewayConfig.KeyID,
		KeySecret:       cfg.GatewayConfig.KeySecret,
		Currency:        cfg.GatewayConfig.Currency,
		BreakerFailures: cfg.GatewayConfig.BreakerFailures,
		Timeout:         cfg.GatewayConfig.Timeout,
	})

	locker := lock.New(cfg.RedisAddr)
	if r, ok := locker.(*lock.Redis); ok {
		defer func() { _ = r.Close() }()
	}

	bookingService := booking.NewService(store, dispatcher, zlog.Named("booking"), booking.Config{
		Location:              cfg.Location(),
		ExpiryGrace:           cfg.ExpiryGrace,
		RescheduleWindow:      cfg.RescheduleWindow,
		TherapistSharePercent: cfg.TherapistSharePercent,
	})
	scheduler := booking.NewScheduler(bookingService, locker, cfg.ExpiryInterval, zlog.Named("expiry"))
	paymentService := payment.NewService(store, gw, dispatcher, zlog.Named("payment"), cfg.AdvancePercent)
	catalogService := catalog.NewService(store.Catalog, zlog.Named("catalog"))
	earningsService := earnings.NewService(store, dispatcher, zlog.Named("earnings"), cfg.TherapistSharePercent)

	if cfg.ExpiryInterval > 0 {
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(zlog.Named("http")))
	r.Use(middleware.CORS(cfg.CORSOrigins, cfg.IsProdLike()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	notification.NewHandler(hub, j, zlog.Named("ws")).RegisterRoutes(v1)

	protected := v1.Group("", middleware.JWTAuth(j))
	catalog.NewHandler(catalogService).RegisterRoutes(protected)
	booking.NewHandler(bookingService, scheduler).RegisterRoutes(protected)
	payment.NewHandler(paymentService).RegisterRoutes(protected)
	earnings.NewHandler(earningsService).RegisterRoutes(protected)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("http shutdown failed", zap.Error(err))
	}
}
