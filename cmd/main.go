package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/api"
	"github.com/simonwachira/checkout-service/internal/config"
	"github.com/simonwachira/checkout-service/internal/events"
	"github.com/simonwachira/checkout-service/internal/lock"
	"github.com/simonwachira/checkout-service/internal/mpesa"
	"github.com/simonwachira/checkout-service/internal/repository"
	"github.com/simonwachira/checkout-service/internal/service"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

func main() {
	cfg := config.Load()

	if err := telemetry.Init("checkout-service"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting checkout service")

	db, err := repository.InitDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	pendingRepo := repository.NewPendingPaymentRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	rateRepo := repository.NewRateRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	locker := lock.NewRedisLocker(redisClient, 30*time.Second)

	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
	defer kafkaPublisher.Close()
	notifyPublisher := events.NewNatsNotifier(nc)

	gateway := mpesa.NewClient(cfg.MpesaBaseURL, cfg.MpesaConsumerKey,
		cfg.MpesaConsumerSecret, cfg.MpesaShortCode, cfg.MpesaPasskey,
		cfg.MpesaCallbackURL)

	checkout := service.NewCheckoutService(userRepo, productRepo, couponRepo,
		rateRepo, pendingRepo, gateway, kafkaPublisher)
	confirmation := service.NewConfirmationService(pendingRepo, orderRepo,
		productRepo, couponRepo, userRepo, locker, kafkaPublisher, notifyPublisher)
	status := service.NewStatusService(pendingRepo, orderRepo)
	orders := service.NewOrderService(orderRepo, productRepo, userRepo,
		kafkaPublisher, notifyPublisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := service.NewSweeper(pendingRepo, cfg.PendingTTL)
	go sweeper.Run(ctx)

	notifier := service.NewNotifier(notificationRepo, nc)
	go func() {
		if err := notifier.Run(ctx, nc); err != nil {
			telemetry.Logger.Error("notifier stopped", zap.Error(err))
		}
	}()

	r := api.NewRouter(checkout, status, orders, confirmation)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		telemetry.Logger.Info("Checkout service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
