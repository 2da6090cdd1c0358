package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"staygate/config"
	"staygate/cron"
	"staygate/database"
	reservationsRepo "staygate/database/repository/reservations"
	rulesRepo "staygate/database/repository/rules"
	"staygate/handlers"
	"staygate/middleware"
	"staygate/routes"
	"staygate/services/booking"
	"staygate/services/notification"
	"staygate/services/pricing"
	"staygate/services/supplier"
	"staygate/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	db, err := database.Connect(context.Background())
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to database: %v", err)
	}

	quoteCache, err := utils.NewQuoteCacheClient()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to connect to quote cache: %v", err)
	}

	// repositories.
	ruleRepository := rulesRepo.NewMongoRuleRepo(db)
	reservationRepository := reservationsRepo.NewMongoReservationRepo(db)

	// supplier protocol client.
	supplierClient := supplier.NewHTTPClient(
		config.AppConfig.SupplierBaseURL,
		config.AppConfig.SupplierAPIKey,
		config.AppConfig.SupplierTimeout,
		config.AppConfig.SupplierRetries,
		logger,
	)

	// task queue client for events and delayed rechecks.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()
	publisher := notification.NewAsynqPublisher(asynqClient)

	// services.
	pricingService := &pricing.DefaultPricingService{
		Rules:        ruleRepository,
		Reservations: reservationRepository,
		Logger:       logger,
	}
	bookingService := &booking.DefaultBookingService{
		Supplier:     supplierClient,
		Pricing:      pricingService,
		Reservations: reservationRepository,
		QuoteCache:   quoteCache,
		Notifier:     publisher,
		Scheduler:    publisher,
		Clock:        booking.RealClock{},
		Logger:       logger,
		Cfg: booking.Config{
			QuoteTTL: config.AppConfig.QuoteTTL,
			PollPolicy: booking.RetryPolicy{
				Attempts: config.AppConfig.PollAttempts,
				Interval: config.AppConfig.PollInterval,
				Jitter:   200 * time.Millisecond,
			},
			PriceTolerancePct: config.AppConfig.PriceTolerancePct,
			RecheckDelay:      5 * time.Minute,
		},
	}

	// Settle anything a previous process left mid-flight before accepting
	// new bookings.
	if err := bookingService.RecoverUnresolved(context.Background()); err != nil {
		logger.Sugar().Errorf("main: recovery pass failed: %v", err)
	}

	worker := cron.StartWorker(bookingService, logger)

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	adminHandler := handlers.NewAdminHandler(ruleRepository, reservationRepository, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())
	routes.RegisterRoutes(router, bookingHandler, adminHandler)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("main: listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server shutdown: %v", err)
	}
	worker.Shutdown()
	// Let in-flight attempts reach a terminal state; anything cut off is
	// settled by the recovery pass on next start.
	bookingService.Wait()
}
