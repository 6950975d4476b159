package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"roominventory/config"
	"roominventory/controllers"
	"roominventory/jobs"
	"roominventory/repository"
	"roominventory/repository/memory"
	"roominventory/routes"
	"roominventory/services"
	"roominventory/services/logger"
	"roominventory/services/notification"
)

type stores struct {
	tx       repository.TxManager
	rooms    repository.RoomRepository
	bookings repository.BookingRepository
	rates    repository.RateRepository
	ready    routes.ReadinessCheck
	close    func() error
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	appLogger := logger.NewDefaultLogger(logger.ParseLevel(cfg.LogLevel))

	st, err := openStores(cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			appLogger.Error("close store: %v", err)
		}
	}()

	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	var (
		cache       services.Cache            = services.NoopCache{}
		idempotency services.IdempotencyStore = services.NoopIdempotencyStore{}
	)
	if rdb != nil {
		defer rdb.Close()
		cache = services.NewRedisCache(rdb)
		idempotency = services.NewRedisIdempotencyStore(rdb, "")
		appLogger.Info("redis connected at %s", cfg.RedisAddr)
	} else {
		appLogger.Warn("REDIS_ADDR not set: caching and idempotency keys are disabled")
	}

	metrics, err := services.NewMetrics(otel.Meter("roominventory"))
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	router, m, c := config.InitApp(cfg)
	config.InitWebSocket(router, m)

	bus := notification.NewBus(cfg.EventBuffer, 16)
	publishers := notification.MultiPublisher{bus, notification.NewMelodyPublisher(m)}
	if cfg.RabbitMQURL != "" {
		amqpPub := notification.NewAMQPPublisher(cfg.RabbitMQURL, notification.DefaultStatusQueue)
		defer amqpPub.Close()
		publishers = append(publishers, amqpPub)
	}

	rateService := services.NewRateService(services.RateServiceOptions{
		Rates:   st.rates,
		Cache:   cache,
		TTL:     cfg.RateCacheTTL,
		Logger:  appLogger.With("component", "rate"),
		Metrics: metrics,
	})
	roomService := services.NewRoomStatusService(services.RoomStatusServiceOptions{
		TxManager: st.tx,
		Rooms:     st.rooms,
		Publisher: publishers,
		Cache:     cache,
		Logger:    appLogger.With("component", "room-status"),
		Metrics:   metrics,
		BusinessHours: services.BusinessHours{
			StartHour: cfg.BusinessHoursStart,
			EndHour:   cfg.BusinessHoursEnd,
		},
	})
	availabilityService := services.NewAvailabilityService(services.AvailabilityServiceOptions{
		Rooms:    st.rooms,
		Bookings: st.bookings,
		Rates:    rateService,
		Cache:    cache,
		TTL:      cfg.AvailabilityCacheTTL,
		Logger:   appLogger.With("component", "availability"),
		Metrics:  metrics,
	})
	bookingService := services.NewBookingService(services.BookingServiceOptions{
		TxManager:      st.tx,
		Bookings:       st.bookings,
		Rooms:          st.rooms,
		Availability:   availabilityService,
		Rates:          rateService,
		Inventory:      roomService,
		Publisher:      publishers,
		Idempotency:    idempotency,
		Logger:         appLogger.With("component", "booking"),
		Metrics:        metrics,
		Timeout:        cfg.BookingTimeout,
		IdempotencyTTL: cfg.IdempotencyKeyTTL,
	})

	if err := jobs.InitCronJobs(c, bookingService, jobs.Options{
		NoShowSpec:     cfg.NoShowCron,
		HoldExpirySpec: cfg.HoldExpiryCron,
		HoldTTL:        cfg.HoldTTL,
		Logger:         appLogger.With("component", "cron"),
	}); err != nil {
		return fmt.Errorf("failed to initialize cron jobs: %w", err)
	}

	checks := map[string]routes.ReadinessCheck{"store": st.ready}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	routes.SetupRoutes(router, routes.Handlers{
		Inventory: controllers.NewInventoryController(availabilityService, bookingService, roomService),
		Bookings:  controllers.NewBookingController(bookingService),
		Rooms:     controllers.NewRoomController(roomService),
	}, checks)

	events, unsubscribe, err := bus.Subscribe()
	if err != nil {
		return err
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		eventLog := appLogger.With("component", "events")
		for ev := range events {
			eventLog.Debug("%s %s: %s -> %s by %s (%s)", ev.Kind, ev.ID, ev.PreviousStatus, ev.NewStatus, ev.Actor, ev.Reason)
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	errCh := make(chan error, 1)

	c.Start()
	go func() {
		appLogger.Info("server starting on %s (store=%s)", server.Addr, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case sig := <-sigCh:
		appLogger.Info("received shutdown signal %s", sig)
	case err := <-errCh:
		return err
	}

	appLogger.Info("initiating graceful shutdown")
	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown error: %v", err)
	}
	if err := m.Close(); err != nil {
		appLogger.Warn("close websocket sessions: %v", err)
	}
	unsubscribe()
	wg.Wait()
	appLogger.Info("server stopped")
	return nil
}

func openStores(cfg *config.Config, log logger.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using in-memory store: data is lost on restart")
		mem := memory.NewStore()
		return &stores{
			tx:       mem,
			rooms:    mem.Rooms(),
			bookings: mem.Bookings(),
			rates:    mem.Rates(),
			ready:    func(context.Context) error { return nil },
			close:    func() error { return nil },
		}, nil
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	log.Info("successfully connected to db")
	return &stores{
		tx:       repository.NewGormTxManager(db),
		rooms:    repository.NewGormRoomRepository(db),
		bookings: repository.NewGormBookingRepository(db),
		rates:    repository.NewGormRateRepository(db),
		ready:    sqlDB.PingContext,
		close:    sqlDB.Close,
	}, nil
}
