package main // Entry point package

import (
	"log"  // Logging library
	"time" // Durations for the booking window default

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/minhtran/spa-booking/internal/config"     // Internal config loader
	"github.com/minhtran/spa-booking/internal/database"   // MySQL connection helper
	"github.com/minhtran/spa-booking/internal/event"      // Domain event dispatcher
	"github.com/minhtran/spa-booking/internal/handler"    // HTTP handlers
	"github.com/minhtran/spa-booking/internal/middleware" // Rate limit and cache middleware
	"github.com/minhtran/spa-booking/internal/notify"     // Event handler registry (audit + queue publishers)
	"github.com/minhtran/spa-booking/internal/queue"      // RabbitMQ notification consumer
	"github.com/minhtran/spa-booking/internal/repository" // Data access layer
	"github.com/minhtran/spa-booking/internal/router"     // Route registration
	"github.com/minhtran/spa-booking/internal/schedule"   // Conflict checker and resource locks
	"github.com/minhtran/spa-booking/internal/service"    // Booking orchestrator
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win

	cfg := config.Load() // Load environment config

	// The storefront lets customers omit an end time; bookings then run for
	// the configured default window.
	schedule.DefaultDuration = time.Duration(cfg.DefaultDurationMin) * time.Minute

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName) // Connect to MySQL
	if err != nil {
		log.Fatalf("database: %v", err) // Abort startup when the database is unreachable
	}
	defer db.Close() // Release the pool on shutdown

	// Repositories over the shared pool.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	staffRepo := repository.NewStaffRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	serviceRepo := repository.NewServiceRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// Domain event wiring: the registry is built once here, at startup.
	// Handlers append to the audit log and publish confirmation and
	// cancellation messages to RabbitMQ.
	registry := notify.NewRegistry(customerRepo)
	dispatcher := event.NewDispatcher(registry)

	// Booking orchestrator over the repositories and dispatcher.
	bookingSvc := service.NewBookingService(bookingRepo, serviceRepo, dispatcher)

	// HTTP handlers.
	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo, customerRepo)
	bookingHandler := handler.NewBookingHandler(bookingSvc, bookingRepo, customerRepo)
	adminHandler := handler.NewAdminHandler(staffRepo, roomRepo, serviceRepo, customerRepo, paymentRepo)

	e := echo.New() // Create Echo instance

	// Redis backs both the token-bucket rate limiter and the response cache.
	rdb := config.NewRedisClient()
	var limiter, cache echo.MiddlewareFunc
	if rdb != nil {
		limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	router.RegisterRoutes(e)                                       // Health check
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)             // Auth + /v1/me
	router.RegisterCatalog(e, adminHandler, cache)                 // Public catalog browse
	router.RegisterBookings(e, bookingHandler, cfg.JWTSecret, limiter) // Booking lifecycle
	router.RegisterAdmin(e, adminHandler, authHandler, cfg.JWTSecret) // Catalog management, accounts + payments

	// Consume confirmation/cancellation queues and write notification
	// lines; reconnects with backoff if the broker drops.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
