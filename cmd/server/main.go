package main // Entry point package

import (
	"context" // Context for the background workers
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/evertix/ticketing/internal/config"     // Internal config loader
	"github.com/evertix/ticketing/internal/database"   // MySQL pool constructor
	"github.com/evertix/ticketing/internal/handler"    // HTTP handlers
	"github.com/evertix/ticketing/internal/middleware" // JWT, identity, cache and rate limit middleware
	"github.com/evertix/ticketing/internal/queue"      // Broker consumer
	"github.com/evertix/ticketing/internal/repository" // DB repositories
	"github.com/evertix/ticketing/internal/router"     // Route registration
	"github.com/evertix/ticketing/internal/service"    // Domain services
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories.
	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	sectors := repository.NewSectorRepo(db)
	events := repository.NewEventRepo(db)
	pricings := repository.NewPricingRepo(db)
	tickets := repository.NewTicketRepo(db)
	transactions := repository.NewTransactionRepo(db)
	listings := repository.NewResaleRepo(db)

	// Services. The publisher is optional: without a broker URL the
	// purchase events are simply not emitted.
	var publisher service.Publisher
	if cfg.AMQPURL != "" {
		publisher = service.NewAMQPPublisher(cfg.AMQPURL)
	}
	identities := service.NewIdentityService(db, accounts)
	reservations := service.NewReservationService(db, pricings, tickets, transactions)
	payments := service.NewPaymentService(db, transactions, tickets, pricings, publisher)
	resales := service.NewResaleService(db, tickets, listings, transactions)
	sweeper := service.NewSweeper(db, transactions, tickets, pricings, listings, cfg.ReservationTTL, cfg.SweepInterval)

	// Background workers: the expiry sweep reclaims stale reservations,
	// the consumer appends purchase confirmations to the audit log.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartPurchaseConsumer(cfg.AMQPURL); err != nil {
				log.Printf("purchase-consumer: %v", err)
			}
		}()
	}

	e := echo.New() // Create Echo instance

	// Redis-backed middleware degrades gracefully when Redis is down:
	// a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limit disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Handlers and routes.
	auth := router.NewAuthChain(cfg.JWTSecret, middleware.ResolveAccount(identities))
	catalogH := handler.NewCatalogHandler(events, venues, sectors, pricings)
	resaleH := handler.NewResaleHandler(resales, listings)
	reservationH := handler.NewReservationHandler(reservations, payments, tickets, transactions)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, accounts, tokens), auth)
	router.RegisterPublic(e, catalogH, resaleH)
	router.RegisterUser(e, reservationH, resaleH, auth)
	router.RegisterAdmin(e,
		handler.NewAdminVenueHandler(venues, sectors),
		handler.NewAdminEventHandler(events, venues),
		handler.NewAdminPricingHandler(pricings, events, sectors),
		auth)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
