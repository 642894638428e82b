package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/venuecraft/table-booking/internal/config"
	"github.com/venuecraft/table-booking/internal/database"
	"github.com/venuecraft/table-booking/internal/handler"
	"github.com/venuecraft/table-booking/internal/middleware"
	"github.com/venuecraft/table-booking/internal/payment"
	"github.com/venuecraft/table-booking/internal/queue"
	"github.com/venuecraft/table-booking/internal/repository"
	"github.com/venuecraft/table-booking/internal/router"
)

func main() {
	// A missing .env is fine in containerized deployments where the
	// environment comes from the orchestrator.
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it rate limiting and floor caching are
	// simply disabled.
	rdb := config.NewRedisClient()

	eventRepo := repository.NewEventRepo(db)
	sectionRepo := repository.NewSectionRepo(db)
	eventSectionRepo := repository.NewEventSectionRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	refundRepo := repository.NewRefundRepo(db)

	var processor payment.Processor = payment.Unconfigured{}
	if cfg.PaymentBaseURL != "" {
		processor = payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey)
	} else {
		log.Printf("payment processor not configured; refunds disabled")
	}

	bookingHandler := handler.NewBookingHandler(eventRepo, eventSectionRepo, bookingRepo, refundRepo)
	floorHandler := handler.NewFloorHandler(eventRepo, eventSectionRepo, bookingRepo)
	sectionHandler := handler.NewSectionHandler(sectionRepo, eventRepo, eventSectionRepo)
	refundHandler := handler.NewRefundHandler(bookingRepo, refundRepo, processor)

	// The notification consumer reconnects on its own; a broker outage at
	// boot must not take the API down with it.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}

	var floorCache echo.MiddlewareFunc
	if rdb != nil {
		floorCache = middleware.NewFloorCache(config.LoadFloorCacheConfig(), rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterBookings(e, bookingHandler, cfg.JWTSecret)
	router.RegisterHolds(e, bookingHandler, cfg.JWTSecret)
	router.RegisterBookingReads(e, bookingHandler, cfg.JWTSecret)
	router.RegisterFloor(e, floorHandler, cfg.JWTSecret, floorCache)
	router.RegisterTableOps(e, floorHandler, cfg.JWTSecret)
	router.RegisterServerAssignments(e, floorHandler, cfg.JWTSecret)
	router.RegisterSections(e, sectionHandler, cfg.JWTSecret)
	router.RegisterRefunds(e, refundHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
