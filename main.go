package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-reservations/internal/booking"
	booking_api "ms-reservations/internal/booking/api"
	booking_db "ms-reservations/internal/booking/db"
	"ms-reservations/internal/booking/qr"
	"ms-reservations/internal/config"
	"ms-reservations/internal/database/migrations"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/restaurant"
	restaurant_api "ms-reservations/internal/restaurant/api"
	"ms-reservations/internal/restaurant/cache"
	restaurant_db "ms-reservations/internal/restaurant/db"
	"ms-reservations/internal/waitlist"
	waitlist_api "ms-reservations/internal/waitlist/api"
	waitlist_db "ms-reservations/internal/waitlist/db"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Reservation Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if cfg.App.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		log.Info("DATABASE", "Schema migrations applied")
	}

	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Kafka.Brokers))

		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics()); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, lifecycle events will not be published")
	}

	gateway, err := booking.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.App.BaseURL, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Stripe gateway init failed: %v", err))
	}

	viewCache := cache.NewCache(redisClient, cfg.Redis.ViewTTL)
	qrGen := qr.NewGenerator(cfg.App.QRSecret)

	restaurantService := restaurant.NewService(restaurant_db.NewDB(bunDB), viewCache, log)
	waitlistService := waitlist.NewService(waitlist_db.NewDB(bunDB), kafkaPublisher(kafkaProducer), log)
	bookingService := booking.NewService(booking_db.NewDB(bunDB), gateway, kafkaPublisher(kafkaProducer), qrGen, log)

	restaurantHandler := restaurant_api.NewHandler(restaurantService, log)
	bookingHandler := booking_api.NewHandler(bookingService, log)
	waitlistHandler := waitlist_api.NewHandler(waitlistService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Stripe-Signature"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", restaurantHandler.ListRestaurants)
			r.Post("/", restaurantHandler.CreateRestaurant)
			r.Get("/user/{userId}", restaurantHandler.GetRestaurantByUser)
			r.Get("/{id}", restaurantHandler.GetRestaurant)
			r.Post("/{id}/availability", restaurantHandler.AddAvailability)
		})
		log.Info("ROUTER", "Restaurant routes registered under /api/restaurants")

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/available_dates", restaurantHandler.CreateAvailableDate)
			r.Get("/{restaurantId}/available_dates", restaurantHandler.ListAvailableDates)
		})
		log.Info("ROUTER", "Reservation routes registered under /api/reservations")

		r.Route("/stripe", func(r chi.Router) {
			r.Post("/create-checkout-session", bookingHandler.CreateCheckoutSession)
			r.Post("/webhook", bookingHandler.StripeWebhook)
		})
		log.Info("ROUTER", "Stripe routes registered under /api/stripe")

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/user", bookingHandler.ListUserBookings)
			r.Get("/restaurant-bookings", bookingHandler.ListRestaurantBookings)
			r.Get("/stripe/{id}", bookingHandler.GetBookingBySession)
			r.Get("/{id}", bookingHandler.GetBookingBySession)
			r.Get("/{id}/qr", bookingHandler.ConfirmationQR)
			// The storefront still posts to this doubled path.
			r.Post("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)
			r.Post("/{id}/cancel", bookingHandler.CancelBooking)
		})
		log.Info("ROUTER", "Booking routes registered under /api/bookings")

		r.Route("/waitlist", func(r chi.Router) {
			r.Post("/", waitlistHandler.Join)
			r.Get("/{restaurantId}", waitlistHandler.ListByRestaurant)
			r.Delete("/{id}", waitlistHandler.Remove)
		})
		log.Info("ROUTER", "Waitlist routes registered under /api/waitlist")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Reservation Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Reservation Service shutdown complete")
	}
}

// kafkaPublisher converts a possibly-nil producer into the publisher
// interface without producing a typed-nil.
func kafkaPublisher(p *kafka.Producer) booking.KafkaPublisher {
	if p == nil {
		return nil
	}
	return p
}
