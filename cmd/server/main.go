package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"godzillatours/internal/api"
	"godzillatours/internal/auth"
	"godzillatours/internal/config"
	"godzillatours/internal/repository"
	"godzillatours/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/robfig/cron/v3"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	vehicleRepo := repository.NewVehicleRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	jobRepo := repository.NewJobRepository(db)
	adminAuthRepo := repository.NewAdminAuthRepository(db)

	stripeService := service.NewStripeService(cfg.StripeSecretKey)
	senderService := service.NewSenderService(cfg.OperatorEmail, cfg.OperatorPhone)
	engine := service.NewAllocationService(vehicleRepo, availabilityRepo, bookingRepo, stripeService, senderService, cfg)
	jobService := service.NewJobService(jobRepo)
	adminAuthService := service.NewAdminAuthService(adminAuthRepo)

	// Seed the first dashboard account; idempotent across restarts.
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := adminAuthService.CreateAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	}

	bookingHandler := api.NewBookingHandler(engine)
	adminHandler := api.NewAdminHandler(vehicleRepo, availabilityRepo, bookingRepo, engine)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthService)
	stripeHandler := api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, bookingRepo)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/calendar", bookingHandler.Calendar).Methods("GET")
	r.HandleFunc("/api/offer", bookingHandler.Offer).Methods("POST")
	r.HandleFunc("/api/vehicles", bookingHandler.ListVehicles).Methods("GET")
	r.HandleFunc("/api/bookings/intent", bookingHandler.CreateDepositIntent).Methods("POST")
	r.HandleFunc("/api/bookings", bookingHandler.CreateBooking).Methods("POST")
	r.HandleFunc("/api/bookings/{id}", bookingHandler.GetBooking).Methods("GET")

	// Stripe webhook
	r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")

	// Admin endpoints (protected)
	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/register", adminAuthHandler.Register).Methods("POST")
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings/{id}", adminHandler.GetBooking).Methods("GET")
	admin.HandleFunc("/bookings/{id}/payment-acknowledged", adminHandler.SetPaymentAcknowledged).Methods("PUT")
	admin.HandleFunc("/vehicles", adminHandler.ListVehicles).Methods("GET")
	admin.HandleFunc("/vehicles", adminHandler.CreateVehicle).Methods("POST")
	admin.HandleFunc("/vehicles/{id}", adminHandler.GetVehicle).Methods("GET")
	admin.HandleFunc("/vehicles/{id}", adminHandler.UpdateVehicle).Methods("PUT")
	admin.HandleFunc("/vehicles/{id}/visibility", adminHandler.SetVehicleVisibility).Methods("PUT")
	admin.HandleFunc("/vehicles/{id}/availability", adminHandler.ListOpenDates).Methods("GET")
	admin.HandleFunc("/vehicles/{id}/availability", adminHandler.ToggleOpenDate).Methods("PUT")
	admin.HandleFunc("/slots", adminHandler.SetSlotInventory).Methods("PUT")

	// Background jobs: purge pending bookings whose payment never
	// completed and keep open dates consistent with the ledger.
	c := cron.New()
	c.AddFunc("*/30 * * * *", func() {
		if err := jobService.PurgeStalePendingBookings(2 * time.Hour); err != nil {
			log.Printf("Cron error: %v", err)
		}
	})
	c.AddFunc("*/10 * * * *", func() {
		if err := jobService.ReconcileOpenDates(); err != nil {
			log.Printf("Cron error: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Stripe-Signature"}),
	)

	log.Printf("Server running on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handlers.LoggingHandler(os.Stdout, corsHandler(r))))
}
