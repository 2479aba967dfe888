package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"godzillatours/internal/pricing"
)

// Config carries everything the server reads from the environment.
// The two cutoff hours are deliberately separate settings: the
// nomination cutoff closes specific-car choice on the day itself while
// still allowing random assignment; the closure cutoff closes the date
// entirely. Both have changed over the life of the business, so neither
// is hard-coded.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	StripeSecretKey     string
	StripeWebhookSecret string

	// NominationCutoffHour is the local hour from which specific vehicles
	// can no longer be nominated for a same-day booking.
	NominationCutoffHour int
	// ClosureCutoffHour is the local hour from which the current date is
	// closed for any new booking.
	ClosureCutoffHour int

	// DepositUnit is the yen charged online per required car.
	DepositUnit int

	// OperatorEmail receives the admin copy of booking notifications.
	OperatorEmail string
	OperatorPhone string

	// AdminEmail/AdminPassword seed the first dashboard account at
	// startup; further admins register through the protected endpoint.
	AdminEmail    string
	AdminPassword string

	Location *time.Location
}

// Load reads the configuration from the environment. Only DATABASE_URL
// is mandatory; everything else has a default or degrades to a logged
// warning in the component that needs it.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}

	loc, err := time.LoadLocation(envOr("TOUR_TIMEZONE", "Asia/Tokyo"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOUR_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Port:                 envOr("PORT", "8080"),
		DatabaseURL:          dbURL,
		JWTSecret:            os.Getenv("JWT_SECRET"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		NominationCutoffHour: envIntOr("NOMINATION_CUTOFF_HOUR", 1),
		ClosureCutoffHour:    envIntOr("CLOSURE_CUTOFF_HOUR", 15),
		DepositUnit:          envIntOr("DEPOSIT_UNIT_JPY", pricing.DefaultDepositUnit),
		OperatorEmail:        os.Getenv("OPERATOR_EMAIL"),
		OperatorPhone:        os.Getenv("OPERATOR_PHONE"),
		AdminEmail:           os.Getenv("ADMIN_EMAIL"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
		Location:             loc,
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
