// Package config loads fully-typed configuration from the environment.
// Every service gets its own struct; nothing reads os.Getenv outside this package
// and cmd/api.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the root configuration for the API process.
type Config struct {
	Server   Server
	Database Database
	Payment  Payment
	SMTP     SMTP
	Storage  Storage
	Auth     Auth
}

// Server holds HTTP listener settings and the storefront base URL
// used for post-payment redirects.
type Server struct {
	Port      string
	ClientURL string
}

// Database holds the Postgres connection string.
type Database struct {
	URL string
}

// Payment holds hosted-checkout-form gateway credentials.
type Payment struct {
	APIKey      string
	SecretKey   string
	BaseURL     string
	Locale      string
	Currency    string
	CallbackURL string
}

// SMTP holds outbound mail relay settings.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Storage holds S3-compatible object storage settings for product images.
type Storage struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	CDNBaseURL string
	UseSSL     bool
}

// Auth holds admin back-office authentication settings.
type Auth struct {
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
}

// Load reads the configuration from the environment. It returns an error
// for missing required keys so the process fails at startup, not mid-request.
func Load() (*Config, error) {
	cfg := &Config{
		Server: Server{
			Port:      getenv("APP_PORT", "8080"),
			ClientURL: getenv("CLIENT_URL", "http://localhost:5173"),
		},
		Database: Database{
			URL: os.Getenv("DATABASE_URL"),
		},
		Payment: Payment{
			APIKey:      os.Getenv("PAYMENT_API_KEY"),
			SecretKey:   os.Getenv("PAYMENT_SECRET_KEY"),
			BaseURL:     getenv("PAYMENT_BASE_URL", "https://sandbox-api.iyzipay.com"),
			Locale:      getenv("PAYMENT_LOCALE", "tr"),
			Currency:    getenv("PAYMENT_CURRENCY", "TRY"),
			CallbackURL: os.Getenv("PAYMENT_CALLBACK_URL"),
		},
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", "siparis@butika.com"),
		},
		Storage: Storage{
			Endpoint:   os.Getenv("STORAGE_ENDPOINT"),
			AccessKey:  os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:  os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:     getenv("STORAGE_BUCKET", "butika-media"),
			CDNBaseURL: os.Getenv("CDN_BASE_URL"),
			UseSSL:     getenvBool("STORAGE_USE_SSL", true),
		},
		Auth: Auth{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Payment.APIKey == "" || cfg.Payment.SecretKey == "" {
		return nil, fmt.Errorf("PAYMENT_API_KEY and PAYMENT_SECRET_KEY are required")
	}
	if cfg.Payment.CallbackURL == "" {
		cfg.Payment.CallbackURL = "http://localhost:" + cfg.Server.Port + "/api/v1/payment/callback"
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
