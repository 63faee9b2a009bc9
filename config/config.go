package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Gateway  GatewayConfig
	Checkout CheckoutConfig
	Firebase FirebaseConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// GatewayConfig points at the mobile-money charge endpoints hosted by the storefront backend.
type GatewayConfig struct {
	Mode          string // "http" or "stub"
	ChargeURL     string
	ChargeOTPURL  string
	ChargeVerify  string
	WebhookSecret string
	Timeout       time.Duration
}

type CheckoutConfig struct {
	VerifyCooldown time.Duration
	SessionTTL     time.Duration
	SuccessPath    string
	Currency       string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8099"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 40 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "storefront:storefront@tcp(localhost:3306)/storefront?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "storefront",
		},
		Gateway: GatewayConfig{
			Mode:          getEnv("GATEWAY_MODE", "http"),
			ChargeURL:     getEnvAny("", "CHARGE_API", "NEXT_PUBLIC_CHARGE_API"),
			ChargeOTPURL:  getEnvAny("", "CHARGE_API_OTP", "NEXT_PUBLIC_CHARGE_API_OTP"),
			ChargeVerify:  getEnvAny("", "CHARGE_API_VERIFY", "NEXT_PUBLIC_CHARGE_API_VERIFY"),
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			Timeout:       getEnvAsDuration("GATEWAY_TIMEOUT", 30*time.Second),
		},
		Checkout: CheckoutConfig{
			VerifyCooldown: getEnvAsDuration("CHECKOUT_VERIFY_COOLDOWN", 15*time.Second),
			SessionTTL:     getEnvAsDuration("CHECKOUT_SESSION_TTL", 30*time.Minute),
			SuccessPath:    getEnv("CHECKOUT_SUCCESS_PATH", "/checkout/success"),
			Currency:       "GHS",
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAny returns the first non-empty value among keys.
func getEnvAny(defaultValue string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
