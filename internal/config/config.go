package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string
	NatsURL        string
	KafkaBrokers   string
	PendingTTL     time.Duration

	MpesaBaseURL        string
	MpesaConsumerKey    string
	MpesaConsumerSecret string
	MpesaShortCode      string
	MpesaPasskey        string
	MpesaCallbackURL    string
}

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	ttl := 10 * time.Minute
	if v := os.Getenv("PENDING_TTL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	mpesaBase := os.Getenv("MPESA_BASE_URL")
	if mpesaBase == "" {
		mpesaBase = "https://sandbox.safaricom.co.ke"
	}

	return &Config{
		Port:           port,
		DatabaseDriver: driver,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		NatsURL:        os.Getenv("NATS_URL"),
		KafkaBrokers:   os.Getenv("KAFKA_BROKERS"),
		PendingTTL:     ttl,

		MpesaBaseURL:        mpesaBase,
		MpesaConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		MpesaConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		MpesaShortCode:      os.Getenv("MPESA_SHORTCODE"),
		MpesaPasskey:        os.Getenv("MPESA_PASSKEY"),
		MpesaCallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
	}
}
