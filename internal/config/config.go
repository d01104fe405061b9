package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	SessionTTL time.Duration

	// mail
	MailDriver string // "log" | "smtp"
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	MailFrom   string
	BaseURL    string // link prefix in tokenized emails

	AllowedOrigins []string
	OTLPEndpoint   string
}

func Load() Config {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),

		MailDriver: getEnv("MAIL_DRIVER", "log"),
		SMTPHost:   getEnv("SMTP_HOST", "127.0.0.1"),
		SMTPPort:   getEnvInt("SMTP_PORT", 587),
		SMTPUser:   getEnv("SMTP_USER", ""),
		SMTPPass:   getEnv("SMTP_PASS", ""),
		MailFrom:   getEnv("MAIL_FROM", "no-reply@accounthub.local"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),

		AllowedOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	// empty DB_HOST means "run without postgres" (memory store)
	host := getEnv("DB_HOST", "")

	if host == "" {
		return ""
	}

	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "accounthub")
	pass := getEnv("DB_PASSWORD", "accounthub")
	name := getEnv("DB_NAME", "accounthub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}
