package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	NotifierLog   = "log"
	NotifierSMTP  = "smtp"
	NotifierQueue = "queue"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside dev/test")

type Config struct {
	Env         string
	Port        int
	ServiceName string

	// storage
	StoreDriver string
	MongoURI    string
	MongoDB     string
	DBURL       string

	// redis mail queue
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MailQueueKey  string

	// mail worker
	WorkerConcurrency int
	WorkerHealthAddr  string

	// notifications
	Notifier              string
	SMTPHost              string
	SMTPPort              int
	SMTPUser              string
	SMTPPassword          string
	MailFromVerification  string
	MailFromSecurity      string
	ResetPasswordURL      string
	DispatchQueueSize     int
	DispatchWorkers       int
	NotifierTimeout       time.Duration
	NotifierFailThreshold int
	NotifierCooldown      time.Duration

	// tokens
	JWTSecret            string
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	OTPLength            int
	ReaperInterval       time.Duration

	// seeded admin
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// http
	CORSOrigins     []string
	MaxBodyBytes    int64
	RateLimit       int
	RateLimitWindow time.Duration
	AppInfoCacheTTL time.Duration
	OTELEndpoint    string
	TracingEnabled  bool
}

func Load() Config {
	// a missing .env is fine, the process env wins anyway
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8000),
		ServiceName: getEnv("SERVICE_NAME", "reviewhub-api"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:    getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:     getEnv("MONGO_DB", "review_app"),
		DBURL:       buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		MailQueueKey:  getEnv("MAIL_QUEUE_KEY", "reviewhub:mail"),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerHealthAddr:  getEnv("WORKER_HEALTH_ADDR", ":8081"),

		Notifier:              strings.ToLower(getEnv("NOTIFIER", NotifierLog)),
		SMTPHost:              getEnv("SMTP_HOST", "smtp.mailtrap.io"),
		SMTPPort:              getEnvInt("SMTP_PORT", 2525),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		MailFromVerification:  getEnv("MAIL_FROM_VERIFICATION", "verification@reviewapp.com"),
		MailFromSecurity:      getEnv("MAIL_FROM_SECURITY", "security@reviewapp.com"),
		ResetPasswordURL:      getEnv("RESET_PASSWORD_URL", "http://localhost:3000/auth/reset-password"),
		DispatchQueueSize:     getEnvInt("DISPATCH_QUEUE_SIZE", 256),
		DispatchWorkers:       getEnvInt("DISPATCH_WORKERS", 2),
		NotifierTimeout:       getEnvDuration("NOTIFIER_TIMEOUT", 5*time.Second),
		NotifierFailThreshold: getEnvInt("NOTIFIER_FAILURE_THRESHOLD", 3),
		NotifierCooldown:      getEnvDuration("NOTIFIER_COOLDOWN", 15*time.Second),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		VerificationTokenTTL: getEnvDuration("VERIFICATION_TOKEN_TTL", time.Hour),
		ResetTokenTTL:        getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		OTPLength:            getEnvInt("OTP_LENGTH", 6),
		ReaperInterval:       getEnvDuration("TOKEN_REAPER_INTERVAL", time.Minute),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),

		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		RateLimit:       getEnvInt("RATE_LIMIT", 10),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		AppInfoCacheTTL: getEnvDuration("APP_INFO_CACHE_TTL", 5*time.Second),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TracingEnabled:  getEnv("TRACING_ENABLED", "false") == "true",
	}
}

// Validate reports configuration that would leave the service insecure.
func (c Config) Validate() error {
	if c.JWTSecret == "" && c.Env != "dev" && c.Env != "test" {
		return ErrMissingJWTSecret
	}

	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.Notifier {
	case NotifierLog, NotifierSMTP, NotifierQueue:
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}

	return nil
}

// SigningSecret falls back to a fixed development secret so `make run` works locally.
func (c Config) SigningSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return "dev-only-signing-secret"
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "reviewhub")
	pass := getEnv("DB_PASSWORD", "reviewhub")
	name := getEnv("DB_NAME", "reviewhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a unit of work, keeping the parent's values (request id, trace span).
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
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
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an int, using %d\n", key, v, fallback)
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
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a duration, using %s\n", key, v, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
