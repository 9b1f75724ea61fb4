package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Mail      MailConfig
	Storage   StorageConfig
	Nonprofit NonprofitConfig
	Outbox    OutboxConfig
	Donation  DonationConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port          string
	Env           string
	FrontendURL   string
	PublicBaseURL string
}

// IsProduction reports whether test-card branches and stack traces are disabled.
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret        string
	SessionExpiry time.Duration
}

// PaymentConfig holds payment gateway configuration
type PaymentConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	// APIBaseURL overrides the gateway endpoint (stripe-mock, tests).
	APIBaseURL       string
	AllowTestCards   bool
	SyntheticDelay   time.Duration
	NetFeePercentage float64
	NetFeeFixedCents int64
}

// MailConfig holds outbound email configuration
type MailConfig struct {
	Transport    string
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	KafkaBrokers []string
	KafkaTopic   string
}

// StorageConfig holds receipt document storage configuration
type StorageConfig struct {
	Driver        string
	LocalDir      string
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	PublicBaseURL string
}

// NonprofitConfig holds the issuing organisation printed on receipts
type NonprofitConfig struct {
	Name    string
	EIN     string
	Address string
}

// OutboxConfig holds side-effect retry configuration
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	LockTimeout  time.Duration
}

// DonationConfig holds donation lifecycle configuration
type DonationConfig struct {
	PendingExpiry time.Duration
	SweepInterval time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("SERVER_ENV", "development")
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Env:           env,
			FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "gradvillage"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			SessionExpiry: getEnvAsDuration("JWT_SESSION_EXPIRY", 24*time.Hour),
		},
		Payment: PaymentConfig{
			SecretKey:        getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:         strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
			APIBaseURL:       getEnv("STRIPE_API_BASE_URL", ""),
			AllowTestCards:   getEnvAsBool("PAYMENT_ALLOW_TEST_CARDS", !strings.EqualFold(env, "production")),
			SyntheticDelay:   getEnvAsDuration("PAYMENT_SYNTHETIC_DELAY", time.Second),
			NetFeePercentage: getEnvAsFloat("PAYMENT_FEE_PERCENTAGE", 2.9),
			NetFeeFixedCents: int64(getEnvAsInt("PAYMENT_FEE_FIXED_CENTS", 30)),
		},
		Mail: MailConfig{
			Transport:    strings.ToLower(getEnv("MAIL_TRANSPORT", "log")),
			From:         getEnv("MAIL_FROM", "GradVillage <no-reply@gradvillage.org>"),
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			KafkaBrokers: getEnvAsList("MAIL_KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:   getEnv("MAIL_KAFKA_TOPIC", "notifications.email"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			LocalDir:      getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			S3Bucket:      getEnv("S3_BUCKET", ""),
			S3Region:      getEnv("S3_REGION", "us-east-1"),
			S3Prefix:      getEnv("S3_PREFIX", "receipts"),
			PublicBaseURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", ""), "/"),
		},
		Nonprofit: NonprofitConfig{
			Name:    getEnv("NONPROFIT_NAME", "GradVillage Foundation"),
			EIN:     getEnv("NONPROFIT_EIN", "00-0000000"),
			Address: getEnv("NONPROFIT_ADDRESS", ""),
		},
		Outbox: OutboxConfig{
			PollInterval: getEnvAsDuration("OUTBOX_POLL_INTERVAL", 15*time.Second),
			BatchSize:    getEnvAsInt("OUTBOX_BATCH_SIZE", 50),
			MaxAttempts:  getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 8),
			BaseBackoff:  getEnvAsDuration("OUTBOX_BASE_BACKOFF", 30*time.Second),
			MaxBackoff:   getEnvAsDuration("OUTBOX_MAX_BACKOFF", time.Hour),
			LockTimeout:  getEnvAsDuration("OUTBOX_LOCK_TIMEOUT", 2*time.Minute),
		},
		Donation: DonationConfig{
			PendingExpiry: getEnvAsDuration("DONATION_PENDING_EXPIRY", 24*time.Hour),
			SweepInterval: getEnvAsDuration("DONATION_SWEEP_INTERVAL", 10*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
