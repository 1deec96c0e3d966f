package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string
	ServerPort     string
	Environment    string
	TimeZone       *time.Location
	PageSize       int
	CORSOrigins    []string

	JWTSecret          string
	JWTAccessExpiry    time.Duration
	JWTRefreshExpiry   time.Duration
	ConfirmationSecret string

	Mail MailConfig

	// Rate limiting (auth endpoints)
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	RateLimitBlockTime   time.Duration

	CSV CSVConfig
}

type MailConfig struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	From     string
	QueueKey string
}

// CSVConfig describes where the bulk loader reads its files from.
// Bucket takes precedence over Dir when both are set.
type CSVConfig struct {
	Dir             string
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("SERVER_PORT", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("TIME_ZONE", "UTC")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("JWT_ACCESS_EXPIRY", "168h")
	v.SetDefault("JWT_REFRESH_EXPIRY", "24h")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_FROM", "no-reply@yamdb.com")
	v.SetDefault("MAIL_QUEUE_KEY", "mail:outbox")
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_BLOCK_TIME", "5m")
	v.SetDefault("CSV_DIR", "static/data")
	v.SetDefault("AWS_REGION", "us-east-1")
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (Docker containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	loc, err := time.LoadLocation(v.GetString("TIME_ZONE"))
	if err != nil {
		log.Printf("Invalid TIME_ZONE %q, using UTC", v.GetString("TIME_ZONE"))
		loc = time.UTC
	}

	pageSize := v.GetInt("PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 10
	}

	confirmationSecret := v.GetString("CONFIRMATION_SECRET")
	if confirmationSecret == "" {
		confirmationSecret = v.GetString("JWT_SECRET")
	}

	cfg := &Config{
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		RedisURL:       v.GetString("REDIS_URL"),
		ServerPort:     v.GetString("SERVER_PORT"),
		Environment:    v.GetString("ENVIRONMENT"),
		TimeZone:       loc,
		PageSize:       pageSize,
		CORSOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTAccessExpiry:    getDuration(v, "JWT_ACCESS_EXPIRY", 7*24*time.Hour),
		JWTRefreshExpiry:   getDuration(v, "JWT_REFRESH_EXPIRY", 24*time.Hour),
		ConfirmationSecret: confirmationSecret,

		Mail: MailConfig{
			SMTPHost: v.GetString("SMTP_HOST"),
			SMTPPort: v.GetInt("SMTP_PORT"),
			SMTPUser: v.GetString("SMTP_USER"),
			SMTPPass: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
			QueueKey: v.GetString("MAIL_QUEUE_KEY"),
		},

		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitWindow:      getDuration(v, "RATE_LIMIT_WINDOW", time.Minute),
		RateLimitBlockTime:   getDuration(v, "RATE_LIMIT_BLOCK_TIME", 5*time.Minute),

		CSV: CSVConfig{
			Dir:             v.GetString("CSV_DIR"),
			Bucket:          v.GetString("CSV_S3_BUCKET"),
			Prefix:          v.GetString("CSV_S3_PREFIX"),
			Region:          v.GetString("AWS_REGION"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		},
	}

	return cfg
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Now returns the current time in the configured time zone
func (c *Config) Now() time.Time {
	if c.TimeZone == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.TimeZone)
}

// getDuration retrieves a duration value, falling back to the default on parse errors
func getDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	raw := v.GetString(key)
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		return defaultVal
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
