package config

import (
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment. Load .env first
// (godotenv in main) if you keep settings in a file.
type Config struct {
	Port    string
	GinMode string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	ScrapeTimeout time.Duration
	ScrapeDelay   time.Duration
	Retention     time.Duration
	SummaryWindow time.Duration

	AlertInterval   time.Duration
	ScrapeInterval  time.Duration
	SummaryInterval time.Duration
	CleanupInterval time.Duration

	RateLimit int // API requests per hour per client
}

func Load() Config {
	return Config{
		Port:    getenv("PORT", "8080"),
		GinMode: os.Getenv("GIN_MODE"),

		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBName:     os.Getenv("DB_NAME"),

		SMTPHost:     getenv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:     getint("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("EMAIL_ADDRESS"),
		SMTPPassword: os.Getenv("EMAIL_PASSWORD"),
		SMTPFrom:     getenv("EMAIL_FROM", os.Getenv("EMAIL_ADDRESS")),

		ScrapeTimeout: getduration("SCRAPE_TIMEOUT", 10*time.Second),
		ScrapeDelay:   getduration("SCRAPE_DELAY", 2*time.Second),
		Retention:     time.Duration(getint("RETENTION_DAYS", 90)) * 24 * time.Hour,
		SummaryWindow: 7 * 24 * time.Hour,

		AlertInterval:   getduration("ALERT_INTERVAL", time.Hour),
		ScrapeInterval:  getduration("SCRAPE_INTERVAL", 6*time.Hour),
		SummaryInterval: getduration("SUMMARY_INTERVAL", 7*24*time.Hour),
		CleanupInterval: getduration("CLEANUP_INTERVAL", 7*24*time.Hour),

		RateLimit: getint("API_RATE_LIMIT", 100),
	}
}

// DatabaseDSN builds a URL-encoded postgres DSN; sslmode=disable for local
// development.
func (c Config) DatabaseDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
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

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
