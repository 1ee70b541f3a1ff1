package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Tsetmc struct {
	Domain  string
	Timeout time.Duration
	// Retries is the number of extra attempts after a connect timeout
	Retries int
	// TseClientURL is the SOAP endpoint of the instruments list
	TseClientURL string
}

type Feed struct {
	Interval    time.Duration
	Concurrency int
	// Instruments are TSETMC codes to watch
	Instruments []string
}

type API struct {
	Addr           string
	AllowedOrigins []string
}

type Log struct {
	File    string // empty logs to stdout only
	Verbose bool
}

type Config struct {
	Tsetmc Tsetmc
	Feed   Feed
	API    API
	Log    Log
}

func Default() Config {
	return Config{
		Tsetmc: Tsetmc{
			Domain:       "cdn.tsetmc.com",
			Timeout:      3 * time.Second,
			Retries:      1,
			TseClientURL: "http://service.tsetmc.com/WebService/TseClient.asmx",
		},
		Feed: Feed{
			Interval:    2 * time.Second,
			Concurrency: 4,
		},
		API: API{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log: Log{
			File: "data/tsewatch.log",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg.Tsetmc.Domain = getEnv("TSETMC_DOMAIN", cfg.Tsetmc.Domain)
	cfg.Tsetmc.Timeout = getEnvMillis("TSETMC_TIMEOUT_MS", cfg.Tsetmc.Timeout)
	cfg.Tsetmc.Retries = getEnvInt("TSETMC_RETRIES", cfg.Tsetmc.Retries)
	cfg.Tsetmc.TseClientURL = getEnv("TSECLIENT_URL", cfg.Tsetmc.TseClientURL)

	cfg.Feed.Interval = getEnvMillis("FEED_INTERVAL_MS", cfg.Feed.Interval)
	cfg.Feed.Concurrency = getEnvInt("FEED_CONCURRENCY", cfg.Feed.Concurrency)
	// Example: "46348559193224090,35425587644337450"
	if codes := os.Getenv("FEED_INSTRUMENTS"); codes != "" {
		cfg.Feed.Instruments = splitList(codes)
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("API_ALLOWED_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = splitList(origins)
	}

	if f, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.Log.File = f
	}
	if verbose := os.Getenv("VERBOSE"); verbose != "" {
		cfg.Log.Verbose = verbose == "true"
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if ms, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
