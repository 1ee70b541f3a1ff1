package params

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := LoadFromEnv(filepath.Join(dir, "missing.env"))

	def := Default()
	if !reflect.DeepEqual(cfg, def) {
		t.Fatalf("expected defaults\n got: %+v\nwant: %+v", cfg, def)
	}
}

func TestLoadFromEnvPriority(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "TSETMC_DOMAIN=from-file.example\n" +
		"TSETMC_TIMEOUT_MS=1500\n" +
		"FEED_INSTRUMENTS= 46348559193224090, ,35425587644337450\n" +
		"FEED_CONCURRENCY=8\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// godotenv never overrides variables that are already set
	t.Setenv("TSETMC_DOMAIN", "from-env.example")
	t.Setenv("FEED_INTERVAL_MS", "500")
	t.Setenv("API_ALLOWED_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("LOG_FILE", "")
	t.Setenv("VERBOSE", "true")
	t.Setenv("TSETMC_RETRIES", "not-a-number")

	// keys loaded from the file stay in the process environment
	for _, k := range []string{"TSETMC_TIMEOUT_MS", "FEED_INSTRUMENTS", "FEED_CONCURRENCY"} {
		k := k
		t.Cleanup(func() { os.Unsetenv(k) })
	}

	cfg := LoadFromEnv(envFile)

	if cfg.Tsetmc.Domain != "from-env.example" {
		t.Errorf("domain = %q", cfg.Tsetmc.Domain)
	}
	if cfg.Tsetmc.Timeout != 1500*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Tsetmc.Timeout)
	}
	if cfg.Tsetmc.Retries != Default().Tsetmc.Retries {
		t.Errorf("invalid retries should keep the default, got %d", cfg.Tsetmc.Retries)
	}
	if cfg.Feed.Interval != 500*time.Millisecond || cfg.Feed.Concurrency != 8 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	wantCodes := []string{"46348559193224090", "35425587644337450"}
	if !reflect.DeepEqual(cfg.Feed.Instruments, wantCodes) {
		t.Errorf("instruments = %v", cfg.Feed.Instruments)
	}
	if len(cfg.API.AllowedOrigins) != 2 || cfg.API.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("origins = %v", cfg.API.AllowedOrigins)
	}
	if cfg.Log.File != "" || !cfg.Log.Verbose {
		t.Errorf("log = %+v", cfg.Log)
	}
}
