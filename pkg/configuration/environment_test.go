package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "LOGISTICS_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "pkg", "crud")
	requireMkdirAll(t, sub)

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(sub); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	_ = os.Unsetenv("LOGISTICS_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("LOGISTICS_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded from repo root, got %q", got)
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func validConfiguration() *Configuration {
	return &Configuration{
		RateLimit:       RateLimitOptions{GlobalRPS: 10, UploadRPM: 5, Storage: "memory"},
		Ingestion:       IngestionOptions{MaxRows: 500000, BatchSize: 5000, RejectionSample: 100, Timeout: time.Minute},
		MaxUploadSize:   1 << 20,
		MaxUploadMemory: 1 << 30,
		UploadsPath:     "uploads",
	}
}

func TestConfiguration_Validate(t *testing.T) {
	c := validConfiguration()
	if err := c.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.MaxUploadMemory != c.MaxUploadSize {
		t.Fatalf("expected upload memory capped at %d, got %d", c.MaxUploadSize, c.MaxUploadMemory)
	}

	cases := map[string]func(c *Configuration){
		"zero batch":      func(c *Configuration) { c.Ingestion.BatchSize = 0 },
		"huge batch":      func(c *Configuration) { c.Ingestion.BatchSize = 200_000 },
		"zero max rows":   func(c *Configuration) { c.Ingestion.MaxRows = 0 },
		"negative sample": func(c *Configuration) { c.Ingestion.RejectionSample = -1 },
		"zero timeout":    func(c *Configuration) { c.Ingestion.Timeout = 0 },
		"redis no url":    func(c *Configuration) { c.RateLimit.Storage = "redis" },
		"bad storage":     func(c *Configuration) { c.RateLimit.Storage = "disk" },
		"empty uploads":   func(c *Configuration) { c.UploadsPath = " " },
	}
	for name, mutate := range cases {
		c := validConfiguration()
		mutate(c)
		if err := c.validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestIngestionOptions_EnvDefaults(t *testing.T) {
	t.Setenv("INGEST_BATCH_SIZE", "250")
	var o IngestionOptions
	if err := env.Parse(&o); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.BatchSize != 250 || o.MaxRows != 500000 || o.Timeout != 10*time.Minute {
		t.Fatalf("unexpected options: %+v", o)
	}
}
