package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist in the working directory. When none
// do, it retries from the nearest parent that holds a go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"logistics_mis"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable pool_max_conns=%d",
		d.Host, d.Port, d.User, d.Name, d.Password, d.MaxConns,
	)
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"logistics-mis"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	UploadRPM int    `env:"RATE_LIMIT_UPLOAD_RPM" envDefault:"30"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.GlobalRPS > 1000000 {
		return fmt.Errorf("rate limit GlobalRPS too high, maximum is 1,000,000, got %d", r.GlobalRPS)
	}
	if r.UploadRPM < 0 {
		return fmt.Errorf("rate limit UploadRPM must be non-negative, got %d", r.UploadRPM)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type IngestionOptions struct {
	MaxRows         int           `env:"INGEST_MAX_ROWS" envDefault:"500000"`
	BatchSize       int           `env:"INGEST_BATCH_SIZE" envDefault:"5000"`
	MappingsPath    string        `env:"INGEST_MAPPINGS_PATH"`
	RejectionSample int           `env:"INGEST_REJECTION_SAMPLE" envDefault:"100"`
	Timeout         time.Duration `env:"INGEST_TIMEOUT" envDefault:"10m"`
}

func (o *IngestionOptions) Validate() error {
	if o.MaxRows <= 0 {
		return fmt.Errorf("INGEST_MAX_ROWS must be positive, got %d", o.MaxRows)
	}
	if o.BatchSize <= 0 || o.BatchSize > 100_000 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be between 1 and 100000, got %d", o.BatchSize)
	}
	if o.RejectionSample < 0 {
		return fmt.Errorf("INGEST_REJECTION_SAMPLE must be non-negative, got %d", o.RejectionSample)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("INGEST_TIMEOUT must be positive, got %s", o.Timeout)
	}
	return nil
}

type Configuration struct {
	Database      DatabaseOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions
	Ingestion     IngestionOptions

	ServerPort         int      `env:"PORT" envDefault:"3200"`
	GoAppEnvironment   string   `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress      string   `env:"-"`
	UploadsPath        string   `env:"UPLOADS_PATH" envDefault:"uploads"`
	PageSize           int      `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize        int      `env:"MAX_PAGE_SIZE" envDefault:"100"`
	MaxUploadSize      int64    `env:"MAX_UPLOAD_SIZE" envDefault:"104857600"`
	MaxUploadMemory    int64    `env:"MAX_UPLOAD_MEMORY" envDefault:"33554432"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"error"`
	LogPath            string   `env:"LOG_PATH" envDefault:"./logs/app.log"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	// Looked up on every request; a random uuidv4 is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Falls back to request.RemoteAddr when absent.
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	return logging.ParseLevel(c.LogLevel)
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) validate() error {
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.Ingestion.Validate(); err != nil {
		return fmt.Errorf("ingestion configuration error: %w", err)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadSize)
	}
	if c.MaxUploadMemory <= 0 || c.MaxUploadMemory > c.MaxUploadSize {
		c.MaxUploadMemory = c.MaxUploadSize
	}
	if strings.TrimSpace(c.UploadsPath) == "" {
		return fmt.Errorf("UPLOADS_PATH must not be empty")
	}
	return nil
}

// Unload closes the log file.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
