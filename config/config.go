/*
Package config loads runtime configuration for every entry point.

SOURCES (later wins):
  1. Defaults in the struct tags below
  2. A .env file in the working directory, when present
  3. Process environment

The CLI applies its flags on top of the loaded Config for one-shot runs.

SEE ALSO:
  - cmd/server, cmd/export, cmd/worker: Consumers
  - rotacloud/client.go: What the ROTACLOUD_* values configure
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/metrics"
	"github.com/warp/payroll-export/payroll"
	"github.com/warp/payroll-export/rotacloud"
)

// Config holds runtime configuration.
type Config struct {
	RotaCloudAPIKey  string        `envconfig:"ROTACLOUD_API_KEY"`
	RotaCloudBaseURL string        `envconfig:"ROTACLOUD_BASE_URL" default:"https://api.rotacloud.com/v1" validate:"url"`
	RotaCloudTimeout time.Duration `envconfig:"ROTACLOUD_TIMEOUT" default:"30s" validate:"gt=0"`

	Timezone     string          `envconfig:"PAYROLL_TIMEZONE" default:"Europe/London"`
	OvertimeRate decimal.Decimal `envconfig:"PAYROLL_OVERTIME_RATE" default:"12.21"`
	IgnoredUsers string          `envconfig:"PAYROLL_IGNORED_USERS"`
	Concurrency  int             `envconfig:"PAYROLL_CONCURRENCY" default:"4" validate:"min=1,max=32"`
	OutputDir    string          `envconfig:"PAYROLL_OUTPUT_DIR" default:"."`

	DBPath string `envconfig:"DB_PATH" default:"payroll.db"`
	Port   int    `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`

	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"5m" validate:"gt=0"`
	RoleCacheTTL time.Duration `envconfig:"ROLE_CACHE_TTL" default:"10m" validate:"gt=0"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=json text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	SchedulerEnabled  bool          `envconfig:"SCHEDULER_ENABLED" default:"false"`
	SchedulerInterval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"1h" validate:"gt=0"`

	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10" validate:"min=0"`
	CORSOrigins        []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load reads .env (if present) and the environment, then validates.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks ranges, enumerations and the timezone.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return err
	}
	if c.OvertimeRate.IsNegative() {
		return fmt.Errorf("invalid configuration: OvertimeRate must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location resolves the payroll timezone.
func (c *Config) Location() (*time.Location, error) {
	return generic.LoadLocation(c.Timezone)
}

// Ignored returns the employees excluded from every run by default.
func (c *Config) Ignored() []payroll.EmployeeID {
	return payroll.ParseEmployeeIDs(c.IgnoredUsers)
}

// RunRequest returns the default request for p: configured exclusions,
// overtime rate and concurrency.
func (c *Config) RunRequest(p generic.Period) payroll.RunRequest {
	req := payroll.NewRunRequest(p)
	req.ExcludedEmployees = c.Ignored()
	req.OvertimeRate = c.OvertimeRate
	req.Concurrency = c.Concurrency
	return req
}

// RedisOptions returns nil when Redis is disabled.
func (c *Config) RedisOptions() *redis.Options {
	if c.RedisAddr == "" {
		return nil
	}
	return &redis.Options{Addr: c.RedisAddr}
}

// RotaCloud returns the client configuration shared by every run. The API
// key is left empty: it arrives per run.
func (c *Config) RotaCloud(shared rotacloud.Cache, m *metrics.Metrics, logger *slog.Logger) rotacloud.Config {
	return rotacloud.Config{
		BaseURL: c.RotaCloudBaseURL,
		Timeout: c.RotaCloudTimeout,
		TTL:     c.CacheTTL,
		RoleTTL: c.RoleCacheTTL,
		Shared:  shared,
		Metrics: m,
		Logger:  logger,
	}
}

// =============================================================================
// LOGGING
// =============================================================================

// NewLogger returns a JSON or text slog.Logger at the given level.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, Level: ParseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
