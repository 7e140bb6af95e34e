package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the server-side configuration shared by the API server, the
// migration CLI and the outbox publisher.
type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

// GatewayConfig is the configuration of the validating gateway.
type GatewayConfig struct {
	App       AppConfig
	Redis     RedisConfig
	Upstream  UpstreamConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		if cfg.App.IsProd() {
			return nil, fmt.Errorf("%s is not allowed in %s", EnvUseSQLite, AppEnvProd)
		}
		cfg.DB.Driver = DriverSQLite
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadGateway() (*GatewayConfig, error) {
	var cfg GatewayConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing gateway config: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.Upstream.ServerURL); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvServerURL, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHAREIT_APP_ENV" required:"true"`
	Port         string `envconfig:"SHAREIT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHAREIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHAREIT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"SHAREIT_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"SHAREIT_CORS_ORIGINS" default:"http://localhost:3000"`
}

// ConsoleLogs reports whether logs should be rendered for humans.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(a.LogFormat, "console")
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"SHAREIT_DB_DSN"`
	Driver     string `envconfig:"SHAREIT_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"SHAREIT_DB_SQLITE_PATH" default:"shareit.db"`

	Host     string `envconfig:"SHAREIT_DB_HOST"`
	Port     int    `envconfig:"SHAREIT_DB_PORT" default:"5432"`
	User     string `envconfig:"SHAREIT_DB_USER"`
	Password string `envconfig:"SHAREIT_DB_PASSWORD"`
	Name     string `envconfig:"SHAREIT_DB_NAME"`
	SSLMode  string `envconfig:"SHAREIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHAREIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHAREIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHAREIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHAREIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHAREIT_REDIS_URL"`
	Address      string        `envconfig:"SHAREIT_REDIS_ADDR"`
	Password     string        `envconfig:"SHAREIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHAREIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHAREIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHAREIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHAREIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHAREIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHAREIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type IdempotencyConfig struct {
	Enabled bool          `envconfig:"SHAREIT_IDEMPOTENCY_ENABLED" default:"false"`
	TTL     time.Duration `envconfig:"SHAREIT_IDEMPOTENCY_TTL" default:"24h"`
}

type UpstreamConfig struct {
	ServerURL string        `envconfig:"SHAREIT_SERVER_URL" default:"http://localhost:9090"`
	Timeout   time.Duration `envconfig:"SHAREIT_SERVER_TIMEOUT" default:"10s"`
}

type RateLimitConfig struct {
	Enabled bool          `envconfig:"SHAREIT_RATE_LIMIT_ENABLED" default:"false"`
	Window  time.Duration `envconfig:"SHAREIT_RATE_LIMIT_WINDOW" default:"1m"`
	Limit   int           `envconfig:"SHAREIT_RATE_LIMIT_PER_USER" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHAREIT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHAREIT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SHAREIT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	BookingsTopic string `envconfig:"SHAREIT_PUBSUB_BOOKINGS_TOPIC" default:"shareit-booking-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHAREIT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHAREIT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHAREIT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	BookingExpiryEvery   time.Duration `envconfig:"SHAREIT_CRON_BOOKING_EXPIRY_EVERY" default:"5m"`
	OutboxRetentionEvery time.Duration `envconfig:"SHAREIT_CRON_OUTBOX_RETENTION_EVERY" default:"24h"`
	OutboxRetentionDays  int           `envconfig:"SHAREIT_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

// PollInterval converts the configured poll interval into a duration.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
