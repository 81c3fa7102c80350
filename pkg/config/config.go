package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	Vend    VendConfig
	Sync    SyncConfig
	Queue   QueueConfig
	Webhook WebhookConfig
	Ops     OpsConfig
	Audit   AuditConfig

	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOCKLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKLINK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOCKLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKLINK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKLINK_DB_DSN"`
	Driver string `envconfig:"STOCKLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKLINK_DB_USER"`
	LegacyPassword string `envconfig:"STOCKLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKLINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKLINK_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// VendConfig describes the remote point-of-sale API connection.
type VendConfig struct {
	BaseURL       string        `envconfig:"STOCKLINK_VEND_BASE_URL" required:"true"`
	Token         string        `envconfig:"STOCKLINK_VEND_TOKEN" required:"true"`
	WebhookSecret string        `envconfig:"STOCKLINK_VEND_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"STOCKLINK_VEND_TIMEOUT" default:"30s"`
	MaxRetries    int           `envconfig:"STOCKLINK_VEND_MAX_RETRIES" default:"3"`
	RetryBaseWait time.Duration `envconfig:"STOCKLINK_VEND_RETRY_BASE_WAIT" default:"500ms"`
	PageSize      int           `envconfig:"STOCKLINK_VEND_PAGE_SIZE" default:"200"`
}

type SyncConfig struct {
	BatchSize int           `envconfig:"STOCKLINK_SYNC_BATCH_SIZE" default:"100"`
	Interval  time.Duration `envconfig:"STOCKLINK_SYNC_INTERVAL" default:"15m"`
}

type QueueConfig struct {
	BatchSize      int           `envconfig:"STOCKLINK_QUEUE_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"STOCKLINK_QUEUE_POLL_MS" default:"1000"`
	MaxAttempts    int           `envconfig:"STOCKLINK_QUEUE_MAX_ATTEMPTS" default:"5"`
	LockTimeout    time.Duration `envconfig:"STOCKLINK_QUEUE_LOCK_TIMEOUT" default:"300s"`
}

type WebhookConfig struct {
	DedupeTTL time.Duration `envconfig:"STOCKLINK_WEBHOOK_DEDUPE_TTL" default:"720h"`
}

// OpsConfig guards the operational endpoints the retail UI and CLI call.
type OpsConfig struct {
	Token string `envconfig:"STOCKLINK_OPS_TOKEN"`
}

type AuditConfig struct {
	RetentionDays int `envconfig:"STOCKLINK_AUDIT_RETENTION_DAYS" default:"90"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOCKLINK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
