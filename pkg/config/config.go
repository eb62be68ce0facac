package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Calendar     CalendarConfig
	Sendgrid     SendgridConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string   `envconfig:"YARDOPS_APP_ENV" required:"true"`
	Port         string   `envconfig:"YARDOPS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"YARDOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"YARDOPS_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"YARDOPS_LOG_FORMAT" default:"json"`
	// MetricsAddr is the /metrics listener of the background binaries; the
	// API serves /metrics on its own router. Empty disables it.
	MetricsAddr string `envconfig:"YARDOPS_METRICS_ADDR" default:":9091"`
	CORSOrigins  []string `envconfig:"YARDOPS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"YARDOPS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"YARDOPS_DB_DSN"`
	Driver string `envconfig:"YARDOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"YARDOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"YARDOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"YARDOPS_DB_USER"`
	LegacyPassword string `envconfig:"YARDOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"YARDOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"YARDOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"YARDOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"YARDOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"YARDOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"YARDOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"YARDOPS_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"YARDOPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"YARDOPS_REDIS_ADDR"`
	Password     string        `envconfig:"YARDOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"YARDOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"YARDOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"YARDOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"YARDOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"YARDOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"YARDOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig validates admin tokens minted by the dashboard's auth service.
type JWTConfig struct {
	Secret            string        `envconfig:"YARDOPS_JWT_SECRET" required:"true"`
	Issuer            string        `envconfig:"YARDOPS_JWT_ISSUER" required:"true"`
	Audience          string        `envconfig:"YARDOPS_JWT_AUDIENCE"`
	ExpirationMinutes int           `envconfig:"YARDOPS_JWT_EXPIRATION_MINUTES" default:"60"`
	Leeway            time.Duration `envconfig:"YARDOPS_JWT_LEEWAY" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"YARDOPS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"YARDOPS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"YARDOPS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"YARDOPS_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"YARDOPS_PUBSUB_DOMAIN_TOPIC" default:"yardops-domain-events"`
	NotificationTopic        string `envconfig:"YARDOPS_PUBSUB_NOTIFICATION_TOPIC" default:"yardops-notification-events"`
	NotificationSubscription string `envconfig:"YARDOPS_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type CalendarConfig struct {
	CalendarID      string        `envconfig:"YARDOPS_CALENDAR_ID" default:"primary"`
	CredentialsJSON string        `envconfig:"YARDOPS_CALENDAR_CREDENTIALS_JSON"`
	TimeZone        string        `envconfig:"YARDOPS_CALENDAR_TIMEZONE" default:"America/Edmonton"`
	DefaultSlot     time.Duration `envconfig:"YARDOPS_CALENDAR_DEFAULT_SLOT" default:"30m"`
	RequestTimeout  time.Duration `envconfig:"YARDOPS_CALENDAR_REQUEST_TIMEOUT" default:"10s"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"YARDOPS_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"YARDOPS_SENDGRID_FROM_EMAIL"`
	Host        string `envconfig:"YARDOPS_SENDGRID_HOST" default:"https://api.sendgrid.com"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"YARDOPS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"YARDOPS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"YARDOPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"YARDOPS_OUTBOX_RETENTION" default:"720h"`
	DLQRetention   time.Duration `envconfig:"YARDOPS_OUTBOX_DLQ_RETENTION" default:"2160h"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"YARDOPS_CRON_INTERVAL" default:"15m"`
	LockTTL          time.Duration `envconfig:"YARDOPS_CRON_LOCK_TTL" default:"14m"`
	JobTimeout       time.Duration `envconfig:"YARDOPS_CRON_JOB_TIMEOUT" default:"5m"`
	RecoveryLookback time.Duration `envconfig:"YARDOPS_CRON_RECOVERY_LOOKBACK" default:"720h"`
	BatchSize        int           `envconfig:"YARDOPS_CRON_BATCH_SIZE" default:"100"`
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
