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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pesapal      PesapalConfig
	Sendgrid     SendgridConfig
	SMS          SMSConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"SOKOHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"SOKOHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOKOHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOKOHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SOKOHUB_DB_DSN"`
	Driver string `envconfig:"SOKOHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOKOHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"SOKOHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOKOHUB_DB_USER"`
	LegacyPassword string `envconfig:"SOKOHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOKOHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOKOHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOKOHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOKOHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOKOHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOKOHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOKOHUB_REDIS_URL" required:"true"`
	Password     string        `envconfig:"SOKOHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOKOHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOKOHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOKOHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOKOHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOKOHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOKOHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOKOHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOKOHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOKOHUB_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token TTL configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PesapalConfig struct {
	// BaseURL overrides the environment-derived gateway URL when set.
	BaseURL         string        `envconfig:"SOKOHUB_PESAPAL_BASE_URL"`
	ConsumerKey     string        `envconfig:"SOKOHUB_PESAPAL_CONSUMER_KEY"`
	ConsumerSecret  string        `envconfig:"SOKOHUB_PESAPAL_CONSUMER_SECRET"`
	CallbackURL     string        `envconfig:"SOKOHUB_PESAPAL_CALLBACK_URL"`
	IPNID           string        `envconfig:"SOKOHUB_PESAPAL_IPN_ID"`
	IPNURL          string        `envconfig:"SOKOHUB_PESAPAL_IPN_URL"`
	Currency        string        `envconfig:"SOKOHUB_PESAPAL_CURRENCY" default:"KES"`
	Env             string        `envconfig:"SOKOHUB_PESAPAL_ENV" default:"sandbox"`
	HTTPTimeout     time.Duration `envconfig:"SOKOHUB_PESAPAL_HTTP_TIMEOUT" default:"10s"`
	AuthMaxAttempts int           `envconfig:"SOKOHUB_PESAPAL_AUTH_MAX_ATTEMPTS" default:"3"`
	AuthBackoffBase time.Duration `envconfig:"SOKOHUB_PESAPAL_AUTH_BACKOFF_BASE" default:"1s"`
}

// Environment returns the normalized Pesapal environment (sandbox/live).
func (p PesapalConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// IsLive reports whether callbacks should be delivered through a registered
// notification id. Sandbox traffic runs without one.
func (p PesapalConfig) IsLive() bool {
	switch p.Environment() {
	case "live", "production":
		return true
	}
	return false
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SOKOHUB_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SOKOHUB_SENDGRID_FROM_EMAIL"`
}

type SMSConfig struct {
	BaseURL     string        `envconfig:"SOKOHUB_SMS_BASE_URL" default:"https://api.africastalking.com/version1/messaging"`
	APIKey      string        `envconfig:"SOKOHUB_SMS_API_KEY"`
	Username    string        `envconfig:"SOKOHUB_SMS_USERNAME"`
	SenderID    string        `envconfig:"SOKOHUB_SMS_SENDER_ID"`
	HTTPTimeout time.Duration `envconfig:"SOKOHUB_SMS_HTTP_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SOKOHUB_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SOKOHUB_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SOKOHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// PollInterval returns the outbox poll cadence.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SOKOHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SOKOHUB_AUTO_MIGRATE" default:"false"`
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
