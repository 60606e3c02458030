package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the merged view of file, environment, and default settings.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Admission    AdmissionConfig
	Subscription SubscriptionConfig
	Plans        map[string]PlanConfig
}

// LogConfig selects the log level, encoding, and destination.
type LogConfig struct {
	Level  string // one of debug, info, warn, error, fatal
	Format string // "json" or "console"
	Output string // "stdout", "stderr", or a file path
}

// AppConfig names the service and picks its environment and listen port.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig describes the postgres connection and its pool limits.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

// RedisConfig describes the redis connection used for locks and caching.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig tunes the server and its middleware chain.
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// AdmissionConfig holds admission control settings
type AdmissionConfig struct {
	// LockTimeout bounds how long one admission request may wait on a
	// user's critical section before failing busy.
	LockTimeout time.Duration
}

// SubscriptionConfig holds subscription tracking settings
type SubscriptionConfig struct {
	// GracePeriod is how long a past-due subscription keeps its prior
	// plan's limits before degrading to zero capability.
	GracePeriod time.Duration
}

// PlanConfig overrides one plan tier's limits. Zero values fall back to the
// built-in catalog defaults for that tier.
type PlanConfig struct {
	MaxConcurrentJobs int
	PeriodQuota       int64
	PeriodLength      time.Duration
	MonthlyPrice      string
}

// Load merges config.toml, LEADSCOUT_-prefixed environment variables, and
// built-in defaults, in increasing order of precedence for the first two.
// LEADSCOUT_DATABASE_PASSWORD beats the file; the file beats defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// A missing file is fine; env vars and defaults still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Admission: AdmissionConfig{
			LockTimeout: v.GetDuration("admission.lock_timeout"),
		},
		Subscription: SubscriptionConfig{
			GracePeriod: v.GetDuration("subscription.grace_period"),
		},
		Plans: loadPlanOverrides(v),
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadPlanOverrides reads [plans.<tier>] tables from the config file.
// Environment variables do not override individual plan limits.
func loadPlanOverrides(v *viper.Viper) map[string]PlanConfig {
	overrides := make(map[string]PlanConfig)
	raw := v.GetStringMap("plans")
	for tier := range raw {
		key := "plans." + tier
		overrides[tier] = PlanConfig{
			MaxConcurrentJobs: v.GetInt(key + ".max_concurrent_jobs"),
			PeriodQuota:       v.GetInt64(key + ".period_quota"),
			PeriodLength:      v.GetDuration(key + ".period_length"),
			MonthlyPrice:      v.GetString(key + ".monthly_price"),
		}
	}
	return overrides
}

// fallback assigns value to field only when field still holds its zero value.
func fallback[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// applyDefaults fills every field the file and environment left unset.
func applyDefaults(cfg *Config) {
	fallback(&cfg.App.Name, "leadscout-backend")
	fallback(&cfg.App.Env, "development")
	fallback(&cfg.App.Port, "8080")

	fallback(&cfg.Database.Host, "localhost")
	fallback(&cfg.Database.Port, 5432)
	fallback(&cfg.Database.User, "postgres")
	fallback(&cfg.Database.DBName, "leadscout")
	fallback(&cfg.Database.SSLMode, "disable")
	fallback(&cfg.Database.MaxOpenConns, 25)
	fallback(&cfg.Database.MaxIdleConns, 5)
	fallback(&cfg.Database.ConnMaxLifetime, 60)
	fallback(&cfg.Database.ConnMaxIdleTime, 30)

	fallback(&cfg.Redis.Host, "localhost")
	fallback(&cfg.Redis.Port, 6379)

	fallback(&cfg.Log.Level, "info")
	fallback(&cfg.Log.Format, "console")
	fallback(&cfg.Log.Output, "stdout")

	fallback(&cfg.HTTP.ReadTimeout, 15*time.Second)
	fallback(&cfg.HTTP.WriteTimeout, 15*time.Second)
	fallback(&cfg.HTTP.IdleTimeout, 60*time.Second)
	fallback(&cfg.HTTP.MaxHeaderBytes, 1<<20)
	fallback(&cfg.HTTP.MaxBodySize, 1<<20) // admission payloads are small
	fallback(&cfg.HTTP.RateLimitRequests, 100)
	fallback(&cfg.HTTP.RateLimitWindow, time.Minute)

	// CORS origins deliberately have no "*" fallback. An empty list keeps
	// cross-origin requests blocked until someone configures the origins.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-User-ID"}
	}

	fallback(&cfg.Admission.LockTimeout, 5*time.Second)
	fallback(&cfg.Subscription.GracePeriod, 72*time.Hour)

	if cfg.Plans == nil {
		cfg.Plans = make(map[string]PlanConfig)
	}
}

// validate rejects configurations no deployment should run with.
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return errors.New("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Admission.LockTimeout < 0 {
		return errors.New("admission.lock_timeout cannot be negative")
	}
	if c.Subscription.GracePeriod < 0 {
		return errors.New("subscription.grace_period cannot be negative")
	}

	for tier, plan := range c.Plans {
		if plan.MaxConcurrentJobs < 0 {
			return fmt.Errorf("plans.%s.max_concurrent_jobs cannot be negative", tier)
		}
		if plan.PeriodQuota < 0 {
			return fmt.Errorf("plans.%s.period_quota cannot be negative", tier)
		}
		if plan.PeriodLength < 0 {
			return fmt.Errorf("plans.%s.period_length cannot be negative", tier)
		}
	}

	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

// validateProduction enforces the settings production refuses to start
// without.
func (c *Config) validateProduction() error {
	if c.Database.Password == "" {
		return errors.New("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return errors.New("database.sslmode cannot be 'disable' in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return errors.New("cors_allow_origins cannot be '*' in production (use specific origins)")
		}
	}
	return nil
}

// DSN renders the connection string as a postgres URL, escaping the
// credentials.
func (d *DatabaseConfig) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return dsn.String()
}
