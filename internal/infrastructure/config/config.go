package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Shiprocket ShiprocketConfig
	Returns    ReturnsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. Redis backs the shared
// logistics token cache; when Enabled is false an in-process cache is used.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// ShiprocketConfig holds the logistics provider credentials and the return
// address used for reverse pickups. All fields are overridable through the
// SHIPROCKET_* environment variables the upstream platform uses.
type ShiprocketConfig struct {
	BaseURL        string
	Email          string
	Password       string
	WebhookSecret  string
	PickupLocation string
	AutoForward    bool

	ReturnName    string
	ReturnPhone   string
	ReturnAddress string
	ReturnCity    string
	ReturnState   string
	ReturnCountry string
	ReturnPincode string

	DefaultLength  float64
	DefaultBreadth float64
	DefaultHeight  float64
	DefaultWeight  float64
}

// ReturnsConfig holds return-flow settings
type ReturnsConfig struct {
	WindowDays        int
	BankEncryptionKey string // base64, decodes to 32 bytes
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables (RETURNS_ prefix, plus the upstream SHIPROCKET_*
//    and RETURN_BANK_ENCRYPTION_KEY names bound explicitly)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("RETURNS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider variables keep their upstream names so existing deployments
	// work without renaming secrets.
	bindProviderEnv(v)

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
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Shiprocket: ShiprocketConfig{
			BaseURL:        v.GetString("shiprocket.base_url"),
			Email:          v.GetString("shiprocket.email"),
			Password:       v.GetString("shiprocket.password"),
			WebhookSecret:  v.GetString("shiprocket.webhook_secret"),
			PickupLocation: v.GetString("shiprocket.pickup_location"),
			AutoForward:    v.GetBool("shiprocket.auto_forward"),
			ReturnName:     v.GetString("shiprocket.return_name"),
			ReturnPhone:    v.GetString("shiprocket.return_phone"),
			ReturnAddress:  v.GetString("shiprocket.return_address"),
			ReturnCity:     v.GetString("shiprocket.return_city"),
			ReturnState:    v.GetString("shiprocket.return_state"),
			ReturnCountry:  v.GetString("shiprocket.return_country"),
			ReturnPincode:  v.GetString("shiprocket.return_pincode"),
			DefaultLength:  v.GetFloat64("shiprocket.default_length"),
			DefaultBreadth: v.GetFloat64("shiprocket.default_breadth"),
			DefaultHeight:  v.GetFloat64("shiprocket.default_height"),
			DefaultWeight:  v.GetFloat64("shiprocket.default_weight"),
		},
		Returns: ReturnsConfig{
			WindowDays:        v.GetInt("returns.window_days"),
			BankEncryptionKey: v.GetString("returns.bank_encryption_key"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bindProviderEnv binds the provider env vars under their upstream names
func bindProviderEnv(v *viper.Viper) {
	bindings := map[string]string{
		"shiprocket.base_url":         "SHIPROCKET_BASE_URL",
		"shiprocket.email":            "SHIPROCKET_EMAIL",
		"shiprocket.password":         "SHIPROCKET_PASSWORD",
		"shiprocket.webhook_secret":   "SHIPROCKET_WEBHOOK_SECRET",
		"shiprocket.pickup_location":  "SHIPROCKET_PICKUP_LOCATION",
		"shiprocket.auto_forward":     "SHIPROCKET_AUTO_FORWARD",
		"shiprocket.return_name":      "SHIPROCKET_RETURN_NAME",
		"shiprocket.return_phone":     "SHIPROCKET_RETURN_PHONE",
		"shiprocket.return_address":   "SHIPROCKET_RETURN_ADDRESS",
		"shiprocket.return_city":      "SHIPROCKET_RETURN_CITY",
		"shiprocket.return_state":     "SHIPROCKET_RETURN_STATE",
		"shiprocket.return_country":   "SHIPROCKET_RETURN_COUNTRY",
		"shiprocket.return_pincode":   "SHIPROCKET_RETURN_PINCODE",
		"shiprocket.default_length":   "SHIPROCKET_DEFAULT_LENGTH",
		"shiprocket.default_breadth":  "SHIPROCKET_DEFAULT_BREADTH",
		"shiprocket.default_height":   "SHIPROCKET_DEFAULT_HEIGHT",
		"shiprocket.default_weight":   "SHIPROCKET_DEFAULT_WEIGHT",
		"returns.bank_encryption_key": "RETURN_BANK_ENCRYPTION_KEY",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "returns-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "returns"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "returns-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Shiprocket.BaseURL == "" {
		cfg.Shiprocket.BaseURL = "https://apiv2.shiprocket.in"
	}
	if cfg.Shiprocket.ReturnCountry == "" {
		cfg.Shiprocket.ReturnCountry = "India"
	}
	if cfg.Shiprocket.DefaultLength == 0 {
		cfg.Shiprocket.DefaultLength = 10
	}
	if cfg.Shiprocket.DefaultBreadth == 0 {
		cfg.Shiprocket.DefaultBreadth = 10
	}
	if cfg.Shiprocket.DefaultHeight == 0 {
		cfg.Shiprocket.DefaultHeight = 10
	}
	if cfg.Shiprocket.DefaultWeight == 0 {
		cfg.Shiprocket.DefaultWeight = 0.5
	}
	if cfg.Returns.WindowDays == 0 {
		cfg.Returns.WindowDays = 7
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Returns.WindowDays <= 0 {
		return fmt.Errorf("returns.window_days must be positive")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Shiprocket.Email == "" || c.Shiprocket.Password == "" {
			return fmt.Errorf("shiprocket credentials are required in production")
		}
		if c.Shiprocket.WebhookSecret == "" {
			return fmt.Errorf("shiprocket.webhook_secret is required in production")
		}
		if c.Returns.BankEncryptionKey == "" {
			return fmt.Errorf("returns.bank_encryption_key is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
