package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type ExchangeRateAPI struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TargetCurrency string `mapstructure:"target_currency"`
}

type Exchange struct {
	Cost            int `mapstructure:"cost"`
	StartingBalance int `mapstructure:"starting_balance"`
}

type History struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

type Auth struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	Issuer           string `mapstructure:"issuer"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLHours  int    `mapstructure:"refresh_ttl_hours"`
}

type RateLimit struct {
	Auth string `mapstructure:"auth"`
}

type RateCache struct {
	TTLSeconds int   `mapstructure:"ttl_seconds"`
	MaxItems   int64 `mapstructure:"max_items"`
}

type Scheduler struct {
	SessionCleanupSec int `mapstructure:"session_cleanup_sec"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	HTTPServer      HTTPServer      `mapstructure:"http_server"`
	DbServer        DbServer        `mapstructure:"db_server"`
	HTTPClient      HTTPClient      `mapstructure:"http_client"`
	ExchangeRateAPI ExchangeRateAPI `mapstructure:"exchange_rate_api"`
	Exchange        Exchange        `mapstructure:"exchange"`
	History         History         `mapstructure:"history"`
	Auth            Auth            `mapstructure:"auth"`
	RateLimit       RateLimit       `mapstructure:"rate_limit"`
	RateCache       RateCache       `mapstructure:"rate_cache"`
	Scheduler       Scheduler       `mapstructure:"scheduler"`
	Logging         Logging         `mapstructure:"logging"`
}

var (
	ErrAPIKeyRequired    = errors.New("exchange rate api key is required")
	ErrJWTSecretRequired = errors.New("jwt secret is required")
)

// Validate checks settings the service can't start without.
func (c *AppConfig) Validate() error {
	if c.ExchangeRateAPI.APIKey == "" {
		return ErrAPIKeyRequired
	}
	if c.Auth.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	return nil
}

// Init reads config.yaml from configPath, applies env overrides (.env is optional) and defaults.
func Init(configPath string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", "8000")
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("exchange_rate_api.base_url", "https://v6.exchangerate-api.com/v6")
	v.SetDefault("exchange_rate_api.target_currency", "UAH")
	v.SetDefault("exchange.cost", 1)
	v.SetDefault("exchange.starting_balance", 1000)
	v.SetDefault("history.default_page_size", 10)
	v.SetDefault("history.max_page_size", 100)
	v.SetDefault("auth.issuer", "fxgate")
	v.SetDefault("auth.access_ttl_minutes", 5)
	v.SetDefault("auth.refresh_ttl_hours", 24)
	v.SetDefault("rate_limit.auth", "5-M")
	v.SetDefault("rate_cache.ttl_seconds", 60)
	v.SetDefault("rate_cache.max_items", 512)
	v.SetDefault("scheduler.session_cleanup_sec", 3600)
	v.SetDefault("logging.level", "info")
}

func bindEnv(v *viper.Viper) {
	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// http
	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	// secrets
	_ = v.BindEnv("exchange_rate_api.api_key", "EXCHANGE_RATE_API_KEY")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")
}
