package config

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"proxyprobe/internal/logger"
)

type Config struct {
	Probe    ProbeConfig    `mapstructure:"probe" validate:"required"`
	Checker  CheckerConfig  `mapstructure:"checker" validate:"required"`
	Geo      GeoConfig      `mapstructure:"geo" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Judge    JudgeConfig    `mapstructure:"judge" validate:"required"`
	Output   OutputConfig   `mapstructure:"output" validate:"required"`
	Log      LogConfig      `mapstructure:"log" validate:"required"`
}

// ProbeConfig holds the endpoints and limits shared by every network probe.
// The URLs are provider-agnostic: any httpbin-compatible echo service, any
// stable HTTPS endpoint and any fixed-size payload will do.
type ProbeConfig struct {
	EchoURL      string        `mapstructure:"echo_url" validate:"required,url"`
	HTTPSURL     string        `mapstructure:"https_url" validate:"required,url"`
	SpeedURL     string        `mapstructure:"speed_url" validate:"required,url"`
	DNSBLZone    string        `mapstructure:"dnsbl_zone" validate:"required,fqdn"`
	SOCKS4Target string        `mapstructure:"socks4_target" validate:"required,host_port"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"required,min=1s,max=5m"`
	UserAgent    string        `mapstructure:"user_agent"`
}

type CheckerConfig struct {
	MaxWorkers int `mapstructure:"max_workers" validate:"required,min=1,max=200"`
}

type GeoConfig struct {
	APIURL       string        `mapstructure:"api_url" validate:"required,contains=%s"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"required,min=1s,max=1m"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
}

type DatabaseConfig struct {
	Path            string        `mapstructure:"path" validate:"required,min=1"`
	MaxAge          time.Duration `mapstructure:"max_age" validate:"required,min=1h,max=2160h"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"required,min=30m,max=24h"`
}

type JudgeConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr" validate:"required,host_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"required,min=1s,max=5m"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required,min=1s,max=5m"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"required,min=1s,max=10m"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" validate:"required,oneof=table csv json"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=trace debug info warn error"`
}

// setDefaults configures default values for viper
func setDefaults() {
	// Probe defaults
	viper.SetDefault("probe.echo_url", "http://httpbin.org/get")
	viper.SetDefault("probe.https_url", "https://api.ipify.org")
	viper.SetDefault("probe.speed_url", "http://cachefly.cachefly.net/1mb.test")
	viper.SetDefault("probe.dnsbl_zone", "zen.spamhaus.org")
	viper.SetDefault("probe.socks4_target", "8.8.8.8:80")
	viper.SetDefault("probe.timeout", "15s")
	viper.SetDefault("probe.user_agent", "")

	// Checker defaults
	viper.SetDefault("checker.max_workers", 10)

	// Geo defaults
	viper.SetDefault("geo.api_url", "http://ip-api.com/json/%s?fields=status,message,country,as")
	viper.SetDefault("geo.timeout", "5s")
	viper.SetDefault("geo.cache_enabled", true)

	// Database defaults
	viper.SetDefault("database.path", "./data/proxyprobe.db")
	viper.SetDefault("database.max_age", "168h")
	viper.SetDefault("database.cleanup_interval", "1h")

	// Judge defaults
	viper.SetDefault("judge.listen_addr", ":8089")
	viper.SetDefault("judge.read_timeout", "30s")
	viper.SetDefault("judge.write_timeout", "30s")
	viper.SetDefault("judge.idle_timeout", "60s")

	// Output defaults
	viper.SetDefault("output.format", "table")

	// Log defaults
	viper.SetDefault("log.level", "info")
}

// LoadConfig loads configuration from multiple sources with validation
func LoadConfig(configPath string) (*Config, error) {
	// Configure viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/proxyprobe")

	// Set environment variable prefix and enable reading from env
	viper.SetEnvPrefix("PROXYPROBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Try to read config file if provided or found
	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
		log.Println("No config file found, using defaults and environment variables")
	}

	// Unmarshal configuration
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	validate := validator.New()

	// Register custom validators
	if err := registerCustomValidators(validate); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// registerCustomValidators adds custom validation rules
func registerCustomValidators(validate *validator.Validate) error {
	// Custom validator for host:port format with a port in 1-65535
	return validate.RegisterValidation("host_port", func(fl validator.FieldLevel) bool {
		_, portStr, err := net.SplitHostPort(fl.Field().String())
		if err != nil {
			return false
		}
		port, err := strconv.Atoi(portStr)
		return err == nil && port >= 1 && port <= 65535
	})
}

// SaveConfigTemplate generates a sample configuration file
func SaveConfigTemplate(path string) error {
	setDefaults()
	viper.SetConfigType("yaml")

	if err := viper.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config template: %w", err)
	}

	return nil
}

// PrintConfig displays the current configuration (for debugging)
func PrintConfig(config *Config) {
	l := logger.WithComponent("config")
	l.Info().
		Str("echo_url", config.Probe.EchoURL).
		Str("https_url", config.Probe.HTTPSURL).
		Str("speed_url", config.Probe.SpeedURL).
		Str("dnsbl_zone", config.Probe.DNSBLZone).
		Dur("timeout", config.Probe.Timeout).
		Msg("Probe configuration")
	l.Info().
		Int("max_workers", config.Checker.MaxWorkers).
		Msg("Checker configuration")
	l.Info().
		Str("api_url", config.Geo.APIURL).
		Bool("cache_enabled", config.Geo.CacheEnabled).
		Msg("Geo configuration")
	if config.Geo.CacheEnabled {
		l.Info().
			Str("path", config.Database.Path).
			Dur("max_age", config.Database.MaxAge).
			Msg("Database configuration")
	}
	userAgent := config.Probe.UserAgent
	if userAgent == "" {
		userAgent = "[random per request]"
	}
	l.Info().Str("user_agent", userAgent).Msg("Request configuration")
}
