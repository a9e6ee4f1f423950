// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"namur-service/internal/model"
	"namur-service/internal/protocol"
)

// EnvPrefix is prepended to every environment override, e.g.
// NAMUR_SERVICE_INSTRUMENT_ADDRESS
const EnvPrefix = "NAMUR_SERVICE"

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Security   SecurityConfig   `mapstructure:"security"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Instrument InstrumentConfig `mapstructure:"instrument"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	App        AppConfig        `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// InstrumentConfig describes the single instrument this service talks to
type InstrumentConfig struct {
	Type                  string                `mapstructure:"type"`
	Address               string                `mapstructure:"address"`
	Simulate              bool                  `mapstructure:"simulate"`
	ConnectTimeout        time.Duration         `mapstructure:"connect_timeout"`
	ReadTimeout           time.Duration         `mapstructure:"read_timeout"`
	DrainTimeout          time.Duration         `mapstructure:"drain_timeout"`
	MaxTimeouts           int                   `mapstructure:"max_timeouts"`
	PollInterval          time.Duration         `mapstructure:"poll_interval"`
	IncludeSurfaceControl bool                  `mapstructure:"include_surface_control"`
	Serial                protocol.SerialConfig `mapstructure:"serial"`
}

// DiscoveryConfig controls instrument discovery
type DiscoveryConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	SerialPorts  bool          `mapstructure:"serial_ports"`
	PortPatterns []string      `mapstructure:"port_patterns"`
	TCPAddresses []string      `mapstructure:"tcp_addresses"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from config.yaml in the given directories and
// from environment variables. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	// Environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Instrument defaults
	v.SetDefault("instrument.type", string(model.InstrumentHotplate))
	v.SetDefault("instrument.address", "")
	v.SetDefault("instrument.simulate", false)
	v.SetDefault("instrument.connect_timeout", "750ms")
	v.SetDefault("instrument.read_timeout", "750ms")
	v.SetDefault("instrument.drain_timeout", "500ms")
	v.SetDefault("instrument.max_timeouts", 10)
	v.SetDefault("instrument.poll_interval", "2s")
	v.SetDefault("instrument.include_surface_control", false)

	// NAMUR RS-232 framing
	v.SetDefault("instrument.serial.baud_rate", 9600)
	v.SetDefault("instrument.serial.data_bits", 7)
	v.SetDefault("instrument.serial.stop_bits", 1)
	v.SetDefault("instrument.serial.parity", "even")
	v.SetDefault("instrument.serial.timeout", "150ms")

	// Discovery defaults
	v.SetDefault("discovery.enabled", true)
	v.SetDefault("discovery.serial_ports", true)
	v.SetDefault("discovery.port_patterns", []string{})
	v.SetDefault("discovery.tcp_addresses", []string{})
	v.SetDefault("discovery.probe_timeout", "500ms")

	// App defaults
	v.SetDefault("app.name", "namur-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	// Basic validation
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if _, ok := model.ParseInstrumentType(config.Instrument.Type); !ok {
		return fmt.Errorf("instrument.type must be one of: %v", model.InstrumentTypes())
	}
	if !config.Instrument.Simulate {
		if config.Instrument.Address == "" {
			return fmt.Errorf("instrument.address is required unless instrument.simulate is set")
		}
		addr, err := protocol.ParseAddress(config.Instrument.Address)
		if err != nil {
			return fmt.Errorf("instrument.address: %w", err)
		}
		if addr.Type == model.ConnectionTypeSerial {
			serial := config.Instrument.Serial
			serial.Port = addr.Path
			if err := serial.Validate(); err != nil {
				return fmt.Errorf("instrument.serial: %w", err)
			}
		}
	}
	if config.Instrument.PollInterval <= 0 {
		return fmt.Errorf("instrument.poll_interval must be positive")
	}
	if config.Instrument.MaxTimeouts <= 0 {
		return fmt.Errorf("instrument.max_timeouts must be positive")
	}

	if config.Discovery.ProbeTimeout <= 0 {
		return fmt.Errorf("discovery.probe_timeout must be positive")
	}
	for _, address := range config.Discovery.TCPAddresses {
		addr, err := protocol.ParseAddress(address)
		if err != nil {
			return fmt.Errorf("discovery.tcp_addresses: %w", err)
		}
		if addr.Type != model.ConnectionTypeTCP {
			return fmt.Errorf("discovery.tcp_addresses: %s is not a host:port address", address)
		}
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// InstrumentType returns the validated instrument family
func (c *Config) InstrumentType() model.InstrumentType {
	t, _ := model.ParseInstrumentType(c.Instrument.Type)
	return t
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
