package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Cypherspark/sms-relay/internal/provider"
)

// Environment variables holding the provider credentials. They are read on
// every request and never copied into Config.
const (
	EnvAccountSID  = "TWILIO_ACCOUNT_SID"
	EnvAuthToken   = "TWILIO_AUTH_TOKEN"
	EnvPhoneNumber = "TWILIO_PHONE_NUMBER"
)

// Config holds the service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Provider ProviderConfig `yaml:"provider"`
}

type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	MaxBodyBytes           int64  `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// CORSConfig enables CORS when AllowedOrigins is non-empty.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ProviderConfig selects the SMS provider: "twilio" or "dummy".
type ProviderConfig struct {
	Name                string `yaml:"name"`
	DummyLatencyMS      int    `yaml:"dummy_latency_ms"`
	DummyFailurePercent int    `yaml:"dummy_failure_percent"`
}

// Load reads the YAML file at path (skipped when path is empty) and fills in
// defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.setDefaults()
	return &cfg, cfg.validate()
}

// LoadFromEnv loads .env (if present), then the YAML file, then applies
// environment overrides.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = n
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Log.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SMS_PROVIDER"); v != "" {
		cfg.Provider.Name = strings.ToLower(v)
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	return cfg, cfg.validate()
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 5
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 5
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Log.Env == "" {
		c.Log.Env = "production"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "twilio"
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Provider.Name {
	case "twilio", "dummy":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Name)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// ProviderFactory returns the Factory matching the configured provider.
func (c *Config) ProviderFactory() provider.Factory {
	if c.Provider.Name == "dummy" {
		latency := time.Duration(c.Provider.DummyLatencyMS) * time.Millisecond
		return provider.NewDummy(latency, c.Provider.DummyFailurePercent).Factory()
	}
	return provider.TwilioFactory
}

// EnvCredentials reads the provider credentials from the process
// environment on each call.
type EnvCredentials struct{}

func (EnvCredentials) Credentials() provider.Credentials {
	return provider.Credentials{
		AccountSID: os.Getenv(EnvAccountSID),
		AuthToken:  os.Getenv(EnvAuthToken),
		From:       os.Getenv(EnvPhoneNumber),
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
