// Package config provides configuration loading for the farmbridge services.
//
// Values come from built-in defaults, then an optional YAML file, then
// FARMBRIDGE_* environment variables (highest precedence).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agriservices/farmbridge/internal/connector"
	"github.com/agriservices/farmbridge/internal/connector/soap"
)

// Config is the complete process configuration.
type Config struct {
	Backends  BackendsConfig  `yaml:"backends"`
	Transport TransportConfig `yaml:"transport"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Temporal  TemporalConfig  `yaml:"temporal"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
}

// BackendsConfig locates the legacy services.
type BackendsConfig struct {
	CropURL    string `yaml:"cropUrl"`
	BillingURL string `yaml:"billingUrl"`
}

// TransportConfig tunes the SOAP transport.
type TransportConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	RateLimit        float64       `yaml:"rateLimit"`
	RateBurst        int           `yaml:"rateBurst"`
	MaxResponseBytes int64         `yaml:"maxResponseBytes"`
	UserAgent        string        `yaml:"userAgent"`
	Auth             AuthConfig    `yaml:"auth"`
}

// Backend credential modes.
const (
	AuthBearer = "bearer" // forward the caller's bearer token
	AuthBasic  = "basic"  // service account, overridden by a caller bearer
	AuthNone   = "none"
)

// AuthConfig selects the credentials sent to the backends.
type AuthConfig struct {
	Mode     string `yaml:"mode"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// GatewayConfig holds the service surface settings.
type GatewayConfig struct {
	GRPCAddr        string        `yaml:"grpcAddr"`
	HTTPAddr        string        `yaml:"httpAddr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// TemporalConfig holds the caller-side retry worker settings.
type TemporalConfig struct {
	HostPort  string `yaml:"hostPort"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"taskQueue"`
}

// DatabaseConfig locates the invoice sequence database. Optional.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration (local development ports of the
// legacy services).
func Default() *Config {
	return &Config{
		Backends: BackendsConfig{
			CropURL:    "http://localhost:8082",
			BillingURL: "http://localhost:8085",
		},
		Transport: TransportConfig{
			Timeout:          30 * time.Second,
			RateLimit:        20,
			RateBurst:        10,
			MaxResponseBytes: 4 << 20,
			UserAgent:        "farmbridge/1.0",
			Auth:             AuthConfig{Mode: AuthBearer},
		},
		Gateway: GatewayConfig{
			GRPCAddr:        ":50061",
			HTTPAddr:        ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "farmbridge",
		},
		Log: LogConfig{Level: "info", JSON: true},
	}
}

// Load builds the configuration. path may be empty; otherwise the YAML file
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Backends.CropURL = getEnv("FARMBRIDGE_CROP_URL", c.Backends.CropURL)
	c.Backends.BillingURL = getEnv("FARMBRIDGE_BILLING_URL", c.Backends.BillingURL)

	c.Transport.Timeout = getEnvDuration("FARMBRIDGE_SOAP_TIMEOUT", c.Transport.Timeout)
	c.Transport.RateLimit = getEnvFloat("FARMBRIDGE_SOAP_RATE_LIMIT", c.Transport.RateLimit)
	c.Transport.RateBurst = getEnvInt("FARMBRIDGE_SOAP_RATE_BURST", c.Transport.RateBurst)
	c.Transport.MaxResponseBytes = int64(getEnvInt("FARMBRIDGE_SOAP_MAX_RESPONSE_BYTES", int(c.Transport.MaxResponseBytes)))
	c.Transport.UserAgent = getEnv("FARMBRIDGE_SOAP_USER_AGENT", c.Transport.UserAgent)
	c.Transport.Auth.Mode = getEnv("FARMBRIDGE_SOAP_AUTH_MODE", c.Transport.Auth.Mode)
	c.Transport.Auth.Username = getEnv("FARMBRIDGE_SOAP_USERNAME", c.Transport.Auth.Username)
	c.Transport.Auth.Password = getEnv("FARMBRIDGE_SOAP_PASSWORD", c.Transport.Auth.Password)

	c.Gateway.GRPCAddr = getEnv("FARMBRIDGE_GRPC_ADDR", c.Gateway.GRPCAddr)
	c.Gateway.HTTPAddr = getEnv("FARMBRIDGE_HTTP_ADDR", c.Gateway.HTTPAddr)
	c.Gateway.ShutdownTimeout = getEnvDuration("FARMBRIDGE_SHUTDOWN_TIMEOUT", c.Gateway.ShutdownTimeout)

	c.Temporal.HostPort = getEnv("FARMBRIDGE_TEMPORAL_HOST", c.Temporal.HostPort)
	c.Temporal.Namespace = getEnv("FARMBRIDGE_TEMPORAL_NAMESPACE", c.Temporal.Namespace)
	c.Temporal.TaskQueue = getEnv("FARMBRIDGE_TEMPORAL_TASK_QUEUE", c.Temporal.TaskQueue)

	c.Database.URL = getEnv("FARMBRIDGE_DATABASE_URL", c.Database.URL)

	c.Log.Level = getEnv("FARMBRIDGE_LOG_LEVEL", c.Log.Level)
	c.Log.JSON = getEnvBool("FARMBRIDGE_LOG_JSON", c.Log.JSON)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"backends.cropUrl":    c.Backends.CropURL,
		"backends.billingUrl": c.Backends.BillingURL,
	} {
		if err := validateURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Transport.Timeout <= 0 {
		errs = append(errs, errors.New("transport.timeout must be positive"))
	}
	if c.Transport.RateLimit <= 0 {
		errs = append(errs, errors.New("transport.rateLimit must be positive"))
	}
	if c.Transport.RateBurst < 1 {
		errs = append(errs, errors.New("transport.rateBurst must be at least 1"))
	}
	if c.Transport.MaxResponseBytes <= 0 {
		errs = append(errs, errors.New("transport.maxResponseBytes must be positive"))
	}
	switch c.Transport.Auth.Mode {
	case AuthBearer, AuthNone:
	case AuthBasic:
		if c.Transport.Auth.Username == "" {
			errs = append(errs, errors.New("transport.auth.username is required for basic auth"))
		}
	default:
		errs = append(errs, fmt.Errorf("transport.auth.mode %q is not one of bearer, basic, none", c.Transport.Auth.Mode))
	}
	if c.Gateway.GRPCAddr == "" && c.Gateway.HTTPAddr == "" {
		errs = append(errs, errors.New("gateway: at least one of grpcAddr, httpAddr is required"))
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, errors.New("temporal.taskQueue is required"))
	}
	return errors.Join(errs...)
}

// Endpoints returns the backend locations for connector assembly.
func (c *Config) Endpoints() connector.Endpoints {
	return connector.Endpoints{CropURL: c.Backends.CropURL, BillingURL: c.Backends.BillingURL}
}

// ClientConfig returns the SOAP transport settings.
func (t TransportConfig) ClientConfig() *soap.ClientConfig {
	return &soap.ClientConfig{
		Auth:             t.Auth.Strategy(),
		Timeout:          t.Timeout,
		RateLimit:        t.RateLimit,
		RateBurst:        t.RateBurst,
		MaxResponseBytes: t.MaxResponseBytes,
		UserAgent:        t.UserAgent,
	}
}

// Strategy returns the transport credential strategy for the mode. In basic
// mode a caller bearer, when present, replaces the service account.
func (a AuthConfig) Strategy() soap.AuthConfig {
	switch a.Mode {
	case AuthNone:
		return soap.NoAuth{}
	case AuthBasic:
		return soap.Chain{soap.BasicAuth{Username: a.Username, Password: a.Password}, soap.ContextBearer{}}
	default:
		return soap.ContextBearer{}
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
