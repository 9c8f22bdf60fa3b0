package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/payelements/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "payelements.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "payelements.yaml"

	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = ":4242"

	// DefaultAPIBase is the default mount point of the backend API.
	DefaultAPIBase = "/api"

	// DefaultBridgePath is the default WebSocket path of the browser bridge.
	DefaultBridgePath = "/bridge"

	// DefaultMetricsPath is the default Prometheus scrape path.
	DefaultMetricsPath = "/metrics"

	// DefaultCurrency is used by intent endpoints when the request omits one.
	DefaultCurrency = "usd"
)

// Environment variables that override file values.
const (
	EnvPublishableKey = "PAYELEMENTS_PUBLISHABLE_KEY"
	EnvSecretKey      = "PAYELEMENTS_SECRET_KEY"
	EnvAddr           = "PAYELEMENTS_ADDR"
	EnvAPIBase        = "PAYELEMENTS_API_BASE"
)

// Config represents the complete payelements configuration.
type Config struct {
	// Provider configures the browser SDK load.
	Provider ProviderConfig `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Server configures the HTTP server of the serve command.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Backend configures the example backend API.
	Backend BackendConfig `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Log configures structured logging.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ProviderConfig contains the public SDK load options.
type ProviderConfig struct {
	// PublishableKey is the public API key handed to the browser SDK.
	PublishableKey string `json:"publishableKey,omitempty" yaml:"publishableKey,omitempty"`

	// AccountID is the connected account to act on behalf of.
	AccountID string `json:"accountId,omitempty" yaml:"accountId,omitempty"`

	// APIVersion pins the SDK API version.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`

	// Locale is the widget display locale.
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// APIBase is the path prefix of the backend API.
	APIBase string `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`

	// BridgePath is the WebSocket path of the browser bridge.
	BridgePath string `json:"bridgePath,omitempty" yaml:"bridgePath,omitempty"`

	// MetricsPath is the Prometheus scrape path.
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`

	// AllowedOrigins lists origins accepted by the bridge upgrader.
	// Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// BackendConfig contains the example backend settings.
type BackendConfig struct {
	// SecretKey is the server-side provider API key.
	SecretKey string `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`

	// Currency is the default intent currency.
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`

	// Catalog optionally serves products from an S3 object.
	Catalog CatalogConfig `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

// CatalogConfig locates a JSON product catalog in S3.
type CatalogConfig struct {
	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Enabled reports whether an S3 catalog is configured.
func (c CatalogConfig) Enabled() bool {
	return c.Bucket != "" && c.Key != ""
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads the configuration from the given directory, preferring
// payelements.json over payelements.yaml.
func Load(dir string) (*Config, error) {
	jsonPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(jsonPath); err == nil {
		return LoadFile(jsonPath)
	}
	yamlPath := filepath.Join(dir, YAMLConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return LoadFile(yamlPath)
	}
	return nil, errors.New("P080").
		WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir).
		WithSuggestion("Create a config file or pass --config")
}

// LoadFile loads the configuration from a specific file path.
// The format is chosen by extension; anything but .yaml/.yml is read as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("P080").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("P080").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvPublishableKey); v != "" {
		c.Provider.PublishableKey = v
	}
	if v := getenv(EnvSecretKey); v != "" {
		c.Backend.SecretKey = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvAPIBase); v != "" {
		c.Server.APIBase = v
	}
}

// Save saves the configuration to its original path.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo saves the configuration to the given path.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("P080").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.New("P080").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.APIBase == "" {
		c.Server.APIBase = DefaultAPIBase
	}
	if c.Server.BridgePath == "" {
		c.Server.BridgePath = DefaultBridgePath
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Backend.Currency == "" {
		c.Backend.Currency = DefaultCurrency
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Provider.PublishableKey == "" {
		return errors.New("P081").
			WithDetail("provider.publishableKey is empty").
			WithSuggestion("Set it in the config file or via " + EnvPublishableKey)
	}
	if c.Backend.SecretKey == "" {
		return errors.New("P081").
			WithDetail("backend.secretKey is empty").
			WithSuggestion("Set it via " + EnvSecretKey)
	}
	if !strings.HasPrefix(c.Server.APIBase, "/") {
		return errors.New("P080").WithDetail("server.apiBase must start with /")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("P080").WithDetail("log.format must be text or json")
	}
	if c.Backend.Catalog.Bucket != "" && c.Backend.Catalog.Key == "" {
		return errors.New("P081").WithDetail("backend.catalog.key is empty")
	}
	return nil
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c *Config) Redacted() Config {
	out := *c
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	if out.Backend.SecretKey != "" {
		out.Backend.SecretKey = mask(out.Backend.SecretKey)
	}
	return out
}

func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:7] + strings.Repeat("*", 4) + s[len(s)-4:]
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
