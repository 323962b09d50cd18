package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Cerberus configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Services under test
	Services ServicesConfig `yaml:"services"`

	// Admin (commander) account on Registry A
	Admin AdminConfig `yaml:"admin"`

	// Pre-provisioned credential material
	Credentials CredentialsConfig `yaml:"credentials"`

	// HTTP client behaviour
	HTTP HTTPConfig `yaml:"http"`

	// Output locations
	Output OutputConfig `yaml:"output"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig describes one service endpoint.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Health   string `yaml:"health"`
	Critical bool   `yaml:"critical"`
}

// ServicesConfig lists every service the harness talks to.
type ServicesConfig struct {
	RegistryA     ServiceConfig `yaml:"registry_a"`
	RegistryB     ServiceConfig `yaml:"registry_b"`
	TEG           ServiceConfig `yaml:"teg"`
	Marketplace   ServiceConfig `yaml:"marketplace"`
	DataProcessor ServiceConfig `yaml:"data_processor"`
}

// AdminConfig holds the commander account used for admin-gated endpoints
// and for requesting bootstrap tokens.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	APIKey   string `yaml:"api_key"`
}

// CredentialsConfig points at credential files for pre-existing agents
// (treasury and service provider) that the Golden Path relies on.
type CredentialsConfig struct {
	TreasuryFile string `yaml:"treasury_file"`
	SellerFile   string `yaml:"seller_file"`
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	Timeout        string `yaml:"timeout"`
	OnboardTimeout string `yaml:"onboard_timeout"`
}

// OutputConfig configures where reports and artifacts land.
type OutputConfig struct {
	ReportDir   string `yaml:"report_dir"`
	ArtifactDir string `yaml:"artifact_dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "cerberus",
		Version: "1.0.0",

		Services: ServicesConfig{
			RegistryA: ServiceConfig{
				Name:     "Registry A",
				URL:      "http://localhost:8000",
				Health:   "/health",
				Critical: true,
			},
			RegistryB: ServiceConfig{
				Name:     "Registry B",
				URL:      "http://localhost:8001",
				Health:   "/health",
				Critical: true,
			},
			TEG: ServiceConfig{
				Name:     "TEG Layer",
				URL:      "http://localhost:8100",
				Health:   "/health",
				Critical: true,
			},
			Marketplace: ServiceConfig{
				Name:     "Marketplace Agent",
				URL:      "http://localhost:8020",
				Health:   "/health",
				Critical: false,
			},
			DataProcessor: ServiceConfig{
				Name:     "Data Processor Agent",
				URL:      "http://localhost:8010",
				Health:   "/health",
				Critical: false,
			},
		},

		Admin: AdminConfig{
			Email:    "commander@agentvault.com",
			Password: "SovereignKey!2025",
		},

		Credentials: CredentialsConfig{
			TreasuryFile: "credentials/treasury.json",
			SellerFile:   "credentials/data_processor.json",
		},

		HTTP: HTTPConfig{
			Timeout:        "10s",
			OnboardTimeout: "30s",
		},

		Output: OutputConfig{
			ReportDir:   "reports",
			ArtifactDir: "artifacts",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("CERBERUS_REGISTRY_A_URL"); url != "" {
		c.Services.RegistryA.URL = url
	}
	if url := os.Getenv("CERBERUS_REGISTRY_B_URL"); url != "" {
		c.Services.RegistryB.URL = url
	}
	if url := os.Getenv("CERBERUS_TEG_URL"); url != "" {
		c.Services.TEG.URL = url
	}
	if url := os.Getenv("CERBERUS_MARKETPLACE_URL"); url != "" {
		c.Services.Marketplace.URL = url
	}
	if url := os.Getenv("CERBERUS_DATA_PROCESSOR_URL"); url != "" {
		c.Services.DataProcessor.URL = url
	}
	if key := os.Getenv("CERBERUS_API_KEY"); key != "" {
		c.Admin.APIKey = key
	}
	if email := os.Getenv("CERBERUS_ADMIN_EMAIL"); email != "" {
		c.Admin.Email = email
	}
	if pw := os.Getenv("CERBERUS_ADMIN_PASSWORD"); pw != "" {
		c.Admin.Password = pw
	}
	if dir := os.Getenv("CERBERUS_ARTIFACT_DIR"); dir != "" {
		c.Output.ArtifactDir = dir
	}
	if dir := os.Getenv("CERBERUS_REPORT_DIR"); dir != "" {
		c.Output.ReportDir = dir
	}
}

// GetHTTPTimeout returns the default request timeout as a duration.
func (c *Config) GetHTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetOnboardTimeout returns the agent-creation timeout as a duration.
// Onboarding can take longer than a normal request while the registry
// generates key material.
func (c *Config) GetOnboardTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.OnboardTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Services.RegistryA.URL == "" {
		return fmt.Errorf("registry A URL not configured")
	}
	if c.Admin.Email == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin credentials not configured (set CERBERUS_ADMIN_EMAIL and CERBERUS_ADMIN_PASSWORD)")
	}
	return nil
}

// CriticalServices returns the services that must be healthy before any
// run proceeds, in display order.
func (c *Config) CriticalServices() []ServiceConfig {
	var out []ServiceConfig
	for _, svc := range c.AllServices() {
		if svc.Critical {
			out = append(out, svc)
		}
	}
	return out
}

// AllServices returns every configured service in display order.
func (c *Config) AllServices() []ServiceConfig {
	return []ServiceConfig{
		c.Services.RegistryA,
		c.Services.RegistryB,
		c.Services.TEG,
		c.Services.Marketplace,
		c.Services.DataProcessor,
	}
}
