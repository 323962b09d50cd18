package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "cerberus" {
		t.Errorf("expected Name=cerberus, got %s", cfg.Name)
	}
	if cfg.Services.RegistryA.URL != "http://localhost:8000" {
		t.Errorf("expected registry A on :8000, got %s", cfg.Services.RegistryA.URL)
	}
	if !cfg.Services.TEG.Critical {
		t.Error("TEG layer should be critical by default")
	}
	if cfg.Services.Marketplace.Critical {
		t.Error("marketplace should not be critical by default")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("CERBERUS_REGISTRY_A_URL", "")
	t.Setenv("CERBERUS_API_KEY", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Services.RegistryA.URL = "http://registry-a:9000"
	cfg.Admin.APIKey = "avreg_testkey"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Services.RegistryA.URL != "http://registry-a:9000" {
		t.Errorf("expected registry A=http://registry-a:9000, got %s", loaded.Services.RegistryA.URL)
	}
	if loaded.Admin.APIKey != "avreg_testkey" {
		t.Errorf("expected APIKey=avreg_testkey, got %s", loaded.Admin.APIKey)
	}
}

func TestConfig_LoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("CERBERUS_REGISTRY_A_URL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file should not fail: %v", err)
	}
	if cfg.Services.RegistryA.URL != "http://localhost:8000" {
		t.Errorf("expected default registry A URL, got %s", cfg.Services.RegistryA.URL)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	os.Setenv("CERBERUS_REGISTRY_A_URL", "http://env-registry:8000")
	defer os.Unsetenv("CERBERUS_REGISTRY_A_URL")

	os.Setenv("CERBERUS_API_KEY", "avreg_envkey")
	defer os.Unsetenv("CERBERUS_API_KEY")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Services.RegistryA.URL != "http://env-registry:8000" {
		t.Errorf("expected env registry URL, got %s", cfg.Services.RegistryA.URL)
	}
	if cfg.Admin.APIKey != "avreg_envkey" {
		t.Errorf("expected env API key, got %s", cfg.Admin.APIKey)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}

	cfg.Admin.Email = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing admin email")
	}

	cfg = DefaultConfig()
	cfg.Services.RegistryA.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing registry URL")
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GetHTTPTimeout() == 0 {
		t.Error("GetHTTPTimeout should return non-zero duration")
	}
	if cfg.GetOnboardTimeout() <= cfg.GetHTTPTimeout() {
		t.Error("onboard timeout should exceed the default request timeout")
	}

	critical := cfg.CriticalServices()
	if len(critical) != 3 {
		t.Errorf("expected 3 critical services, got %d", len(critical))
	}
	if len(cfg.AllServices()) != 5 {
		t.Errorf("expected 5 services, got %d", len(cfg.AllServices()))
	}
}

func TestConfig_BadTimeoutFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTP.Timeout = "not-a-duration"
	if cfg.GetHTTPTimeout().Seconds() != 10 {
		t.Errorf("expected 10s fallback, got %v", cfg.GetHTTPTimeout())
	}
}
