package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdirTemp switches the working directory to a fresh temp dir so Load reads
// the config.yaml written by the test (or none at all).
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWd)
	})
	return tmpDir
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := chdirTemp(t)

	yamlContent := `
port: "3000"
env: "test"
database:
  host: "db.example.com"
volume_api:
  endpoint: "https://volumes.example.com"
  language: "en"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}

	t.Setenv("PORT", "4000")
	t.Setenv("PGHOST", "env-db.example.com")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "4000" {
		t.Errorf("Port = %q, want env override %q", cfg.Port, "4000")
	}
	if cfg.Database.Host != "env-db.example.com" {
		t.Errorf("Database.Host = %q, want env override", cfg.Database.Host)
	}
	if cfg.Env != "test" {
		t.Errorf("Env = %q, want yaml value %q", cfg.Env, "test")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Version = %q, want injected value", cfg.Version)
	}
}

func TestLoad_NoConfigFileUsesEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("VOLUME_API_ENDPOINT", "https://volumes.example.com")
	t.Setenv("VOLUME_API_KEY", "secret")

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load without config.yaml: %v", err)
	}

	if cfg.VolumeAPI.Endpoint != "https://volumes.example.com" {
		t.Errorf("VolumeAPI.Endpoint = %q", cfg.VolumeAPI.Endpoint)
	}
	if cfg.VolumeAPI.APIKey != "secret" {
		t.Errorf("VolumeAPI.APIKey not read from env")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want default", cfg.Database.Host)
	}
	if cfg.Engine.RefreshConcurrency != 4 {
		t.Errorf("Engine.RefreshConcurrency = %d, want default 4", cfg.Engine.RefreshConcurrency)
	}
}

func TestLoad_MissingEndpointFailsValidation(t *testing.T) {
	chdirTemp(t)

	_, err := Load("dev")
	if err == nil {
		t.Fatal("Load without a provider endpoint should fail validation")
	}
	if !strings.Contains(err.Error(), "volume_api") {
		t.Errorf("error %q should name the volume_api section", err)
	}
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "localpulse",
		Password: "hunter2",
		Database: "localpulse_engine",
		SSLMode:  "disable",
	}

	got := cfg.ConnectionString()
	want := "host=localhost port=5432 user=localpulse password=hunter2 dbname=localpulse_engine sslmode=disable"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}

func TestVolumeAPIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     VolumeAPIConfig
		wantErr bool
	}{
		{
			name:    "valid",
			cfg:     VolumeAPIConfig{Endpoint: "https://volumes.example.com", Language: "en", TimeoutSecs: 30},
			wantErr: false,
		},
		{
			name:    "missing endpoint",
			cfg:     VolumeAPIConfig{Language: "en", TimeoutSecs: 30},
			wantErr: true,
		},
		{
			name:    "missing language",
			cfg:     VolumeAPIConfig{Endpoint: "https://volumes.example.com", TimeoutSecs: 30},
			wantErr: true,
		},
		{
			name:    "timeout out of range",
			cfg:     VolumeAPIConfig{Endpoint: "https://volumes.example.com", Language: "en", TimeoutSecs: 9000},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
