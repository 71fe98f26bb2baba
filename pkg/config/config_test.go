package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AdsPower.APIURL != "http://local.adspower.net:50325" {
		t.Errorf("APIURL = %s, want AdsPower default", cfg.AdsPower.APIURL)
	}
	if cfg.Run.MaxParallel != 1 {
		t.Errorf("MaxParallel = %d, want 1", cfg.Run.MaxParallel)
	}
	if cfg.Tempo.NetworkID != "42429" {
		t.Errorf("NetworkID = %s, want 42429", cfg.Tempo.NetworkID)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[sheets]
spreadsheet_id = "sheet-from-file"
worksheet = "Profiles"

[run]
max_parallel = 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GOOGLE_SHEET_ID", "sheet-from-env")
	t.Setenv("MAX_PARALLEL_PROFILES", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Environment wins over the file.
	if cfg.Sheets.SpreadsheetID != "sheet-from-env" {
		t.Errorf("SpreadsheetID = %s, want sheet-from-env", cfg.Sheets.SpreadsheetID)
	}
	if cfg.Run.MaxParallel != 5 {
		t.Errorf("MaxParallel = %d, want 5", cfg.Run.MaxParallel)
	}
	// File wins over defaults.
	if cfg.Sheets.Worksheet != "Profiles" {
		t.Errorf("Worksheet = %s, want Profiles", cfg.Sheets.Worksheet)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(creds, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "missing sheet id",
			mutate: func(c *Config) {
				c.Sheets.SpreadsheetID = ""
			},
			wantErr: true,
		},
		{
			name: "missing credentials file",
			mutate: func(c *Config) {
				c.Sheets.CredentialsPath = filepath.Join(dir, "nope.json")
			},
			wantErr: true,
		},
		{
			name: "zero parallelism",
			mutate: func(c *Config) {
				c.Run.MaxParallel = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Sheets.SpreadsheetID = "sheet"
			cfg.Sheets.CredentialsPath = creds
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetaMaskPassword(t *testing.T) {
	cfg := Default()
	cfg.MetaMask.PasswordPrefix = "Pass!"

	if got := cfg.MetaMaskPassword(42); got != "Pass!42" {
		t.Errorf("MetaMaskPassword(42) = %s, want Pass!42", got)
	}
}
