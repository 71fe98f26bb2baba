package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every knob the automation reads. Values come from the TOML
// file first, then environment variables override (same variable names as the
// original deployment scripts).
type Config struct {
	AdsPower AdsPowerConfig `toml:"adspower"`
	Sheets   SheetsConfig   `toml:"sheets"`
	MetaMask MetaMaskConfig `toml:"metamask"`
	Run      RunConfig      `toml:"run"`
	Journal  JournalConfig  `toml:"journal"`
	Tempo    TempoConfig    `toml:"tempo"`
}

// AdsPowerConfig points at the local AdsPower API.
type AdsPowerConfig struct {
	APIURL string `toml:"api_url"`
	APIKey string `toml:"api_key"`
}

// SheetsConfig identifies the profile spreadsheet and its layout.
type SheetsConfig struct {
	SpreadsheetID   string  `toml:"spreadsheet_id"`
	CredentialsPath string  `toml:"credentials_path"`
	Worksheet       string  `toml:"worksheet"`
	Columns         Columns `toml:"columns"`
}

// Columns maps record fields to 0-indexed sheet columns.
type Columns struct {
	Serial   int `toml:"serial"`
	Address  int `toml:"address"`
	AddFunds int `toml:"add_funds"`
	FeeToken int `toml:"fee_token"`
	GM       int `toml:"gm"`
	Overall  int `toml:"overall"`
	Note     int `toml:"note"`
}

// MetaMaskConfig controls wallet unlocking.
type MetaMaskConfig struct {
	PasswordPrefix string `toml:"password_prefix"`
}

// RunConfig controls parallelism and timeouts. Timeouts are in seconds, as in
// the original environment variables.
type RunConfig struct {
	MaxParallel           int `toml:"max_parallel"`
	PageLoadTimeoutSec    int `toml:"page_load_timeout"`
	ElementWaitTimeoutSec int `toml:"element_wait_timeout"`
	TransactionTimeoutSec int `toml:"transaction_timeout"`
	ProfileStartDelaySec  int `toml:"profile_start_delay"`
}

// JournalConfig enables the optional MySQL run journal. An empty DSN disables
// it.
type JournalConfig struct {
	MySQLDSN string `toml:"mysql_dsn"`
}

// TempoConfig holds the target pages and network identity.
type TempoConfig struct {
	FaucetURL   string `toml:"faucet_url"`
	GMURL       string `toml:"gm_url"`
	NetworkID   string `toml:"network_id"`
	NetworkName string `toml:"network_name"`
}

// Default returns the built-in configuration, matching the original
// deployment defaults.
func Default() Config {
	return Config{
		AdsPower: AdsPowerConfig{
			APIURL: "http://local.adspower.net:50325",
		},
		Sheets: SheetsConfig{
			CredentialsPath: "credentials.json",
			Worksheet:       "Sheet1",
			Columns: Columns{
				Serial:   0,
				Address:  1,
				AddFunds: 2,
				FeeToken: 3,
				GM:       4,
				Overall:  5,
				Note:     6,
			},
		},
		MetaMask: MetaMaskConfig{
			PasswordPrefix: "ОткрываюМетамаск!",
		},
		Run: RunConfig{
			MaxParallel:           1,
			PageLoadTimeoutSec:    30,
			ElementWaitTimeoutSec: 15,
			TransactionTimeoutSec: 60,
			ProfileStartDelaySec:  5,
		},
		Tempo: TempoConfig{
			FaucetURL:   "https://docs.tempo.xyz/quickstart/faucet",
			GMURL:       "https://onchaingm.com/",
			NetworkID:   "42429",
			NetworkName: "Tempo Testnet",
		},
	}
}

// Load reads the TOML file at path (missing file is fine, defaults apply) and
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.AdsPower.APIURL, "ADSPOWER_API_URL")
	setString(&c.AdsPower.APIKey, "ADSPOWER_API_KEY")
	setString(&c.Sheets.SpreadsheetID, "GOOGLE_SHEET_ID")
	setString(&c.Sheets.CredentialsPath, "GOOGLE_CREDENTIALS_PATH")
	setString(&c.Sheets.Worksheet, "SHEET_NAME")
	setString(&c.MetaMask.PasswordPrefix, "METAMASK_PASSWORD_PREFIX")
	setString(&c.Journal.MySQLDSN, "MYSQL_DSN")
	setInt(&c.Run.MaxParallel, "MAX_PARALLEL_PROFILES")
	setInt(&c.Run.PageLoadTimeoutSec, "PAGE_LOAD_TIMEOUT")
	setInt(&c.Run.ElementWaitTimeoutSec, "ELEMENT_WAIT_TIMEOUT")
	setInt(&c.Run.TransactionTimeoutSec, "TRANSACTION_TIMEOUT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks the configuration that is fatal to run without. All
// problems are reported at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Sheets.SpreadsheetID == "" {
		errs = append(errs, errors.New("GOOGLE_SHEET_ID is not set"))
	}
	if _, err := os.Stat(c.Sheets.CredentialsPath); err != nil {
		errs = append(errs, fmt.Errorf("google credentials file not found: %s", c.Sheets.CredentialsPath))
	}
	if c.Run.MaxParallel < 1 {
		errs = append(errs, fmt.Errorf("max_parallel must be >= 1, got %d", c.Run.MaxParallel))
	}

	return errors.Join(errs...)
}

// MetaMaskPassword derives the wallet password for a profile serial number.
func (c *Config) MetaMaskPassword(serial int) string {
	return fmt.Sprintf("%s%d", c.MetaMask.PasswordPrefix, serial)
}

// PageLoadTimeout returns the page navigation timeout.
func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.Run.PageLoadTimeoutSec) * time.Second
}

// ElementWaitTimeout returns the element lookup timeout.
func (c *Config) ElementWaitTimeout() time.Duration {
	return time.Duration(c.Run.ElementWaitTimeoutSec) * time.Second
}

// TransactionTimeout returns the wallet confirmation timeout.
func (c *Config) TransactionTimeout() time.Duration {
	return time.Duration(c.Run.TransactionTimeoutSec) * time.Second
}

// ProfileStartDelay returns the pause between profile starts in sequential
// mode.
func (c *Config) ProfileStartDelay() time.Duration {
	return time.Duration(c.Run.ProfileStartDelaySec) * time.Second
}
