package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent identifies the client on outbound HTTP requests.
	DefaultUserAgent = "market-sync/1.0"
)

// Config holds every application setting. Sensitive values may be
// overridden through environment variables after load.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Ledger struct {
		RPCURL          string `yaml:"rpc_url"`
		WSURL           string `yaml:"ws_url"` // optional; polling-only when empty
		ContractAddress string `yaml:"contract_address"`
		AccessKey       string `yaml:"access_key"`
		SecretKey       string `yaml:"secret_key"`
		PollIntervalMS  int    `yaml:"poll_interval_ms"`
		SettleTimeoutS  int    `yaml:"settle_timeout_sec"`
	} `yaml:"ledger"`

	Wallet struct {
		Account string `yaml:"account"`
	} `yaml:"wallet"`

	Media struct {
		BaseURL       string `yaml:"base_url"`
		ThumbnailSize int    `yaml:"thumbnail_size"`
	} `yaml:"media"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Ledger.RPCURL, "http://") && !strings.HasPrefix(c.Ledger.RPCURL, "https://") {
		return fmt.Errorf("invalid ledger RPC URL: %s", c.Ledger.RPCURL)
	}
	if c.Ledger.WSURL != "" && !strings.HasPrefix(c.Ledger.WSURL, "ws://") && !strings.HasPrefix(c.Ledger.WSURL, "wss://") {
		return fmt.Errorf("invalid ledger WS URL: %s", c.Ledger.WSURL)
	}
	if c.Ledger.ContractAddress == "" {
		return fmt.Errorf("contract address is required")
	}
	if c.Ledger.PollIntervalMS <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Ledger.SettleTimeoutS <= 0 {
		return fmt.Errorf("settlement timeout must be positive")
	}
	return nil
}

// overrideWithEnv replaces config values with environment variables when set.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("MARKET_ACCESS_KEY"); key != "" {
		cfg.Ledger.AccessKey = key
	}
	if secret := os.Getenv("MARKET_SECRET_KEY"); secret != "" {
		cfg.Ledger.SecretKey = secret
	}
	if account := os.Getenv("MARKET_ACCOUNT"); account != "" {
		cfg.Wallet.Account = account
	}
}
