// Package config loads the YAML-configured, env-overridden settings for the
// agent binary.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blackhole-labs/solcycle/internal/cycle"
)

// Config is the entire configuration structure from config.yml.
type Config struct {
	RPC       RPCYAMLData       `yaml:"rpc"`
	Wallets   WalletsYAMLData   `yaml:"wallets"`
	Cycle     CycleYAMLData     `yaml:"cycle"`
	RateLimit RateLimitYAMLData `yaml:"rate_limit"`
	Jito      JitoYAMLData      `yaml:"jito"`
}

type RPCYAMLData struct {
	HTTPURL string `yaml:"http_url"`
	WSURL   string `yaml:"ws_url"`
}

type WalletsYAMLData struct {
	Dir string `yaml:"dir"`
}

type CycleYAMLData struct {
	TokenAmountChoices      []int64   `yaml:"token_amount_choices_millions"`
	WsolAmountChoices       []float64 `yaml:"wsol_amount_choices_sol"`
	ProfitThresholdSol      float64   `yaml:"profit_threshold_sol"`
	CycleTimeoutSec         int       `yaml:"cycle_timeout_sec"`
	Mode                    string    `yaml:"mode"`
	AutoSleepSec            int       `yaml:"auto_sleep_sec"`
	CircuitBreakerWindowSec int       `yaml:"circuit_breaker_window_sec"`
	CircuitBreakerThreshold int       `yaml:"circuit_breaker_threshold"`
}

type RateLimitYAMLData struct {
	CallsPerWindow int `yaml:"calls_per_window"`
	WindowMs       int `yaml:"window_ms"`
}

type JitoYAMLData struct {
	BlockEngineURL string `yaml:"block_engine_url"`
	TipLamports    uint64 `yaml:"tip_lamports"`
}

// LoadConfig reads and parses config.yml into a Config struct.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}

// ToCycleConfig converts the YAML cycle section into the orchestrator's
// config value type. An empty mode defaults to manual and the circuit
// breaker window and threshold get defaults when unset; every other field
// is taken from YAML as written.
func (c *Config) ToCycleConfig() (*cycle.Config, error) {
	mode := cycle.ModeManual
	switch c.Cycle.Mode {
	case "", "manual":
		mode = cycle.ModeManual
	case "auto":
		mode = cycle.ModeAuto
	default:
		return nil, fmt.Errorf("config: mode must be manual|auto, got %q", c.Cycle.Mode)
	}

	cbWindowSec := c.Cycle.CircuitBreakerWindowSec
	if cbWindowSec <= 0 {
		cbWindowSec = 300
	}
	cbThreshold := c.Cycle.CircuitBreakerThreshold
	if cbThreshold <= 0 {
		cbThreshold = 5
	}

	cfg := &cycle.Config{
		TokenAmountChoices:      c.Cycle.TokenAmountChoices,
		WsolAmountChoices:       c.Cycle.WsolAmountChoices,
		ProfitThresholdSOL:      c.Cycle.ProfitThresholdSol,
		CycleTimeout:            time.Duration(c.Cycle.CycleTimeoutSec) * time.Second,
		Mode:                    mode,
		AutoSleep:               time.Duration(c.Cycle.AutoSleepSec) * time.Second,
		CircuitBreakerWindow:    time.Duration(cbWindowSec) * time.Second,
		CircuitBreakerThreshold: cbThreshold,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// WalletsDir resolves the wallet persistence directory, honoring the
// WALLETS_DIR environment override before falling back to YAML then a
// hardcoded default, matching the core's env-variable contract.
func (c *Config) WalletsDir() string {
	if dir := os.Getenv("WALLETS_DIR"); dir != "" {
		return dir
	}
	if c.Wallets.Dir != "" {
		return c.Wallets.Dir
	}
	return "wallets"
}

// RPCHTTPURL resolves the RPC HTTP endpoint, preferring the environment.
func (c *Config) RPCHTTPURL() string {
	if u := os.Getenv("RPC_HTTP_URL"); u != "" {
		return u
	}
	return c.RPC.HTTPURL
}

// RPCWSURL resolves the RPC WebSocket endpoint, preferring the environment.
func (c *Config) RPCWSURL() string {
	if u := os.Getenv("RPC_WS_URL"); u != "" {
		return u
	}
	return c.RPC.WSURL
}
