package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/crypto"
	"github.com/tolelom/tolledger/imbalance"
	"github.com/tolelom/tolledger/storage"
)

// Config holds all node configuration.
type Config struct {
	NodeID       string `json:"node_id" yaml:"node_id"`
	ChainID      string `json:"chain_id" yaml:"chain_id"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	Backend      string `json:"backend" yaml:"backend"` // leveldb, bolt or memory
	RPCPort      int    `json:"rpc_port" yaml:"rpc_port"`
	RPCAuthToken string `json:"rpc_auth_token,omitempty" yaml:"rpc_auth_token,omitempty"`
	LogLevel     string `json:"log_level" yaml:"log_level"`
	PrettyLogs   bool   `json:"pretty_logs" yaml:"pretty_logs"`

	// RootAccounts are the pubkey hexes allowed to submit sudo calls.
	RootAccounts   []string     `json:"root_accounts" yaml:"root_accounts"`
	MaxTokenSupply core.Balance `json:"max_token_supply" yaml:"max_token_supply"`
	// SeedPolicy is "zero" or "max_supply"; see imbalance.SeedPolicy.
	SeedPolicy string            `json:"seed_policy" yaml:"seed_policy"`
	Aliases    map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"` // name → pubkey hex
	Genesis    GenesisConfig     `json:"genesis" yaml:"genesis"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:         "node0",
		ChainID:        "tolledger-dev",
		DataDir:        "./data",
		Backend:        string(storage.BackendLevelDB),
		RPCPort:        8545,
		LogLevel:       "info",
		MaxTokenSupply: core.NewBalance(1_000_000_000),
		SeedPolicy:     imbalance.SeedZero.String(),
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a config file from path over DefaultConfig. Files ending in
// .yaml or .yml are YAML; anything else is JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path in the format its extension selects.
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields the node cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.ChainID == "" {
		errs = append(errs, errors.New("chain_id is required"))
	}
	switch storage.Backend(c.Backend) {
	case storage.BackendLevelDB, storage.BackendBolt, storage.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.RPCPort < 0 || c.RPCPort > 65535 {
		errs = append(errs, fmt.Errorf("rpc_port %d out of range", c.RPCPort))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := imbalance.ParseSeedPolicy(c.SeedPolicy); err != nil {
		errs = append(errs, err)
	}
	for _, r := range c.RootAccounts {
		if !crypto.IsPubKeyHex(r) {
			errs = append(errs, fmt.Errorf("root account %q is not a public key", r))
		}
	}
	return errors.Join(errs...)
}

// Roots returns RootAccounts as account ids.
func (c *Config) Roots() []core.AccountID {
	out := make([]core.AccountID, len(c.RootAccounts))
	for i, r := range c.RootAccounts {
		out[i] = core.AccountID(r)
	}
	return out
}

// Seed returns the parsed seed policy, defaulting to SeedZero.
func (c *Config) Seed() imbalance.SeedPolicy {
	p, _ := imbalance.ParseSeedPolicy(c.SeedPolicy)
	return p
}
