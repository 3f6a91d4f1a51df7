package miner

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/gnosischain/gnosis-engine/params"
)

const configEnvPrefix = "GNOSIS_MINER_"

// Config is the configuration of the payload builder.
type Config struct {
	GasCeil           uint64        `koanf:"gas_ceil"`            // Target gas ceiling for built blocks
	ExtraData         string        `koanf:"extra_data"`          // Block extra data set by the builder
	Recommit          time.Duration `koanf:"recommit"`            // Minimum interval between two builds of a payload
	NewPayloadTimeout time.Duration `koanf:"new_payload_timeout"` // Maximum time a payload job keeps rebuilding
	Workers           int           `koanf:"workers"`             // Number of payload jobs running at once
}

// DefaultConfig contains default settings for the builder.
var DefaultConfig = Config{
	GasCeil: 17_000_000,

	// The consensus layer asks for the payload a few seconds after starting
	// the job, leaving room for several rounds.
	Recommit:          time.Second,
	NewPayloadTimeout: 4 * time.Second,
	Workers:           4,
}

// Validate checks the configuration for values the builder cannot work with.
func (c *Config) Validate() error {
	if uint64(len(c.ExtraData)) > params.MaximumExtraDataSize {
		return fmt.Errorf("extra exceeds max length. %d > %v", len(c.ExtraData), params.MaximumExtraDataSize)
	}
	if c.GasCeil < params.MinGasLimit {
		return fmt.Errorf("gas ceil %d below minimum gas limit %d", c.GasCeil, params.MinGasLimit)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	if c.Recommit <= 0 {
		return fmt.Errorf("invalid recommit interval %v", c.Recommit)
	}
	if c.NewPayloadTimeout <= 0 {
		return fmt.Errorf("invalid new payload timeout %v", c.NewPayloadTimeout)
	}
	return nil
}

// LoadConfig builds the builder configuration from the defaults, then the
// TOML file at path if path is not empty, then GNOSIS_MINER_* environment
// variables such as GNOSIS_MINER_GAS_CEIL.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	defaults := map[string]interface{}{
		"gas_ceil":            DefaultConfig.GasCeil,
		"extra_data":          DefaultConfig.ExtraData,
		"recommit":            DefaultConfig.Recommit,
		"new_payload_timeout": DefaultConfig.NewPayloadTimeout,
		"workers":             DefaultConfig.Workers,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load miner config %s: %w", path, err)
		}
	}
	err := k.Load(env.Provider(configEnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, configEnvPrefix))
	}), nil)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid miner config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
