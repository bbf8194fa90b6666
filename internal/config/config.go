// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all engine and server
// settings: when changing values, only modify this file. Everything
// else reads its configuration from here.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// ENGINE RULES
// =============================================================================

// EngineConfig holds the deterministic rule set. Both the resolving
// server and any replaying observer must run identical values.
type EngineConfig struct {
	MaxLife          uint32 // Life saturation bound per cell
	StakePerGem      uint64 // Ledger units locked behind each placed token
	MaxMovesPerBatch int    // Hard cap on one resolution call
}

// DefaultEngine returns the production rule set.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		MaxLife:          7,
		StakePerGem:      1_000_000,
		MaxMovesPerBatch: 64,
	}
}

// EngineFromEnv returns engine rules with environment overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if v := getEnvInt("MAX_LIFE", 0); v > 0 {
		cfg.MaxLife = uint32(v)
	}
	if v := getEnvInt("STAKE_PER_GEM", 0); v > 0 {
		cfg.StakePerGem = uint64(v)
	}
	if v := getEnvInt("MAX_MOVES_PER_BATCH", 0); v > 0 {
		cfg.MaxMovesPerBatch = v
	}

	return cfg
}

// =============================================================================
// EPOCH TIMING
// =============================================================================

// EpochConfig drives the wall-clock epoch oracle.
type EpochConfig struct {
	GenesisUnix    int64         // Epoch 1 starts here (unix seconds)
	Duration       time.Duration // Wall-clock length of one epoch
	CommitFraction float64       // Leading fraction reserved for commits
}

// DefaultEpoch returns the default timing.
func DefaultEpoch() EpochConfig {
	return EpochConfig{
		GenesisUnix:    1_700_000_000,
		Duration:       time.Minute,
		CommitFraction: 0.5,
	}
}

// EpochFromEnv returns epoch timing with environment overrides.
func EpochFromEnv() EpochConfig {
	cfg := DefaultEpoch()

	if v := getEnvInt("GENESIS_UNIX", 0); v > 0 {
		cfg.GenesisUnix = int64(v)
	}
	if v := getEnvInt("EPOCH_SECONDS", 0); v > 0 {
		cfg.Duration = time.Duration(v) * time.Second
	}
	if v := getEnvFloat("COMMIT_FRACTION", -1); v >= 0 && v < 1 {
		cfg.CommitFraction = v
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	EventLogPath string
	DebugToken   string // Gates /api/inject and raw cell writes; empty disables them
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		EventLogPath: "resolution.jsonl",
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("EVENT_LOG_PATH"); v != "" {
		cfg.EventLogPath = v
	}
	cfg.DebugToken = os.Getenv("DEBUG_TOKEN")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Engine EngineConfig
	Epoch  EpochConfig
	Server ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Engine: EngineFromEnv(),
		Epoch:  EpochFromEnv(),
		Server: ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
