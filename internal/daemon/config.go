// Package daemon holds the OptimaTime process configuration: the TOML file
// read at startup and the defaults used when it (or a section) is absent.
package daemon

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig configures the SQLite-backed plan store.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// PlanningConfig mirrors the planning engine's constants in the config file.
// The section is parsed and defaulted, but no part of the process reads it:
// the planner, allocator, scheduler and feedback learner use their own
// in-code constants.
type PlanningConfig struct {
	DefaultWorkStart  string `toml:"default_work_start"`
	DefaultWorkEnd    string `toml:"default_work_end"`
	HorizonDays       int    `toml:"horizon_days"`
	LookaheadDays     int    `toml:"lookahead_days"`
	FeedbackHalfLife  int    `toml:"feedback_half_life_days"`
	FeedbackFetchCap  int    `toml:"feedback_fetch_cap"`
	SlotMinutes       int    `toml:"slot_minutes"`
}

// Config is the full OptimaTime process configuration.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Planning PlanningConfig `toml:"planning"`
}

// DefaultConfig returns the spec's documented defaults, used when no
// config file is present or a section is missing from it.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		Database: DatabaseConfig{
			Path: defaultDatabasePath(),
		},
		Planning: PlanningConfig{
			DefaultWorkStart: "08:00",
			DefaultWorkEnd:   "18:00",
			HorizonDays:      7,
			LookaheadDays:    14,
			FeedbackHalfLife: 14,
			FeedbackFetchCap: 500,
			SlotMinutes:      30,
		},
	}
}

// Load reads the TOML file at path, merging it over DefaultConfig. A
// missing file is not an error — it returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfigPath returns ~/.optimatime/config.toml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".optimatime", "config.toml")
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "optimatime.db"
	}
	return filepath.Join(home, ".optimatime", "optimatime.db")
}
