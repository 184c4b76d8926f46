package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configDir  = ".jsqsh"
	configFile = "config"
	configType = "yaml"
)

// Load reads the configuration from ~/.jsqsh/config.yaml. Returns a config
// holding only the defaults when the file does not exist.
func Load() (*Config, error) {
	dir, err := configDirPath()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	setDefaults(v)

	cfg := &Config{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("execution.dialect", "ansi")
	v.SetDefault("execution.terminator", ";")
	v.SetDefault("execution.max_rows", 0)
	v.SetDefault("execution.row_limit_policy", "discard")
	v.SetDefault("execution.max_update_count", 0)
	v.SetDefault("execution.no_count", false)
	v.SetDefault("execution.show_timings", true)
	v.SetDefault("execution.fetch_size", 0)
	v.SetDefault("execution.max_nest_depth", 8)

	v.SetDefault("display.style", "table")
	v.SetDefault("display.null_marker", "[NULL]")
	v.SetDefault("display.max_column_width", 40)
	v.SetDefault("display.csv_headers", true)

	v.SetDefault("preferences.log_level", "warn")
}

// Save writes the configuration to ~/.jsqsh/config.yaml.
func Save(cfg *Config) error {
	dir, err := configDirPath()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.Set("connections", cfg.Connections)
	v.Set("execution", cfg.Execution)
	v.Set("display", cfg.Display)
	v.Set("preferences", cfg.Preferences)

	path := filepath.Join(dir, configFile+"."+configType)
	return v.WriteConfigAs(path)
}

// DefaultConnection returns the default connection from config, or the
// first one.
func DefaultConnection(cfg *Config) *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}

	if cfg.Preferences.DefaultConnection != "" {
		for i := range cfg.Connections {
			if cfg.Connections[i].Name == cfg.Preferences.DefaultConnection {
				return &cfg.Connections[i]
			}
		}
	}

	return &cfg.Connections[0]
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
