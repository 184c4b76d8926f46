package config

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name credentials are filed under in the
// system keyring.
const keyringService = "jsqsh"

// Config represents the application configuration.
type Config struct {
	Connections []Connection `mapstructure:"connections" yaml:"connections"`
	Execution   Execution    `mapstructure:"execution" yaml:"execution"`
	Display     Display      `mapstructure:"display" yaml:"display"`
	Preferences Preferences  `mapstructure:"preferences" yaml:"preferences"`
}

// Connection represents a saved database connection profile.
type Connection struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Driver   string `mapstructure:"driver" yaml:"driver"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// Execution holds the settings the execution engine consumes.
type Execution struct {
	// Dialect selects the statement-terminator analyzer.
	Dialect string `mapstructure:"dialect" yaml:"dialect"`

	// Terminator is the statement terminator character.
	Terminator string `mapstructure:"terminator" yaml:"terminator"`

	// MaxRows caps rendered rows per result set; <= 0 means unlimited.
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`

	// RowLimitPolicy is "discard", "driver" or "cancel".
	RowLimitPolicy string `mapstructure:"row_limit_policy" yaml:"row_limit_policy"`

	// MaxUpdateCount stops processing after this many consecutive update
	// counts, for drivers that never signal completion.
	MaxUpdateCount int `mapstructure:"max_update_count" yaml:"max_update_count"`

	NoCount     bool `mapstructure:"no_count" yaml:"no_count"`
	ShowTimings bool `mapstructure:"show_timings" yaml:"show_timings"`
	FetchSize   int  `mapstructure:"fetch_size" yaml:"fetch_size"`

	// MaxNestDepth bounds recursive materialization of cursor-valued
	// columns.
	MaxNestDepth int `mapstructure:"max_nest_depth" yaml:"max_nest_depth"`
}

// Display holds output presentation settings.
type Display struct {
	// Style selects the renderer: "table", "csv" or "discard".
	Style string `mapstructure:"style" yaml:"style"`

	NullMarker     string `mapstructure:"null_marker" yaml:"null_marker"`
	MaxColumnWidth int    `mapstructure:"max_column_width" yaml:"max_column_width"`
	CSVHeaders     bool   `mapstructure:"csv_headers" yaml:"csv_headers"`
}

// Preferences holds user preferences.
type Preferences struct {
	DefaultConnection string `mapstructure:"default_connection" yaml:"default_connection"`
	LogLevel          string `mapstructure:"log_level" yaml:"log_level"`
}

// DSN builds a connection string from the connection profile, consulting
// the system keyring for the password when the profile carries none.
func (c Connection) DSN() string {
	password := c.Password
	if password == "" {
		if stored, err := keyring.Get(keyringService, c.Name); err == nil {
			password = stored
		}
	}

	dsn := "postgresql://"
	if c.Username != "" {
		if password != "" {
			dsn += url.UserPassword(c.Username, password).String()
		} else {
			dsn += url.User(c.Username).String()
		}
		dsn += "@"
	}
	dsn += c.Host
	if c.Port > 0 {
		dsn += ":" + strconv.Itoa(c.Port)
	}
	dsn += "/" + c.Database
	if c.SSLMode != "" {
		dsn += "?sslmode=" + c.SSLMode
	}
	return dsn
}

// StorePassword files the connection's password in the system keyring so
// the config file never has to carry it.
func (c Connection) StorePassword(password string) error {
	if err := keyring.Set(keyringService, c.Name, password); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return nil
}

// DisplayString returns a human-readable summary of the connection.
func (c Connection) DisplayString() string {
	s := c.Host
	if c.Port > 0 {
		s += ":" + strconv.Itoa(c.Port)
	}
	s += "/" + c.Database
	if c.Username != "" {
		s = c.Username + "@" + s
	}
	return s
}

// HasConnection checks if a connection with the given name already exists.
func (cfg *Config) HasConnection(name string) bool {
	for _, c := range cfg.Connections {
		if c.Name == name {
			return true
		}
	}
	return false
}

// AddConnection appends a connection if it doesn't already exist.
func (cfg *Config) AddConnection(conn Connection) {
	if !cfg.HasConnection(conn.Name) {
		cfg.Connections = append(cfg.Connections, conn)
	}
}

// TerminatorRune returns the configured terminator as a rune, defaulting
// to ';'.
func (e Execution) TerminatorRune() rune {
	for _, r := range e.Terminator {
		return r
	}
	return ';'
}
