// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Grab    GrabConfig    `mapstructure:"grab"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CaptureConfig applies to both listen and grab sessions
type CaptureConfig struct {
	KeyboardOnly bool   `mapstructure:"keyboard_only"`
	Layout       string `mapstructure:"layout"` // "us" or "fr"
}

// GrabConfig contains settings of the grab command
type GrabConfig struct {
	Block         []string `mapstructure:"block"`          // Key names vetoed while grabbed
	ReleaseHotkey string   `mapstructure:"release_hotkey"` // e.g. "ctrl+alt+escape", empty disables
	SocketPath    string   `mapstructure:"socket_path"`    // Empty means the per-user default

	// Emergency release
	ReleaseFile string        `mapstructure:"release_file"` // Removed and the grab released when it appears
	IdleTimeout time.Duration `mapstructure:"idle_timeout"` // Release after no input for this long, 0 disables
}

// ServerConfig contains settings of the SSH event stream
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind_address"`
	MaxClients  int    `mapstructure:"max_clients"`

	// SSH configuration
	SSHHostKeyPath   string   `mapstructure:"ssh_host_key_path"`
	SSHWhitelist     []string `mapstructure:"ssh_whitelist"`      // List of allowed SSH key fingerprints
	SSHWhitelistOnly bool     `mapstructure:"ssh_whitelist_only"` // Only allow whitelisted keys
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var layouts = []string{"us", "fr"}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Capture: CaptureConfig{
			KeyboardOnly: false,
			Layout:       "us",
		},
		Grab: GrabConfig{
			Block:         []string{},
			ReleaseHotkey: "ctrl+alt+escape",
		},
		Server: ServerConfig{
			Port:             52600,
			BindAddress:      "127.0.0.1",
			MaxClients:       4,
			SSHHostKeyPath:   defaultHostKeyPath(),
			SSHWhitelist:     []string{},
			SSHWhitelistOnly: true,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("keytap")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		for _, dir := range searchDirs() {
			viper.AddConfigPath(dir)
		}
	}

	viper.SetDefault("capture.keyboard_only", DefaultConfig.Capture.KeyboardOnly)
	viper.SetDefault("capture.layout", DefaultConfig.Capture.Layout)

	viper.SetDefault("grab.block", DefaultConfig.Grab.Block)
	viper.SetDefault("grab.release_hotkey", DefaultConfig.Grab.ReleaseHotkey)
	viper.SetDefault("grab.socket_path", DefaultConfig.Grab.SocketPath)
	viper.SetDefault("grab.release_file", DefaultConfig.Grab.ReleaseFile)
	viper.SetDefault("grab.idle_timeout", DefaultConfig.Grab.IdleTimeout)

	viper.SetDefault("server.port", DefaultConfig.Server.Port)
	viper.SetDefault("server.bind_address", DefaultConfig.Server.BindAddress)
	viper.SetDefault("server.max_clients", DefaultConfig.Server.MaxClients)
	viper.SetDefault("server.ssh_host_key_path", DefaultConfig.Server.SSHHostKeyPath)
	viper.SetDefault("server.ssh_whitelist", DefaultConfig.Server.SSHWhitelist)
	viper.SetDefault("server.ssh_whitelist_only", DefaultConfig.Server.SSHWhitelistOnly)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	if !slices.Contains(layouts, strings.ToLower(c.Capture.Layout)) {
		return fmt.Errorf("capture.layout: unsupported layout %q (want one of %s)", c.Capture.Layout, strings.Join(layouts, ", "))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Grab.IdleTimeout < 0 {
		return fmt.Errorf("grab.idle_timeout must not be negative")
	}
	if c.Server.MaxClients < 1 {
		return fmt.Errorf("server.max_clients must be positive")
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Store replaces the configuration with c and writes it to file
func Store(c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	viper.Set("capture", map[string]any{
		"keyboard_only": c.Capture.KeyboardOnly,
		"layout":        c.Capture.Layout,
	})
	viper.Set("grab", map[string]any{
		"block":          c.Grab.Block,
		"release_hotkey": c.Grab.ReleaseHotkey,
		"socket_path":    c.Grab.SocketPath,
		"release_file":   c.Grab.ReleaseFile,
		"idle_timeout":   c.Grab.IdleTimeout.String(),
	})
	viper.Set("server", map[string]any{
		"port":               c.Server.Port,
		"bind_address":       c.Server.BindAddress,
		"max_clients":        c.Server.MaxClients,
		"ssh_host_key_path":  c.Server.SSHHostKeyPath,
		"ssh_whitelist":      c.Server.SSHWhitelist,
		"ssh_whitelist_only": c.Server.SSHWhitelistOnly,
	})
	viper.Set("logging", map[string]any{
		"log_level": c.Logging.LogLevel,
	})
	cfg = c
	return Save()
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	return filepath.Join(searchDirs()[0], "keytap.toml")
}

// searchDirs lists config directories by precedence
func searchDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "keytap"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".config", "keytap")
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return append(dirs, ".")
}

// AddSSHKeyToWhitelist adds an SSH key fingerprint to the whitelist
func AddSSHKeyToWhitelist(fingerprint string) error {
	cfg := Get()

	if slices.Contains(cfg.Server.SSHWhitelist, fingerprint) {
		return fmt.Errorf("key already whitelisted")
	}

	cfg.Server.SSHWhitelist = append(cfg.Server.SSHWhitelist, fingerprint)
	viper.Set("server.ssh_whitelist", cfg.Server.SSHWhitelist)
	return Save()
}

// RemoveSSHKeyFromWhitelist removes an SSH key fingerprint from the whitelist
func RemoveSSHKeyFromWhitelist(fingerprint string) error {
	cfg := Get()

	i := slices.Index(cfg.Server.SSHWhitelist, fingerprint)
	if i < 0 {
		return fmt.Errorf("key not found in whitelist")
	}

	cfg.Server.SSHWhitelist = slices.Delete(cfg.Server.SSHWhitelist, i, i+1)
	viper.Set("server.ssh_whitelist", cfg.Server.SSHWhitelist)
	return Save()
}

// IsSSHKeyWhitelisted checks if an SSH key fingerprint is whitelisted
func IsSSHKeyWhitelisted(fingerprint string) bool {
	return slices.Contains(Get().Server.SSHWhitelist, fingerprint)
}

func defaultHostKeyPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "keytap", "host_key")
	}
	return "keytap_host_key"
}
