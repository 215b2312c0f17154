package cmd

import (
	"fmt"

	"github.com/bnema/keytap/internal/config"
	"github.com/bnema/keytap/internal/input"
	"github.com/bnema/keytap/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	keyboardOnly bool
	logLevel     string

	rootCmd = &cobra.Command{
		Use:   "keytap",
		Short: "keytap - observe and intercept keyboard and mouse input",
		Long: `keytap installs OS-level input capture sessions on macOS, Windows and Linux.
In listen mode every keyboard and mouse event is observed without being altered.
In grab mode events can be swallowed before any other application sees them.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/keytap/keytap.toml)")
	rootCmd.PersistentFlags().BoolVarP(&keyboardOnly, "keyboard-only", "k", false, "Capture keyboard events only")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	_ = viper.BindPFlag("capture.keyboard_only", rootCmd.PersistentFlags().Lookup("keyboard-only"))
	_ = viper.BindPFlag("logging.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// loadConfig reads the configuration and applies it to the logger and the
// capture engine before any command runs.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		config.SetConfigPath(cfgFile)
	}
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	if cfg.Logging.LogLevel != "" {
		if err := logger.SetLevel(cfg.Logging.LogLevel); err != nil {
			return err
		}
	}

	input.SetKeyboardOnly(cfg.Capture.KeyboardOnly)
	if err := input.SetLayout(cfg.Capture.Layout); err != nil {
		return fmt.Errorf("capture.layout: %w", err)
	}
	logger.Debugf("Config loaded from %s", config.GetConfigPath())
	return nil
}
