package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bnema/keytap/internal/config"
	"github.com/bnema/keytap/internal/input"
	"github.com/bnema/keytap/internal/ui"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage keytap configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), renderConfig(config.Get(), config.GetConfigPath()))
		return nil
	},
}

func renderConfig(cfg *config.Config, path string) string {
	orNone := func(v []string) string {
		if len(v) == 0 {
			return "none"
		}
		return strings.Join(v, ", ")
	}

	lines := []string{
		ui.TitleStyle.Render("KEYTAP CONFIG") + " " + ui.SubtleStyle.Render(path),
		"",
		ui.HeaderStyle.Render("[capture]"),
		ui.FormatKV("keyboard_only", cfg.Capture.KeyboardOnly),
		ui.FormatKV("layout", cfg.Capture.Layout),
		"",
		ui.HeaderStyle.Render("[grab]"),
		ui.FormatKV("block", orNone(cfg.Grab.Block)),
		ui.FormatKV("release_hotkey", cfg.Grab.ReleaseHotkey),
		ui.FormatKV("socket_path", cfg.Grab.SocketPath),
		ui.FormatKV("release_file", cfg.Grab.ReleaseFile),
		ui.FormatKV("idle_timeout", cfg.Grab.IdleTimeout),
		"",
		ui.HeaderStyle.Render("[server]"),
		ui.FormatKV("port", cfg.Server.Port),
		ui.FormatKV("bind_address", cfg.Server.BindAddress),
		ui.FormatKV("max_clients", cfg.Server.MaxClients),
		ui.FormatKV("ssh_host_key", cfg.Server.SSHHostKeyPath),
		ui.FormatKV("whitelist_only", cfg.Server.SSHWhitelistOnly),
		ui.FormatKV("ssh_whitelist", orNone(cfg.Server.SSHWhitelist)),
		"",
		ui.HeaderStyle.Render("[logging]"),
		ui.FormatKV("log_level", cfg.Logging.LogLevel),
	}
	return strings.Join(lines, "\n")
}

// initAnswers holds the values asked by 'keytap config init'
type initAnswers struct {
	Layout        string
	KeyboardOnly  bool
	ReleaseHotkey string
	Block         string
	Port          string
}

func answersFrom(cfg *config.Config) initAnswers {
	return initAnswers{
		Layout:        cfg.Capture.Layout,
		KeyboardOnly:  cfg.Capture.KeyboardOnly,
		ReleaseHotkey: cfg.Grab.ReleaseHotkey,
		Block:         strings.Join(cfg.Grab.Block, ","),
		Port:          strconv.Itoa(cfg.Server.Port),
	}
}

// apply returns a copy of base updated with the answers
func (a initAnswers) apply(base config.Config) (*config.Config, error) {
	c := base
	c.Capture.Layout = a.Layout
	c.Capture.KeyboardOnly = a.KeyboardOnly

	c.Grab.ReleaseHotkey = strings.TrimSpace(a.ReleaseHotkey)
	c.Grab.Block = splitKeys(a.Block)
	if _, err := parseGrabRules(c.Grab.Block, c.Grab.ReleaseHotkey); err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(strings.TrimSpace(a.Port))
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", a.Port)
	}
	c.Server.Port = port

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func splitKeys(s string) []string {
	keys := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, strings.ToLower(part))
		}
	}
	return keys
}

func validateHotkey(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := input.ParseHotkey(s)
	return err
}

func validateKeys(s string) error {
	for _, name := range splitKeys(s) {
		if _, err := input.ParseKey(name); err != nil {
			return err
		}
	}
	return nil
}

func validatePort(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

func runInitForm(a *initAnswers) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Keyboard layout").
				Description("Used to decode the text of key presses").
				Options(huh.NewOption("US (QWERTY)", "us"), huh.NewOption("French (AZERTY)", "fr")).
				Value(&a.Layout),
			huh.NewConfirm().
				Title("Capture keyboard only?").
				Description("Mouse events are ignored when enabled").
				Value(&a.KeyboardOnly),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Release hotkey").
				Description("Ends 'keytap grab', e.g. ctrl+alt+escape. Leave empty to disable.").
				Validate(validateHotkey).
				Value(&a.ReleaseHotkey),
			huh.NewInput().
				Title("Blocked keys").
				Description("Comma separated key names swallowed while grabbed, e.g. capslock,f1").
				Validate(validateKeys).
				Value(&a.Block),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Stream port").
				Description("TCP port of 'keytap serve'").
				Validate(validatePort).
				Value(&a.Port),
		),
	)
	return form.Run()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file",
	Long: `Create the configuration file. The settings are asked interactively unless
--defaults is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configPath); err == nil && !force {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(false, "Configuration file already exists at "+configPath))
			fmt.Fprintln(cmd.OutOrStdout(), ui.SubtleStyle.Render("Use --force to overwrite"))
			return nil
		}

		base := *config.Get()
		answers := answersFrom(&base)
		if useDefaults, _ := cmd.Flags().GetBool("defaults"); !useDefaults {
			if err := runInitForm(&answers); err != nil {
				return fmt.Errorf("configuration cancelled: %w", err)
			}
		}

		cfg, err := answers.apply(base)
		if err != nil {
			return err
		}
		if err := config.Store(cfg); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(true, "Configuration written to "+configPath))
		return nil
	},
}

var configSSHCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Manage the SSH key whitelist of 'keytap serve'",
}

var configSSHListCmd = &cobra.Command{
	Use:   "list",
	Short: "List whitelisted SSH keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		if len(cfg.Server.SSHWhitelist) == 0 {
			fmt.Fprintln(out, ui.SubtleStyle.Render("No SSH keys in whitelist"))
		} else {
			for i, fp := range cfg.Server.SSHWhitelist {
				fmt.Fprintf(out, "%d. %s\n", i+1, fp)
			}
		}

		if cfg.Server.SSHWhitelistOnly {
			fmt.Fprintln(out, ui.InfoStyle.Render("Whitelist-only mode is enabled"))
		} else {
			fmt.Fprintln(out, ui.WarningStyle.Render("Whitelist-only mode is disabled: every key is accepted"))
		}
		return nil
	},
}

var configSSHAddCmd = &cobra.Command{
	Use:   "add <fingerprint>",
	Short: "Allow an SSH key fingerprint (SHA256:...)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fingerprint := args[0]
		if !strings.HasPrefix(fingerprint, "SHA256:") {
			return fmt.Errorf("fingerprint must start with SHA256: (see ssh-keygen -lf)")
		}
		if err := config.AddSSHKeyToWhitelist(fingerprint); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(true, "Added "+fingerprint))
		return nil
	},
}

var configSSHRemoveCmd = &cobra.Command{
	Use:   "remove <fingerprint>",
	Short: "Remove SSH key from whitelist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.RemoveSSHKeyFromWhitelist(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(true, "Removed "+args[0]))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSSHCmd)

	configSSHCmd.AddCommand(configSSHListCmd)
	configSSHCmd.AddCommand(configSSHAddCmd)
	configSSHCmd.AddCommand(configSSHRemoveCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	configInitCmd.Flags().BoolP("defaults", "y", false, "Write the current settings without asking")

	rootCmd.AddCommand(configCmd)
}
