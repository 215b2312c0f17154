package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/keytap/internal/config"
	"github.com/bnema/keytap/internal/ipc"
	"github.com/bnema/keytap/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running 'keytap grab'",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient(config.Get().Grab.SocketPath)
		if err != nil {
			return fmt.Errorf("failed to create IPC client: %w", err)
		}

		status, err := client.Status()
		if errors.Is(err, ipc.ErrNotRunning) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatStatus(false, "keytap grab is not running"))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get grab status: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderStatus(status, time.Now()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// renderStatus builds the status box shown by 'keytap status'
func renderStatus(status ipc.Status, now time.Time) string {
	var content strings.Builder

	if status.Grabbed {
		content.WriteString(ui.FormatStatus(true, ui.SuccessStyle.Render("Grabbed")))
	} else {
		content.WriteString(ui.FormatStatus(false, "Not grabbed"))
	}
	content.WriteString("\n\n")

	content.WriteString(ui.FormatKV("PID", status.PID))
	content.WriteString("\n")
	if status.Grabbed {
		content.WriteString(ui.FormatKV("Uptime", status.Uptime(now).Truncate(time.Second)))
		content.WriteString("\n")
	}
	content.WriteString(ui.FormatKV("Keyboard only", status.KeyboardOnly))
	content.WriteString("\n")

	hotkey := status.ReleaseHotkey
	if hotkey == "" {
		hotkey = "disabled"
	}
	content.WriteString(ui.FormatKV("Release hotkey", hotkey))
	content.WriteString("\n")

	blocked := "none"
	if len(status.Blocked) > 0 {
		blocked = strings.Join(status.Blocked, ", ")
	}
	content.WriteString(ui.FormatKV("Blocked keys", blocked))

	return ui.TitleStyle.Render("KEYTAP STATUS") + "\n\n" + ui.BoxStyle.Render(content.String())
}
