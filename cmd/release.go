package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/keytap/internal/config"
	"github.com/bnema/keytap/internal/ipc"
	"github.com/bnema/keytap/internal/ui"
	"github.com/spf13/cobra"
)

// releaseCmd represents the release command
var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "End the grab of a running 'keytap grab'",
	Long: `Ask a running 'keytap grab' process to exit its grab session and give
input back to other applications.

This command is useful for keybindings in window managers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient(config.Get().Grab.SocketPath)
		if err != nil {
			return fmt.Errorf("failed to create IPC client: %w", err)
		}

		status, err := client.Release()
		if errors.Is(err, ipc.ErrNotRunning) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(false, "keytap grab is not running"))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to release grab: %w", err)
		}

		if status.Grabbed {
			return fmt.Errorf("grab is still active in process %d", status.PID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(true, fmt.Sprintf("Grab released (pid %d)", status.PID)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}
