package cmd

import (
	"fmt"
	"io"

	"github.com/bnema/keytap/internal/input"
	"github.com/bnema/keytap/internal/logger"
	"github.com/bnema/keytap/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var monitorGrab bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Show captured events in a live table",
	Long: `Open a terminal view of every captured event. By default a listen session
is used; with --grab the configured blocked keys are swallowed and the release
hotkey ends the grab.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolVarP(&monitorGrab, "grab", "g", false, "Use a grab session instead of listening")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	hub := input.NewHub(hubSize)
	events, unsubscribe := hub.Subscribe(hubSize)
	defer unsubscribe()
	go hub.Run(ctx)

	mode := "listen"
	var errCh <-chan error
	if monitorGrab {
		rules, err := currentGrabRules()
		if err != nil {
			return err
		}
		mode = "grab"
		if rules.release != nil {
			mode += " (release " + rules.release.String() + ")"
		}
		errCh = startGrab(hub, rules)
	} else {
		errCh = startListen(hub)
	}
	if input.KeyboardOnly() {
		mode += " keyboard only"
	}

	// the TUI owns the terminal, keep logs out of it
	logger.SetOutput(io.Discard)

	model := ui.NewMonitorModel(events, mode, hub.Dropped)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	var sessionErr error
	ended := make(chan struct{})
	go func() {
		sessionErr = <-errCh
		close(ended)
		if sessionErr != nil {
			p.Quit()
		}
	}()

	_, runErr := p.Run()
	if monitorGrab {
		exitGrabUntil(ended)
	}
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("monitor failed: %w", runErr)
	}

	select {
	case <-ended:
		if sessionErr != nil {
			return fmt.Errorf("capture failed: %w", sessionErr)
		}
	default:
	}
	return nil
}
