package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/keytap/internal/config"
	"github.com/bnema/keytap/internal/input"
	"github.com/bnema/keytap/internal/ipc"
	"github.com/bnema/keytap/internal/logger"
	"github.com/bnema/keytap/internal/watchdog"
	"github.com/bnema/keytap/internal/wire"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	grabFormat string
	grabQuiet  bool
)

var grabCmd = &cobra.Command{
	Use:   "grab",
	Short: "Intercept input, swallowing blocked keys",
	Long: `Install a grab session. Keys named with --block (or grab.block in the config)
are swallowed before any other application sees them; everything else passes
through. Pressing the release hotkey, running 'keytap release' or sending
SIGINT ends the grab.

When the keyboard is unusable, SIGUSR1, creating grab.release_file or
grab.idle_timeout without input also end the grab.`,
	Example: `  keytap grab --block capslock --block f1
  keytap grab --release-hotkey ctrl+shift+q --format json`,
	RunE: runGrab,
}

func init() {
	grabCmd.Flags().StringSlice("block", nil, "Key to swallow while grabbed (repeatable)")
	grabCmd.Flags().String("release-hotkey", "", "Hotkey that ends the grab (empty keeps the configured one)")
	grabCmd.Flags().StringVarP(&grabFormat, "format", "f", string(wire.FormatText), "Output format (text, json, proto)")
	grabCmd.Flags().BoolVarP(&grabQuiet, "quiet", "q", false, "Do not print events")

	_ = viper.BindPFlag("grab.block", grabCmd.Flags().Lookup("block"))
	_ = viper.BindPFlag("grab.release_hotkey", grabCmd.Flags().Lookup("release-hotkey"))

	rootCmd.AddCommand(grabCmd)
}

// grabController answers control socket requests for a running grab
type grabController struct {
	releaseHotkey string
	blocked       []string
}

func (c *grabController) status() ipc.Status {
	return ipc.Status{
		Grabbed:       input.IsGrabbed(),
		Since:         input.GrabbedSince(),
		PID:           os.Getpid(),
		KeyboardOnly:  input.KeyboardOnly(),
		ReleaseHotkey: c.releaseHotkey,
		Blocked:       c.blocked,
	}
}

// HandleRelease ends the grab. Releasing an idle process is not an error.
func (c *grabController) HandleRelease() (ipc.Status, error) {
	if input.IsGrabbed() {
		logger.Info("Grab released over control socket")
	}
	if err := input.ExitGrab(); err != nil {
		return ipc.Status{}, err
	}
	return c.status(), nil
}

func (c *grabController) HandleStatus() (ipc.Status, error) {
	return c.status(), nil
}

func runGrab(cmd *cobra.Command, args []string) error {
	format, err := wire.ParseFormat(grabFormat)
	if err != nil {
		return err
	}
	cfg := config.Get()
	rules, err := currentGrabRules()
	if err != nil {
		return err
	}

	controller := &grabController{blocked: cfg.Grab.Block}
	if rules.release != nil {
		controller.releaseHotkey = rules.release.String()
	}

	sock, err := ipc.NewSocketServer(cfg.Grab.SocketPath, controller)
	if err != nil {
		return fmt.Errorf("failed to create control socket: %w", err)
	}
	if err := sock.Start(); err != nil {
		return fmt.Errorf("failed to start control socket: %w", err)
	}
	defer sock.Stop()

	ctx, cancel := signalContext()
	defer cancel()

	hub := input.NewHub(hubSize)
	events, unsubscribe := hub.Subscribe(hubSize)
	defer unsubscribe()
	go hub.Run(ctx)

	wd := watchdog.New(watchdog.Options{
		TriggerFile: cfg.Grab.ReleaseFile,
		IdleTimeout: cfg.Grab.IdleTimeout,
		Signal:      true,
	}, func(reason string) { _ = input.ExitGrab() })
	go wd.Run(ctx)

	errCh := startGrab(hub, rules)
	logger.Info("Grab started", "release", controller.releaseHotkey, "blocked", len(rules.block), "socket", sock.Path())

	enc := wire.NewEncoder(os.Stdout, format)
	for {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("grab failed: %w", err)
			}
			logger.Info("Grab ended")
			return nil
		case <-ctx.Done():
			if err := stopGrab(errCh); err != nil {
				return fmt.Errorf("grab failed: %w", err)
			}
			logger.Info("Grab ended")
			return nil
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			wd.Touch()
			if grabQuiet {
				continue
			}
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		}
	}
}
