package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/keytap/internal/input"
	"github.com/bnema/keytap/internal/logger"
	"github.com/bnema/keytap/internal/wire"
	"github.com/spf13/cobra"
)

var listenFormat string

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print every keyboard and mouse event",
	Long: `Install a listen session and print every event to stdout until interrupted.
Events are observed only; other applications receive them unchanged.

Formats:
  text   one human readable line per event
  json   one JSON object per line
  proto  length-prefixed protobuf frames (see internal/wire/event.proto)`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVarP(&listenFormat, "format", "f", string(wire.FormatText), "Output format (text, json, proto)")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	format, err := wire.ParseFormat(listenFormat)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	hub := input.NewHub(hubSize)
	events, unsubscribe := hub.Subscribe(hubSize)
	defer unsubscribe()
	go hub.Run(ctx)

	errCh := startListen(hub)
	logger.Debug("Listening", "format", format, "keyboard_only", input.KeyboardOnly())

	enc := wire.NewEncoder(os.Stdout, format)
	for {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("listen failed: %w", err)
			}
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		case <-ctx.Done():
			if d := hub.Dropped(); d > 0 {
				logger.Warnf("%d events were dropped", d)
			}
			return nil
		}
	}
}
