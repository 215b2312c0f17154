package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/keytap/internal/config"
	"github.com/bnema/keytap/internal/input"
	"golang.design/x/mainthread"
)

// hubSize is the number of events buffered between the capture thread and
// the consumers.
const hubSize = 1024

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// startListen runs a listen session on the main thread, which the macOS run
// loop requires. The session's result is sent on the returned channel.
func startListen(hub *input.Hub) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		mainthread.Call(func() {
			err = input.Listen(func(e input.Event) { hub.Publish(e) })
		})
		errCh <- err
	}()
	return errCh
}

// grabRules holds the parsed grab settings
type grabRules struct {
	block   []input.Key
	release *input.Hotkey
}

// parseGrabRules reads key names and the release hotkey. An empty hotkey
// disables it.
func parseGrabRules(block []string, hotkey string) (grabRules, error) {
	var r grabRules
	for _, name := range block {
		k, err := input.ParseKey(name)
		if err != nil {
			return grabRules{}, fmt.Errorf("grab.block: %w", err)
		}
		r.block = append(r.block, k)
	}
	if hotkey != "" {
		h, err := input.ParseHotkey(hotkey)
		if err != nil {
			return grabRules{}, fmt.Errorf("grab.release_hotkey: %w", err)
		}
		r.release = &h
	}
	return r, nil
}

// startGrab installs a grab session that vetoes blocked keys, exits on the
// release hotkey and publishes every event to hub.
func startGrab(hub *input.Hub, rules grabRules) <-chan error {
	filter := input.NewGrabFilter(rules.block, rules.release, func() { _ = input.ExitGrab() })
	filter.OnEvent(func(e input.Event) { hub.Publish(e) })

	errCh := make(chan error, 1)
	go func() {
		errCh <- input.Grab(filter.Decide)
	}()
	return errCh
}

// currentGrabRules parses the configured grab settings
func currentGrabRules() (grabRules, error) {
	cfg := config.Get()
	return parseGrabRules(cfg.Grab.Block, cfg.Grab.ReleaseHotkey)
}

// stopGrab ends the grab started by startGrab and waits for the session to
// release its native resources.
func stopGrab(errCh <-chan error) error {
	var err error
	done := make(chan struct{})
	go func() {
		err = <-errCh
		close(done)
	}()
	exitGrabUntil(done)
	return err
}

// exitGrabUntil calls ExitGrab until done is closed. The call is repeated
// because the session may not have begun installing yet.
func exitGrabUntil(done <-chan struct{}) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		_ = input.ExitGrab()
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
