//go:build unix

package watchdog

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyRelease calls fn on every SIGUSR1 until the returned stop is called.
func notifyRelease(fn func()) (stop func()) {
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(ch, syscall.SIGUSR1)

	go func() {
		for {
			select {
			case <-ch:
				fn()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
