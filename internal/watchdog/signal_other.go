//go:build !unix

package watchdog

// notifyRelease is a no-op: there is no SIGUSR1 on this platform.
func notifyRelease(func()) (stop func()) {
	return func() {}
}
