// Package watchdog ends a grab when the usual release paths are out of reach:
// a trigger file appears, SIGUSR1 arrives, or no input was seen for a while.
package watchdog

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/bnema/keytap/internal/logger"
)

// Reasons passed to the release callback
const (
	ReasonSignal = "signal"
	ReasonFile   = "file"
	ReasonIdle   = "idle"
)

// Options configures a Watchdog. Zero values disable the matching trigger.
type Options struct {
	// TriggerFile is polled; when it exists it is removed and the grab released
	TriggerFile string
	// IdleTimeout releases the grab after this long without Touch
	IdleTimeout time.Duration
	// PollInterval defaults to one second
	PollInterval time.Duration
	// Signal enables the SIGUSR1 trigger where the platform has it
	Signal bool
}

// Watchdog watches the emergency release triggers
type Watchdog struct {
	opts      Options
	onRelease func(reason string)

	mu           sync.Mutex
	lastActivity time.Time
	now          func() time.Time
}

// New creates a watchdog calling onRelease each time a trigger fires
func New(opts Options, onRelease func(reason string)) *Watchdog {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &Watchdog{
		opts:         opts,
		onRelease:    onRelease,
		lastActivity: time.Now(),
		now:          time.Now,
	}
}

// Touch records input activity
func (w *Watchdog) Touch() {
	w.mu.Lock()
	w.lastActivity = w.now()
	w.mu.Unlock()
}

// Run watches until ctx is done
func (w *Watchdog) Run(ctx context.Context) {
	if w.opts.Signal {
		stop := notifyRelease(func() { w.trigger(ReasonSignal) })
		defer stop()
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watchdog) check() {
	if w.opts.TriggerFile != "" {
		if _, err := os.Stat(w.opts.TriggerFile); err == nil {
			if err := os.Remove(w.opts.TriggerFile); err != nil {
				logger.Warnf("Failed to remove release file %s: %v", w.opts.TriggerFile, err)
			}
			w.trigger(ReasonFile)
			return
		}
	}

	if w.opts.IdleTimeout > 0 {
		w.mu.Lock()
		idle := w.now().Sub(w.lastActivity)
		w.mu.Unlock()
		if idle >= w.opts.IdleTimeout {
			w.trigger(ReasonIdle)
		}
	}
}

func (w *Watchdog) trigger(reason string) {
	logger.Warn("Emergency release", "reason", reason)
	if w.onRelease != nil {
		w.onRelease(reason)
	}
	w.Touch()
}
