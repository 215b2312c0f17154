package stream

import (
	"io"
	"sync"
	"time"
)

// bufferedWriter batches small writes to an SSH channel. Data is written once
// maxSize bytes are pending or maxDelay after the first pending write,
// whichever comes first.
type bufferedWriter struct {
	mu       sync.Mutex
	w        io.Writer
	buf      []byte
	maxDelay time.Duration
	maxSize  int
	timer    *time.Timer
	err      error
	closed   bool
}

func newBufferedWriter(w io.Writer, maxDelay time.Duration, maxSize int) *bufferedWriter {
	return &bufferedWriter{
		w:        w,
		buf:      make([]byte, 0, maxSize),
		maxDelay: maxDelay,
		maxSize:  maxSize,
	}
}

// Write implements io.Writer. It returns the error of an earlier background
// flush, if any.
func (bw *bufferedWriter) Write(p []byte) (int, error) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.err != nil {
		return 0, bw.err
	}
	if bw.closed {
		return 0, io.ErrClosedPipe
	}

	if len(bw.buf)+len(p) > bw.maxSize {
		if err := bw.flushLocked(); err != nil {
			return 0, err
		}
	}
	bw.buf = append(bw.buf, p...)

	if bw.timer == nil {
		bw.timer = time.AfterFunc(bw.maxDelay, func() { _ = bw.Flush() })
	}
	return len(p), nil
}

// Flush writes pending data now.
func (bw *bufferedWriter) Flush() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.flushLocked()
}

func (bw *bufferedWriter) flushLocked() error {
	if bw.timer != nil {
		bw.timer.Stop()
		bw.timer = nil
	}
	if len(bw.buf) == 0 || bw.err != nil {
		return bw.err
	}

	_, err := bw.w.Write(bw.buf)
	bw.buf = bw.buf[:0]
	if err != nil {
		bw.err = err
	}
	return err
}

// Close flushes pending data. Later writes fail.
func (bw *bufferedWriter) Close() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	err := bw.flushLocked()
	bw.closed = true
	return err
}
