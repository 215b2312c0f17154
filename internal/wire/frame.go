package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bnema/keytap/internal/input"
)

// MaxFrameSize bounds a single encoded event.
const MaxFrameSize = 1 << 12

// WriteFrame writes e with a 4-byte big-endian length prefix.
func WriteFrame(w io.Writer, e input.Event) error {
	buf := make([]byte, 4, 64)
	buf = Marshal(buf, e)
	binary.BigEndian.PutUint32(buf[:4], uint32(len(buf)-4))

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	// Force flush if the writer supports it
	if flusher, ok := w.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}
	return nil
}

// ReadFrame reads one length-prefixed event. It returns io.EOF only when r
// ends cleanly between frames.
func ReadFrame(r io.Reader) (input.Event, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return input.Event{}, fmt.Errorf("failed to read frame length: %w", err)
		}
		return input.Event{}, err
	}

	length := binary.BigEndian.Uint32(hdr[:])
	if length > MaxFrameSize {
		return input.Event{}, fmt.Errorf("%w: frame of %d bytes", ErrMalformed, length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return input.Event{}, fmt.Errorf("failed to read frame data: %w", err)
	}
	return Unmarshal(data)
}
