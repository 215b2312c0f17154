package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Message types carried in the "type" field
const (
	TypeRelease = "release"
	TypeStatus  = "status"
	TypeError   = "error"
)

// maxMessageSize bounds one control message.
const maxMessageSize = 1 << 16

// Status describes the running grab process.
type Status struct {
	Grabbed       bool
	Since         time.Time
	PID           int
	KeyboardOnly  bool
	ReleaseHotkey string
	Blocked       []string
}

// Uptime returns how long the session has been grabbed, or 0.
func (s Status) Uptime(now time.Time) time.Duration {
	if !s.Grabbed || s.Since.IsZero() {
		return 0
	}
	return now.Sub(s.Since)
}

func newMessage(typ string, fields map[string]any) (*structpb.Struct, error) {
	m := map[string]any{"type": typ}
	for k, v := range fields {
		m[k] = v
	}
	return structpb.NewStruct(m)
}

// NewReleaseRequest creates a message asking the grab process to exit its grab
func NewReleaseRequest() (*structpb.Struct, error) {
	return newMessage(TypeRelease, nil)
}

// NewStatusRequest creates a status query
func NewStatusRequest() (*structpb.Struct, error) {
	return newMessage(TypeStatus, nil)
}

// NewStatusResponse creates a status response
func NewStatusResponse(s Status) (*structpb.Struct, error) {
	blocked := make([]any, len(s.Blocked))
	for i, b := range s.Blocked {
		blocked[i] = b
	}
	fields := map[string]any{
		"grabbed":        s.Grabbed,
		"pid":            float64(s.PID),
		"keyboard_only":  s.KeyboardOnly,
		"release_hotkey": s.ReleaseHotkey,
		"blocked":        blocked,
	}
	if !s.Since.IsZero() {
		fields["since"] = s.Since.UTC().Format(time.RFC3339Nano)
	}
	return newMessage(TypeStatus, fields)
}

// NewErrorResponse creates an error response
func NewErrorResponse(errMsg string) (*structpb.Struct, error) {
	return newMessage(TypeError, map[string]any{"error": errMsg})
}

// MessageType returns the "type" field of msg
func MessageType(msg *structpb.Struct) string {
	return msg.GetFields()["type"].GetStringValue()
}

// ParseStatus extracts a status from a response. Error responses become errors.
func ParseStatus(msg *structpb.Struct) (Status, error) {
	switch MessageType(msg) {
	case TypeStatus:
	case TypeError:
		return Status{}, fmt.Errorf("server error: %s", msg.GetFields()["error"].GetStringValue())
	default:
		return Status{}, fmt.Errorf("unexpected response type: %q", MessageType(msg))
	}

	f := msg.GetFields()
	s := Status{
		Grabbed:       f["grabbed"].GetBoolValue(),
		PID:           int(f["pid"].GetNumberValue()),
		KeyboardOnly:  f["keyboard_only"].GetBoolValue(),
		ReleaseHotkey: f["release_hotkey"].GetStringValue(),
	}
	for _, v := range f["blocked"].GetListValue().GetValues() {
		s.Blocked = append(s.Blocked, v.GetStringValue())
	}
	if since := f["since"].GetStringValue(); since != "" {
		t, err := time.Parse(time.RFC3339Nano, since)
		if err != nil {
			return Status{}, fmt.Errorf("invalid since field: %w", err)
		}
		s.Since = t
	}
	return s, nil
}

// readMessage reads a length-prefixed protobuf message
func readMessage(r io.Reader) (*structpb.Struct, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if length > maxMessageSize {
		return nil, fmt.Errorf("message of %d bytes exceeds limit", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read message data: %w", err)
	}

	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

// writeMessage writes a protobuf message with a 4-byte big-endian length
func writeMessage(w io.Writer, msg *structpb.Struct) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("failed to write message length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message data: %w", err)
	}
	return nil
}
