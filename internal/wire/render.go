package wire

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/keytap/internal/input"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Format selects how an Encoder writes events.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatProto Format = "proto"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatJSON, FormatProto}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want text, json or proto)", s)
}

// Text renders e as one human readable line without a newline.
func Text(e input.Event) string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	b.WriteString(e.Type.String())
	if e.Unicode != nil {
		fmt.Fprintf(&b, " text=%q", e.Unicode.Name)
		if e.Unicode.IsDead {
			b.WriteString(" dead")
		}
	}
	fmt.Fprintf(&b, " code=%d pos=%d", e.PlatformCode, e.PositionCode)
	if e.USBHID != 0 {
		fmt.Fprintf(&b, " hid=0x%02x", e.USBHID)
	}
	if e.ExtraData != 0 {
		fmt.Fprintf(&b, " extra=%#x", e.ExtraData)
	}
	return b.String()
}

// Struct maps e to a JSON-like structure. 64-bit values are decimal strings
// as in the protobuf JSON mapping, since doubles cannot hold them exactly.
func Struct(e input.Event) (*structpb.Struct, error) {
	t := e.Type
	m := map[string]any{
		"kind":          t.Kind.String(),
		"platform_code": float64(e.PlatformCode),
		"position_code": float64(e.PositionCode),
		"usb_hid":       float64(e.USBHID),
		"extra_data":    strconv.FormatUint(e.ExtraData, 10),
	}
	if !e.Time.IsZero() {
		m["time"] = e.Time.UTC().Format(time.RFC3339Nano)
	}

	switch t.Kind {
	case input.KindKeyPress, input.KindKeyRelease:
		m["key"] = t.Key.String()
	case input.KindButtonPress, input.KindButtonRelease:
		m["button"] = t.Button.String()
	case input.KindMouseMove:
		m["x"] = t.X
		m["y"] = t.Y
	case input.KindWheel:
		m["delta_x"] = strconv.FormatInt(t.DeltaX, 10)
		m["delta_y"] = strconv.FormatInt(t.DeltaY, 10)
	}

	if e.Unicode != nil {
		m["text"] = e.Unicode.Name
		m["dead"] = e.Unicode.IsDead
	}
	return structpb.NewStruct(m)
}

// JSON renders e as a single-line JSON object.
func JSON(e input.Event) ([]byte, error) {
	s, err := Struct(e)
	if err != nil {
		return nil, fmt.Errorf("failed to convert event: %w", err)
	}
	return protojson.MarshalOptions{Multiline: false}.Marshal(s)
}

// Encoder writes events to w in one format.
type Encoder struct {
	w      io.Writer
	format Format
}

func NewEncoder(w io.Writer, format Format) *Encoder {
	return &Encoder{w: w, format: format}
}

// Encode writes one event: a line for text and JSON, a frame for proto.
func (enc *Encoder) Encode(e input.Event) error {
	switch enc.format {
	case FormatProto:
		return WriteFrame(enc.w, e)
	case FormatJSON:
		data, err := JSON(e)
		if err != nil {
			return err
		}
		_, err = enc.w.Write(append(data, '\n'))
		return err
	default:
		_, err := io.WriteString(enc.w, Text(e)+"\n")
		return err
	}
}
