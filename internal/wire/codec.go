// Package wire encodes captured events for other processes: protobuf frames
// described by event.proto, and text or JSON lines for people and scripts.
package wire

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bnema/keytap/internal/input"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of event.proto
const (
	fieldKind         protowire.Number = 1
	fieldKey          protowire.Number = 2
	fieldKeyName      protowire.Number = 3
	fieldButton       protowire.Number = 4
	fieldX            protowire.Number = 5
	fieldY            protowire.Number = 6
	fieldDeltaX       protowire.Number = 7
	fieldDeltaY       protowire.Number = 8
	fieldTime         protowire.Number = 9
	fieldText         protowire.Number = 10
	fieldDead         protowire.Number = 11
	fieldPlatformCode protowire.Number = 12
	fieldPositionCode protowire.Number = 13
	fieldUSBHID       protowire.Number = 14
	fieldExtraData    protowire.Number = 15
)

var ErrMalformed = errors.New("malformed event")

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// Marshal appends the protobuf encoding of e to b.
func Marshal(b []byte, e input.Event) []byte {
	t := e.Type
	b = appendVarint(b, fieldKind, uint64(t.Kind))
	if t.IsKey() {
		b = appendVarint(b, fieldKey, uint64(t.Key))
		b = appendString(b, fieldKeyName, t.Key.String())
	}
	b = appendVarint(b, fieldButton, uint64(t.Button))
	b = appendDouble(b, fieldX, t.X)
	b = appendDouble(b, fieldY, t.Y)
	b = appendVarint(b, fieldDeltaX, protowire.EncodeZigZag(t.DeltaX))
	b = appendVarint(b, fieldDeltaY, protowire.EncodeZigZag(t.DeltaY))
	if !e.Time.IsZero() {
		b = appendVarint(b, fieldTime, uint64(e.Time.UnixNano()))
	}
	if e.Unicode != nil {
		b = appendString(b, fieldText, e.Unicode.Name)
		if e.Unicode.IsDead {
			b = appendVarint(b, fieldDead, 1)
		}
	}
	b = appendVarint(b, fieldPlatformCode, uint64(e.PlatformCode))
	b = appendVarint(b, fieldPositionCode, uint64(e.PositionCode))
	b = appendVarint(b, fieldUSBHID, uint64(e.USBHID))
	b = appendVarint(b, fieldExtraData, e.ExtraData)
	return b
}

// Unmarshal decodes one event. Unknown fields are skipped.
func Unmarshal(b []byte) (input.Event, error) {
	var (
		e    input.Event
		text *string
		dead bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return input.Event{}, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return input.Event{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldKind:
				e.Type.Kind = input.EventKind(v)
			case fieldKey:
				e.Type.Key = input.Key(v)
			case fieldButton:
				e.Type.Button = input.Button(v)
			case fieldDeltaX:
				e.Type.DeltaX = protowire.DecodeZigZag(v)
			case fieldDeltaY:
				e.Type.DeltaY = protowire.DecodeZigZag(v)
			case fieldTime:
				e.Time = time.Unix(0, int64(v))
			case fieldDead:
				dead = v != 0
			case fieldPlatformCode:
				e.PlatformCode = uint32(v)
			case fieldPositionCode:
				e.PositionCode = uint32(v)
			case fieldUSBHID:
				e.USBHID = uint32(v)
			case fieldExtraData:
				e.ExtraData = v
			}

		case typ == protowire.Fixed64Type && (num == fieldX || num == fieldY):
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return input.Event{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			if num == fieldX {
				e.Type.X = math.Float64frombits(v)
			} else {
				e.Type.Y = math.Float64frombits(v)
			}

		case typ == protowire.BytesType && num == fieldText:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return input.Event{}, fmt.Errorf("%w: text: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			text = &s

		default:
			// key_name is informational, the key field is authoritative
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return input.Event{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if text != nil {
		e.Unicode = &input.UnicodeInfo{Name: *text, IsDead: dead}
	}
	if e.Type.Kind < input.KindKeyPress || e.Type.Kind > input.KindWheel {
		return input.Event{}, fmt.Errorf("%w: kind %d", ErrMalformed, e.Type.Kind)
	}
	return e, nil
}
