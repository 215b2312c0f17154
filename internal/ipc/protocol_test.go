package ipc

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRoundTrip(t *testing.T) {
	since := time.Date(2026, 10, 16, 9, 30, 0, 500, time.UTC)
	want := Status{
		Grabbed:       true,
		Since:         since,
		PID:           4242,
		KeyboardOnly:  true,
		ReleaseHotkey: "ctrl+alt+escape",
		Blocked:       []string{"CapsLock", "MetaLeft"},
	}

	msg, err := NewStatusResponse(want)
	require.NoError(t, err)
	assert.Equal(t, TypeStatus, MessageType(msg))

	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, msg))
	decoded, err := readMessage(&buf)
	require.NoError(t, err)

	got, err := ParseStatus(decoded)
	require.NoError(t, err)
	assert.True(t, got.Since.Equal(since))
	got.Since = since
	assert.Equal(t, want, got)
}

func TestStatusNotGrabbed(t *testing.T) {
	msg, err := NewStatusResponse(Status{PID: 1})
	require.NoError(t, err)

	got, err := ParseStatus(msg)
	require.NoError(t, err)
	assert.False(t, got.Grabbed)
	assert.True(t, got.Since.IsZero())
	assert.Empty(t, got.Blocked)
	assert.Equal(t, time.Duration(0), got.Uptime(time.Now()))
}

func TestUptime(t *testing.T) {
	since := time.Now().Add(-time.Minute)
	s := Status{Grabbed: true, Since: since}
	assert.Equal(t, time.Minute, s.Uptime(since.Add(time.Minute)))
}

func TestParseStatusErrors(t *testing.T) {
	errMsg, err := NewErrorResponse("no grab session")
	require.NoError(t, err)
	_, err = ParseStatus(errMsg)
	assert.EqualError(t, err, "server error: no grab session")

	release, err := NewReleaseRequest()
	require.NoError(t, err)
	_, err = ParseStatus(release)
	assert.Error(t, err)
}

func TestRequests(t *testing.T) {
	release, err := NewReleaseRequest()
	require.NoError(t, err)
	assert.Equal(t, TypeRelease, MessageType(release))

	status, err := NewStatusRequest()
	require.NoError(t, err)
	assert.Equal(t, TypeStatus, MessageType(status))
}

func TestReadMessageLimits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(maxMessageSize+1)))
	_, err := readMessage(&buf)
	assert.Error(t, err)

	buf.Reset()
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(3)))
	buf.Write([]byte{0xff, 0xff, 0xff})
	_, err = readMessage(&buf)
	assert.Error(t, err)
}
