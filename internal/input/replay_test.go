package input

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingDevice struct {
	calls []string
}

func (r *recordingDevice) add(format string, args ...any) error {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return nil
}

func (r *recordingDevice) KeyDown(key int) error   { return r.add("down %d", key) }
func (r *recordingDevice) KeyUp(key int) error     { return r.add("up %d", key) }
func (r *recordingDevice) KeyRepeat(key int) error { return r.add("repeat %d", key) }
func (r *recordingDevice) Move(x, y int32) error   { return r.add("move %d %d", x, y) }
func (r *recordingDevice) LeftPress() error        { return r.add("left press") }
func (r *recordingDevice) LeftRelease() error      { return r.add("left release") }
func (r *recordingDevice) RightPress() error       { return r.add("right press") }
func (r *recordingDevice) RightRelease() error     { return r.add("right release") }
func (r *recordingDevice) MiddlePress() error      { return r.add("middle press") }
func (r *recordingDevice) MiddleRelease() error    { return r.add("middle release") }
func (r *recordingDevice) Wheel(h bool, d int32) error {
	return r.add("wheel %t %d", h, d)
}

func TestReplayRecord(t *testing.T) {
	kb := &recordingDevice{}
	mouse := &recordingDevice{}

	records := []evdevRecord{
		{evMsc, mscScan, 0x70004},
		{evKey, evdevA, keyPress},
		{evKey, evdevA, keyRepeat},
		{evKey, evdevA, keyRelease},
		{evSyn, 0, 0},
		{evKey, btnLeft, 1},
		{evKey, btnLeft, 0},
		{evKey, btnMiddle, 1},
		{evRel, relX, 3},
		{evRel, relY, -2},
		{evRel, relWheel, 1},
		{evRel, relHWheel, -1},
	}
	for _, rec := range records {
		assert.NoError(t, replayRecord(kb, mouse, rec))
	}

	assert.Equal(t, []string{"down 30", "repeat 30", "up 30"}, kb.calls)
	assert.Equal(t, []string{
		"left press",
		"left release",
		"middle press",
		"move 3 0",
		"move 0 -2",
		"wheel false 1",
		"wheel true -1",
	}, mouse.calls)
}

func TestReplayRecordWithoutMouse(t *testing.T) {
	kb := &recordingDevice{}

	assert.NoError(t, replayRecord(kb, nil, evdevRecord{evKey, btnLeft, 1}))
	assert.NoError(t, replayRecord(kb, nil, evdevRecord{evRel, relX, 1}))
	assert.Empty(t, kb.calls)
}

func TestReplayRecordUnsupportedButton(t *testing.T) {
	mouse := &recordingDevice{}
	assert.Error(t, replayRecord(&recordingDevice{}, mouse, evdevRecord{evKey, btnSide, 1}))
	assert.Empty(t, mouse.calls)
}
