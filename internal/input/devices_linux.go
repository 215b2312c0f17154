//go:build linux

package input

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"

	"github.com/bnema/keytap/internal/logger"
)

const (
	evdevKeyA    = 30
	evdevKeyZ    = 44
	evdevBtnLeft = btnLeft
)

// eventPaths lists /dev/input/event* sorted numerically.
func eventPaths() ([]string, error) {
	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("glob /dev/input/event*: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(matches[i], "/dev/input/event"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(matches[j], "/dev/input/event"))
		return ni < nj
	})
	return matches, nil
}

func hasCode(codes []evdev.EvCode, want evdev.EvCode) bool {
	for _, c := range codes {
		if c == want {
			return true
		}
	}
	return false
}

func hasType(types []evdev.EvType, want evdev.EvType) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// classify tells keyboards (letter keys, no relative axes) from pointers
// (relative X/Y and a left button).
func classify(dev *evdev.InputDevice) DeviceType {
	types := dev.CapableTypes()
	keys := dev.CapableEvents(evdev.EV_KEY)

	if hasType(types, evdev.EV_REL) {
		rel := dev.CapableEvents(evdev.EV_REL)
		if hasCode(rel, relX) && hasCode(rel, relY) && hasCode(keys, evdevBtnLeft) {
			return DeviceTypePointer
		}
		return DeviceTypeOther
	}
	if hasCode(keys, evdevKeyA) && hasCode(keys, evdevKeyZ) {
		return DeviceTypeKeyboard
	}
	return DeviceTypeOther
}

func isVirtualDevice(name string) bool {
	return name == virtualKeyboardName || name == virtualMouseName
}

type openedDevice struct {
	dev  evdevSource
	kind DeviceType
}

// openDevices opens every keyboard and, unless keyboardOnly, every pointer.
// skipVirtual leaves out the pass-through devices of a grab session.
func openDevices(mode Mode, keyboardOnly, skipVirtual bool) ([]openedDevice, error) {
	paths, err := eventPaths()
	if err != nil {
		return nil, newCaptureError(mode, ErrKeyboardDevice, 0, err)
	}

	var (
		opened  []openedDevice
		lastErr error
	)
	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			logger.Debugf("Cannot open %s: %v", path, err)
			lastErr = err
			continue
		}

		name, _ := dev.Name()
		kind := classify(dev)
		wanted := kind == DeviceTypeKeyboard || (kind == DeviceTypePointer && !keyboardOnly)
		if !wanted || (skipVirtual && isVirtualDevice(name)) {
			_ = dev.Close()
			continue
		}

		logger.Debugf("Using %s %s (%s)", kind, path, name)
		opened = append(opened, openedDevice{dev: dev, kind: kind})
	}

	if err := checkOpened(mode, opened, keyboardOnly, lastErr); err != nil {
		closeDevices(opened)
		return nil, err
	}
	return opened, nil
}

// checkOpened fails the session when a wanted class of device is missing. A
// node that could not be opened cannot be classified, so its error is reported
// against whichever class came up empty.
func checkOpened(mode Mode, opened []openedDevice, keyboardOnly bool, openErr error) error {
	keyboards, pointers := 0, 0
	for _, d := range opened {
		switch d.kind {
		case DeviceTypeKeyboard:
			keyboards++
		case DeviceTypePointer:
			pointers++
		}
	}

	if keyboards == 0 {
		if openErr == nil {
			openErr = fmt.Errorf("no keyboard found in /dev/input")
		}
		return newCaptureError(mode, ErrKeyboardDevice, 0, openErr)
	}
	if keyboardOnly || pointers > 0 {
		return nil
	}
	if openErr != nil {
		return newCaptureError(mode, ErrPointerDevice, 0, openErr)
	}
	logger.Warn("No pointer device found, capturing keyboards only")
	return nil
}

func closeDevices(devices []openedDevice) {
	for _, d := range devices {
		_ = d.dev.Close()
	}
}

// ListDevices returns the keyboards and pointers a session would capture.
func ListDevices() ([]DeviceInfo, error) {
	paths, err := eventPaths()
	if err != nil {
		return nil, err
	}

	var infos []DeviceInfo
	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			logger.Debugf("Cannot open %s: %v", path, err)
			continue
		}
		name, _ := dev.Name()
		kind := classify(dev)
		_ = dev.Close()
		if kind == DeviceTypeOther {
			continue
		}
		infos = append(infos, DeviceInfo{Path: path, Name: name, Type: kind, ByIDPath: persistentPath(path)})
	}
	return infos, nil
}
