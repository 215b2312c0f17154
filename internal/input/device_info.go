package input

import (
	"os"
	"path/filepath"
	"strings"
)

// DeviceType classifies an input device.
type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeKeyboard
	DeviceTypePointer
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeKeyboard:
		return "keyboard"
	case DeviceTypePointer:
		return "pointer"
	default:
		return "other"
	}
}

// DeviceInfo describes an input device a session can read from.
type DeviceInfo struct {
	Path string
	Name string
	Type DeviceType
	// ByIDPath is the persistent /dev/input/by-id link, if any
	ByIDPath string
}

// persistentPath finds the /dev/input/by-id (or by-path) link pointing at an
// event device, or "".
func persistentPath(eventPath string) string {
	eventName := filepath.Base(eventPath)
	for _, dir := range []string{"/dev/input/by-id", "/dev/input/by-path"} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.Contains(entry.Name(), "event") {
				continue
			}
			link := filepath.Join(dir, entry.Name())
			if target, err := os.Readlink(link); err == nil && filepath.Base(target) == eventName {
				return link
			}
		}
	}
	return ""
}
