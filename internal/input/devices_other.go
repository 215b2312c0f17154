//go:build !linux

package input

// ListDevices is only meaningful where capture reads device nodes.
func ListDevices() ([]DeviceInfo, error) {
	return nil, ErrUnsupported
}
