//go:build !darwin && !windows && !linux

package input

var nativeKeyCodes = map[uint32]Key{}

type unsupportedBackend struct{}

func newNativeBackend() backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) listen(captureOptions) error {
	return newCaptureError(ModeListen, ErrUnsupported, 0, nil)
}

func (unsupportedBackend) openGrab(captureOptions) (grabLoop, error) {
	return nil, newCaptureError(ModeGrab, ErrUnsupported, 0, nil)
}
