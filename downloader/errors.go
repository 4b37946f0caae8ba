package downloader

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-npedl/npe"
)

// ErrNotInitialized is returned by operations that need the engine windows
// mapped before Init or after Uninit.
var ErrNotInitialized = &npe.Error{Op: "downloader", Code: npe.CodeFail, Err: errors.New("not initialized")}

// DeviceMismatchError indicates that an image was built for a newer device
// than the running one.
type DeviceMismatchError struct {
	Image   npe.DeviceType
	Running npe.DeviceType
}

func (e *DeviceMismatchError) Error() string {
	return fmt.Sprintf("device mismatch: image targets %s, running on %s", e.Image, e.Running)
}

// Unwrap classifies the mismatch.
func (e *DeviceMismatchError) Unwrap() error {
	return npe.ErrDevice
}

// NoImageError indicates that no valid image is loaded on an engine.
type NoImageError struct {
	Engine npe.ID
}

func (e *NoImageError) Error() string {
	return fmt.Sprintf("no valid image loaded on %s", e.Engine)
}

// Unwrap classifies the error as a plain failure.
func (e *NoImageError) Unwrap() error {
	return npe.ErrFail
}
