package imagelib

import (
	"fmt"

	"github.com/moffa90/go-npedl/npe"
)

// SignatureError indicates that a library starts with neither the legacy
// signature nor an image marker.
type SignatureError struct {
	Found uint32
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("invalid library signature 0x%08X", e.Found)
}

func (e *SignatureError) Unwrap() error { return npe.ErrFail }

// LibraryError indicates a structurally broken library.
type LibraryError struct {
	Offset int
	Reason string
}

func (e *LibraryError) Error() string {
	return fmt.Sprintf("corrupt library at word %d: %s", e.Offset, e.Reason)
}

func (e *LibraryError) Unwrap() error { return npe.ErrFail }

// NotFoundError indicates that no image in the library matches.
type NotFoundError struct {
	ID ImageID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("image %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return npe.ErrFail }

// ListOverflowError indicates that the list buffer was too small. Count is the
// number of images in the library.
type ListOverflowError struct {
	Count    int
	Capacity int
}

func (e *ListOverflowError) Error() string {
	return fmt.Sprintf("library holds %d images, list capacity is %d", e.Count, e.Capacity)
}

func (e *ListOverflowError) Unwrap() error { return npe.ErrFail }
