package imagelib

import (
	"fmt"

	"github.com/moffa90/go-npedl/npe"
)

// Packed image id layout.
const (
	deviceShift        = 28
	deviceMask         = 0xF
	engineShift        = 24
	engineMask         = 0xF
	functionalityShift = 16
	functionalityMask  = 0xFF
	majorShift         = 8
	majorMask          = 0xFF
	minorMask          = 0xFF
)

// ImageID identifies a firmware image.
type ImageID struct {
	// Device is the oldest device family the image runs on
	Device npe.DeviceType

	// Engine is the engine the image is built for
	Engine npe.ID

	// Functionality selects the feature set of the image
	Functionality uint8

	// Major and Minor are the image release
	Major uint8
	Minor uint8
}

// Unpack decodes a packed 32-bit image id.
func Unpack(packed uint32) ImageID {
	return ImageID{
		Device:        npe.DeviceType((packed >> deviceShift) & deviceMask),
		Engine:        npe.ID((packed >> engineShift) & engineMask),
		Functionality: uint8((packed >> functionalityShift) & functionalityMask),
		Major:         uint8((packed >> majorShift) & majorMask),
		Minor:         uint8(packed & minorMask),
	}
}

// Pack encodes id into its 32-bit form.
func (id ImageID) Pack() uint32 {
	return uint32(id.Device)&deviceMask<<deviceShift |
		uint32(id.Engine)&engineMask<<engineShift |
		uint32(id.Functionality)<<functionalityShift |
		uint32(id.Major)<<majorShift |
		uint32(id.Minor)
}

// Matches reports whether id and o name the same image: same engine,
// functionality and release. The device field is not compared.
func (id ImageID) Matches(o ImageID) bool {
	return id.sameFunction(o) && id.Major == o.Major && id.Minor == o.Minor
}

func (id ImageID) sameFunction(o ImageID) bool {
	return id.Engine == o.Engine && id.Functionality == o.Functionality
}

// newer reports whether o has a higher release than id.
func (id ImageID) newer(o ImageID) bool {
	if o.Major != id.Major {
		return o.Major > id.Major
	}
	return o.Minor > id.Minor
}

func (id ImageID) String() string {
	return fmt.Sprintf("%s/%s func 0x%02X v%d.%d", id.Device, id.Engine, id.Functionality, id.Major, id.Minor)
}

// Image is a located image.
type Image struct {
	// ID is the decoded id stored in the library
	ID ImageID

	// Packed is the id word as stored in the library
	Packed uint32

	// Body is the image, starting with its download map. It shares storage
	// with the library.
	Body []uint32
}

// Size returns the image size in words.
func (img Image) Size() int {
	return len(img.Body)
}
